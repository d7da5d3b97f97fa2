/*
 * MIT License
 *
 * Copyright (c) 2021 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package wsocket implements the WebSocket session and pool. Framing is
// ceded entirely to gorilla/websocket; this package supplies the session
// state machine, the ordered send queue and the name-keyed pool around it.
package wsocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	libatm "github.com/sabouaram/appserver/atomic"
	liberr "github.com/sabouaram/appserver/errors"
	"github.com/sabouaram/appserver/logger"
)

// DefaultKey is the registration key used when a caller does not supply
// one explicitly.
const DefaultKey = "empty key"

// State is the session's lifecycle stage.
type State int

const (
	StateHandshaking State = iota
	StateOpen
	StateClosing
	StateClosed
)

// Dispatcher posts a task to run off the reactor, the same shape the HTTP
// session's worker pool uses for heavy handlers. onRecieve callbacks go
// through it when one is set; with a nil Dispatcher they run on the read
// goroutine.
type Dispatcher func(task func())

// ReceiveFunc handles an inbound text frame already converted to a string.
type ReceiveFunc func(msg string)

// CloseFunc runs once the session has fully closed.
type CloseFunc func()

// Session is a single WebSocket connection: owned stream, per-session
// serializer (a write-pump goroutine reading a buffered channel acts as the
// strand/mailbox), a FIFO send queue, and optional receive/close callbacks.
type Session struct {
	conn *websocket.Conn
	key  string
	log  logger.Logger
	pool Pool
	disp Dispatcher

	send   chan []byte
	done   chan struct{}
	once   sync.Once
	state  libatm.Value[State]
	onRecv ReceiveFunc
	onClse CloseFunc
}

// NewSession wraps an already-upgraded *websocket.Conn. key defaults to
// DefaultKey when empty.
func NewSession(conn *websocket.Conn, key string, disp Dispatcher, log logger.Logger) *Session {
	if key == "" {
		key = DefaultKey
	}

	s := &Session{
		conn:  conn,
		key:   key,
		log:   log,
		disp:  disp,
		send:  make(chan []byte, 32),
		done:  make(chan struct{}),
		state: libatm.NewValue[State](),
	}
	s.state.Store(StateHandshaking)

	return s
}

// SetOnReceive installs the inbound message callback.
func (s *Session) SetOnReceive(fn ReceiveFunc) { s.onRecv = fn }

// SetOnClose installs the close callback.
func (s *Session) SetOnClose(fn CloseFunc) { s.onClse = fn }

// Key returns the pool registration key.
func (s *Session) Key() string { return s.key }

// CurrentState reports the current lifecycle stage.
func (s *Session) CurrentState() State { return s.state.Load() }

// Start registers the session with pool (if non-nil) and launches the read
// loop and write pump. It returns immediately; both loops run in their own
// goroutines, matching (O2): writes totally ordered, reads never overlap.
func (s *Session) Start(pool Pool) {
	s.pool = pool
	if pool != nil {
		pool.PutSocket(s.key, s)
	}

	s.state.Store(StateOpen)

	go s.writePump()
	go s.readPump()
}

func (s *Session) readPump() {
	defer s.Close()

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.log != nil {
				s.log.Log("websocket session %q read loop ended: %s", s.key, err.Error())
			}
			return
		}

		if mt == websocket.CloseMessage {
			return
		}

		msg := string(data)
		if s.onRecv != nil {
			fn := s.onRecv
			if s.disp != nil {
				s.disp(func() { fn(msg) })
			} else {
				fn(msg)
			}
		}
	}
}

func (s *Session) writePump() {
	for {
		select {
		case frame, ok := <-s.send:
			if !ok {
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if s.log != nil {
					s.log.Warning("websocket session %q write failed: %s", s.key, err.Error())
				}
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Send enqueues a message. If a write is already in flight the message
// waits behind it; the channel buffer is the FIFO queue, and the single
// reading writePump goroutine is the strand that totally orders writes
// (satisfies O2 and the Write-ordering testable property).
func (s *Session) Send(msg string) error {
	if s.state.Load() != StateOpen {
		return liberr.New(liberr.CodeUpgrade, "session is not open", nil)
	}

	select {
	case s.send <- []byte(msg):
		return nil
	case <-s.done:
		return liberr.New(liberr.CodeUpgrade, "session is closed", nil)
	}
}

// Close transitions to Closing, sends a close frame and closes the connection
// without waiting for the peer's reply, then moves to Closed.
// It unregisters from the pool so the invariant "pool[key] implies session
// alive" can never be violated by a dangling entry.
func (s *Session) Close() {
	s.once.Do(func() {
		s.state.Store(StateClosing)
		close(s.done)

		deadline := time.Now().Add(2 * time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()

		s.state.Store(StateClosed)

		if s.pool != nil {
			s.pool.EraseAndClose(s.key)
		}
		if s.onClse != nil {
			s.onClse()
		}
	})
}
