/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package httpserver

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"time"

	libatm "github.com/sabouaram/appserver/atomic"
	"github.com/sabouaram/appserver/ctxbag"
	"github.com/sabouaram/appserver/logger"
	"github.com/sabouaram/appserver/wsocket"
)

// SessionTimeout is the per-operation read/write deadline (§3, §5).
const SessionTimeout = 30 * time.Second

// SessionState names the per-connection state machine's stage (§4.7).
type SessionState int

const (
	StateReading SessionState = iota
	StateDispatching
	StateWriting
	StateClosed
)

// Session owns one accepted TCP connection and drives it through
// Reading -> Dispatching -> Writing -> Reading (or Closed). There is no
// request pipelining (H1: at most one outstanding read and one outstanding
// write), so the per-connection goroutine IS the serializing strand:
// ordering among read, dispatch and write falls out of running them
// sequentially in one goroutine, rather than needing a separate mailbox
// or mutex. Heavy handlers are posted to the worker pool and awaited
// synchronously from this same goroutine, which still satisfies (H3):
// the acceptor's own goroutine is never the one blocking.
type Session struct {
	conn    net.Conn
	reader  *bufio.Reader
	catalog *HandlerCatalog
	workers *WorkerPool
	wsPool  wsocket.Pool
	log     logger.Logger

	state     libatm.Value[SessionState]
	closeOnce sync.Once
}

// NewSession wraps an accepted connection. catalog, workers and wsPool are
// injected services rather than package-level globals, so a Session never
// reaches for process-wide state behind callers' backs.
func NewSession(conn net.Conn, catalog *HandlerCatalog, workers *WorkerPool, wsPool wsocket.Pool, log logger.Logger) *Session {
	s := &Session{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		catalog: catalog,
		workers: workers,
		wsPool:  wsPool,
		log:     log,
		state:   libatm.NewValue[SessionState](),
	}
	s.state.Store(StateReading)
	return s
}

// Serve runs the state machine until the connection closes. It blocks the
// calling goroutine, so callers (the Acceptor) run it as `go s.Serve()`.
func (s *Session) Serve() {
	defer s.close()

	for {
		s.state.Store(StateReading)

		raw, err := s.readRequest()
		if err != nil {
			return
		}

		s.state.Store(StateDispatching)

		req := ParseRequest(raw)
		req.Bag = ctxbag.New(context.Background())

		if wsocket.IsUpgradeRequest(req.Header) && s.catalog.IsWebSocketRoute(req) {
			s.upgrade(req)
			return // socket ownership transferred to the WebSocket session
		}

		resp := s.dispatch(req)
		req.Bag.Close()

		s.state.Store(StateWriting)
		if err := s.writeResponse(resp); err != nil {
			return
		}
	}
}

func (s *Session) readRequest() (string, error) {
	_ = s.conn.SetReadDeadline(time.Now().Add(SessionTimeout))

	var raw strings.Builder
	for {
		line, err := s.reader.ReadString('\n')
		raw.WriteString(line)
		if err != nil {
			return "", err
		}
		if line == "\r\n" || line == "\n" {
			break
		}
	}

	// No Content-Length-driven follow-up read is performed (§4.7, §9 Open
	// Questions); whatever arrived in the same initial read and is already
	// buffered is taken as the body, without a further blocking read.
	if n := s.reader.Buffered(); n > 0 {
		extra := make([]byte, n)
		_, _ = s.reader.Read(extra)
		raw.Write(extra)
	}

	return raw.String(), nil
}

func (s *Session) dispatch(req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			if s.log != nil {
				s.log.Error("handler panic on route %q: %v", req.MainRoute(), r)
			}
			resp = NewResponse(400).SetBody("")
		}
	}()

	desc := s.catalog.Dispatch(req)

	if !desc.Heavy {
		return desc.Func(req)
	}

	result := make(chan *Response, 1)
	s.workers.Post(func() {
		result <- safeInvoke(desc.Func, req)
	})
	return <-result
}

func safeInvoke(fn func(*Request) *Response, req *Request) (resp *Response) {
	defer func() {
		if recover() != nil {
			resp = NewResponse(400).SetBody("")
		}
	}()
	return fn(req)
}

func (s *Session) writeResponse(resp *Response) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(SessionTimeout))
	_, err := s.conn.Write([]byte(resp.ToString()))
	return err
}

func (s *Session) upgrade(req *Request) {
	key := lookupHeader(req.Header, "Sec-WebSocket-Protocol")
	if key == "" {
		key = wsocket.DefaultKey
	}

	sess, err := wsocket.MakeFromRequest(s.conn, s.reader, req.Method, req.URI, req.Header, key, s.workers.Post, s.log)
	if err != nil {
		if s.log != nil {
			s.log.Warning("websocket upgrade failed: %s", err.Error())
		}
		_ = s.conn.Close()
		return
	}

	sess.Start(s.wsPool)
}

func lookupHeader(header map[string]string, name string) string {
	if v, ok := header[name]; ok {
		return v
	}
	for k, v := range header {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.state.Store(StateClosed)
		_ = s.conn.Close()
	})
}
