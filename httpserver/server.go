/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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
	"fmt"
	"net"

	libatm "github.com/sabouaram/appserver/atomic"
	"github.com/sabouaram/appserver/logger"
	"github.com/sabouaram/appserver/wsocket"
)

// Server binds a listener, accepts indefinitely, and spawns a Session per
// accepted connection. Naming (Listen/Shutdown/IsRunning via an atomic
// flag) follows nabbar-golib/httpserver/server.go, adapted here to wrap a
// raw net.Listener instead of net/http.Server since the session state
// machine is hand-rolled.
type Server struct {
	port    int
	catalog *HandlerCatalog
	workers *WorkerPool
	wsPool  wsocket.Pool
	log     logger.Logger

	ln      net.Listener
	running libatm.Value[bool]
}

// NewServer returns a Server bound to no listener yet; call Listen to bind
// and start accepting.
func NewServer(port int, catalog *HandlerCatalog, wsPool wsocket.Pool, log logger.Logger) *Server {
	s := &Server{
		port:    port,
		catalog: catalog,
		workers: NewWorkerPool(),
		wsPool:  wsPool,
		log:     log,
		running: libatm.NewValue[bool](),
	}
	return s
}

// IsRunning reports whether the acceptor loop is active.
func (s *Server) IsRunning() bool { return s.running.Load() }

// Port returns the bound port, useful when port 0 was requested and the OS
// picked an ephemeral one.
func (s *Server) Port() int {
	if s.ln == nil {
		return s.port
	}
	if a, ok := s.ln.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return s.port
}

// Listen binds the IPv4 TCP listener and starts the accept loop in its own
// goroutine; it returns once the bind succeeds or fails, not when the
// server stops.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp4", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}

	s.ln = ln
	s.running.Store(true)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.IsRunning() {
				return
			}
			if s.log != nil {
				s.log.Error("accept error: %s", err.Error())
			}
			continue
		}

		sess := NewSession(conn, s.catalog, s.workers, s.wsPool, s.log)
		go sess.Serve()
	}
}

// Shutdown stops accepting new connections, joins the worker pool, and
// waits for in-flight heavy handlers to drain before returning (§5).
func (s *Server) Shutdown() {
	s.running.Store(false)

	if s.ln != nil {
		_ = s.ln.Close()
	}

	s.workers.Drain()
}
