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

package wsocket

import (
	"bufio"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	liberr "github.com/sabouaram/appserver/errors"
	"github.com/sabouaram/appserver/logger"
)

// IsUpgradeRequest reports whether header carries a valid RFC 6455
// handshake: Connection: Upgrade, Upgrade: websocket, and a
// Sec-WebSocket-Key. This is the only detection the dispatcher needs to
// decide whether to hand a route off to MakeFromRequest instead of
// running it as an ordinary handler.
func IsUpgradeRequest(header map[string]string) bool {
	conn := strings.ToLower(lookup(header, "Connection"))
	upg := strings.ToLower(lookup(header, "Upgrade"))
	key := lookup(header, "Sec-WebSocket-Key")

	return strings.Contains(conn, "upgrade") && upg == "websocket" && key != ""
}

func lookup(header map[string]string, name string) string {
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

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// hijackShim adapts a raw net.Conn plus its buffered reader into the
// http.ResponseWriter + http.Hijacker pair gorilla/websocket.Upgrader
// expects, since the HTTP session here is hand-rolled rather than built on
// net/http. Upgrade itself is entirely delegated to the library; this type
// exists only to satisfy its interface requirements.
type hijackShim struct {
	conn net.Conn
	brw  *bufio.ReadWriter
	hdr  http.Header
}

func (h *hijackShim) Header() http.Header         { return h.hdr }
func (h *hijackShim) Write(b []byte) (int, error) { return len(b), nil }
func (h *hijackShim) WriteHeader(int)             {}

func (h *hijackShim) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return h.conn, h.brw, nil
}

// MakeFromRequest upgrades an already-accepted connection into a WebSocket
// Session, handing ownership of the underlying TCP stream to the new
// session per §4.6: after a successful call the HTTP session must not touch
// the socket again. On error no session owns the socket and closing it is
// left to the caller.
func MakeFromRequest(conn net.Conn, br *bufio.Reader, method, uri string, header map[string]string, key string, disp Dispatcher, log logger.Logger) (*Session, error) {
	hdr := make(http.Header, len(header))
	for k, v := range header {
		hdr.Set(k, v)
	}

	u, err := url.ParseRequestURI(uri)
	if err != nil {
		u = &url.URL{Path: uri}
	}

	req := &http.Request{
		Method: method,
		URL:    u,
		Proto:  "HTTP/1.1",
		Header: hdr,
	}

	bw := bufio.NewWriter(conn)
	shim := &hijackShim{
		conn: conn,
		brw:  bufio.NewReadWriter(br, bw),
		hdr:  make(http.Header),
	}

	wsConn, err := upgrader.Upgrade(shim, req, nil)
	if err != nil {
		return nil, liberr.New(liberr.CodeUpgrade, "websocket handshake failed", err)
	}

	return NewSession(wsConn, key, disp, log), nil
}
