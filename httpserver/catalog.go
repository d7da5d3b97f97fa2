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
	libatm "github.com/sabouaram/appserver/atomic"
	"github.com/sabouaram/appserver/logger"
)

// HandlerCatalog maps a route key to its persistent handler instance.
// Reload replaces the whole catalog atomically (O5): in-flight requests
// keep using the instance they already looked up, and only subsequent
// lookups observe the new catalog. Modelled after
// nabbar-golib/httpserver/types.FuncHandler's "a function returning the
// current map" pattern, generalized with the atomic package's Value[T]
// instead of a raw map field.
type HandlerCatalog struct {
	cur        libatm.Value[map[string]Handler]
	dflt       libatm.Value[string]
	useBuiltin libatm.Value[bool]
	builtin    Handler
	log        logger.Logger
}

// NewHandlerCatalog returns an empty catalog whose default handler falls
// back to builtin (the static-file handler) until SetDefault names a
// catalog entry.
func NewHandlerCatalog(builtin Handler, log logger.Logger) *HandlerCatalog {
	c := &HandlerCatalog{
		cur:        libatm.NewValue[map[string]Handler](),
		dflt:       libatm.NewValue[string](),
		useBuiltin: libatm.NewValue[bool](),
		builtin:    builtin,
		log:        log,
	}
	c.cur.Store(map[string]Handler{})
	return c
}

// Reload atomically swaps in a freshly built set of instances. Only the
// command-executor goroutine is expected to call this (O5).
func (c *HandlerCatalog) Reload(instances map[string]Handler) {
	snapshot := make(map[string]Handler, len(instances))
	for k, v := range instances {
		snapshot[k] = v
	}
	c.cur.Store(snapshot)
}

// SetDefault names the catalog entry to use as the default handler when no
// route matches and default_request_handler (see SetUseBuiltinDefault) is
// false. "none" falls back silently to the built-in static handler; any
// other name not present at dispatch time falls back too, but with a
// warning logged.
func (c *HandlerCatalog) SetDefault(name string) {
	c.dflt.Store(name)
}

// SetUseBuiltinDefault mirrors config's default_request_handler (§3): when
// true, the built-in static handler is always used as the default,
// regardless of what SetDefault named — custom_default_handler is only
// consulted when this is false.
func (c *HandlerCatalog) SetUseBuiltinDefault(use bool) {
	c.useBuiltin.Store(use)
}

// WebSocketRoute is an optional interface a Handler may implement to opt
// into the upgrade path: the dispatcher only relinquishes a socket to a
// WebSocket session (§4.6) for routes whose instance reports itself
// eligible, never for the static default handler.
type WebSocketRoute interface {
	IsWebSocketRoute() bool
}

// IsWebSocketRoute reports whether req's matched route instance opts into
// WebSocket upgrades. Unmatched routes (falling back to the default
// handler) are never upgrade-eligible.
func (c *HandlerCatalog) IsWebSocketRoute(req *Request) bool {
	cat := c.cur.Load()
	h, ok := cat[req.MainRoute()]
	if !ok {
		return false
	}

	ws, ok := h.(WebSocketRoute)
	return ok && ws.IsWebSocketRoute()
}

// Dispatch resolves req's main route to a HandlerDescriptor: a registered
// instance if present, otherwise the configured (or built-in) default.
func (c *HandlerCatalog) Dispatch(req *Request) HandlerDescriptor {
	route := req.MainRoute()

	cat := c.cur.Load()
	if h, ok := cat[route]; ok {
		return DescriptorFor(h)
	}

	return DescriptorFor(c.defaultHandler(cat))
}

func (c *HandlerCatalog) defaultHandler(cat map[string]Handler) Handler {
	if c.useBuiltin.Load() {
		return c.builtin
	}

	name := c.dflt.Load()
	if name == "" || name == "none" {
		return c.builtin
	}

	if h, ok := cat[name]; ok {
		return h
	}

	if c.log != nil {
		c.log.Warning("configured default handler %q not found in catalog, using built-in", name)
	}
	return c.builtin
}
