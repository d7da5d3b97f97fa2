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
	"github.com/sabouaram/appserver/logger"
	"github.com/sabouaram/appserver/wsocket"
)

// Handler is the plugin contract a handler author implements. Handle is
// pure with respect to shared state except through the services injected by
// the host (logger, WebSocket pool). IsHeavy is read on every dispatch and
// must stay stable for the instance's lifetime.
type Handler interface {
	Handle(req *Request) *Response
	IsHeavy() bool

	// OnLoad is an optional one-shot hook the loader calls before the
	// instance is added to the catalog.
	OnLoad() error

	// SetLogger and SetWSPool accept host-provided service handles and
	// return self, enabling fluent initialization the way
	// httpserver/types.Handler's SetXxx(...) Self hooks do.
	SetLogger(log logger.Logger) Handler
	SetWSPool(pool wsocket.Pool) Handler
}

// HandlerDescriptor pairs a dispatch closure with the heavy flag the
// session uses to decide inline vs. worker-pool execution.
type HandlerDescriptor struct {
	Func  func(req *Request) *Response
	Heavy bool
}

// DescriptorFor builds the HandlerDescriptor the dispatcher posts, either
// to the reactor (light) or to the worker pool (heavy).
func DescriptorFor(h Handler) HandlerDescriptor {
	return HandlerDescriptor{
		Func:  h.Handle,
		Heavy: h.IsHeavy(),
	}
}
