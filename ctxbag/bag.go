/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package ctxbag provides a cancelable context embedding a generic string-keyed
// map, used to let a dispatcher attach request-scoped metadata to a Request
// without widening its exported fields (Data Model, "mutation by the
// dispatcher ... is permitted").
package ctxbag

import (
	"context"

	libatm "github.com/sabouaram/appserver/atomic"
)

// Bag is a context.Context plus a concurrency-safe string-keyed map.
type Bag interface {
	context.Context

	Load(key string) (val any, ok bool)
	Store(key string, val any)
	Delete(key string)
	Walk(fct func(key string, val any) bool)
	// Close cancels the bag's context. Safe to call more than once.
	Close()
}

type bag struct {
	context.Context
	cancel context.CancelFunc
	m      libatm.MapTyped[string, any]
}

// New returns a Bag derived from ctx (context.Background() if nil).
func New(ctx context.Context) Bag {
	if ctx == nil {
		ctx = context.Background()
	}

	c, cancel := context.WithCancel(ctx)

	return &bag{
		Context: c,
		cancel:  cancel,
		m:       libatm.NewMapTyped[string, any](),
	}
}

func (b *bag) Load(key string) (any, bool) {
	return b.m.Load(key)
}

func (b *bag) Store(key string, val any) {
	b.m.Store(key, val)
}

func (b *bag) Delete(key string) {
	b.m.Delete(key)
}

func (b *bag) Walk(fct func(key string, val any) bool) {
	b.m.Range(fct)
}

func (b *bag) Close() {
	b.cancel()
}
