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
	libatm "github.com/sabouaram/appserver/atomic"
)

// Pool is a non-owning, name-keyed registry of live sessions. Sessions are
// externally owned; the pool only holds references and a session erases
// itself on Close, so "pool[key] implies session alive" always holds. Go
// has no weak pointer type, so this is built on the atomic package's
// generic map plus the erase-on-close discipline instead.
type Pool interface {
	PutSocket(key string, s *Session)
	GetSocket(key string) (*Session, bool)
	EraseAndClose(key string)
	Len() int
}

type pool struct {
	m libatm.MapTyped[string, *Session]
}

// NewPool returns an empty Pool.
func NewPool() Pool {
	return &pool{m: libatm.NewMapTyped[string, *Session]()}
}

func (p *pool) PutSocket(key string, s *Session) {
	p.m.Store(key, s)
}

func (p *pool) GetSocket(key string) (*Session, bool) {
	return p.m.Load(key)
}

func (p *pool) EraseAndClose(key string) {
	s, ok := p.m.LoadAndDelete(key)
	if !ok {
		return
	}
	if s.CurrentState() == StateOpen || s.CurrentState() == StateHandshaking {
		s.Close()
	}
}

func (p *pool) Len() int {
	return p.m.Len()
}
