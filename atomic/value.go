/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Package atomic provides concurrency-safe generic primitives (Value[T], MapTyped[K,V])
// used throughout the server to hold process-wide singletons (handler catalog,
// configuration record, running flags) that are replaced wholesale on reload
// rather than mutated in place.
package atomic

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Value is a typed wrapper over sync/atomic.Value with nil-safe Load/Store.
type Value[T any] interface {
	Load() (val T)
	Store(val T)
	Swap(new T) (old T)
	CompareAndSwap(old, new T) (swapped bool)
}

type box[T any] struct {
	v T
}

// val guards CompareAndSwap with a mutex rather than relying on
// sync/atomic.Value.CompareAndSwap, which panics for non-comparable T
// (slices, maps, funcs) — handler descriptors and config records are
// structs that may embed any of those.
type val[T any] struct {
	av atomic.Value
	mu sync.Mutex
}

// NewValue returns a Value[T] whose Load returns the zero value of T until
// the first Store.
func NewValue[T any]() Value[T] {
	return &val[T]{}
}

func (o *val[T]) Load() (out T) {
	if v, ok := o.av.Load().(box[T]); ok {
		return v.v
	}
	return out
}

func (o *val[T]) Store(v T) {
	o.av.Store(box[T]{v: v})
}

func (o *val[T]) Swap(new T) (old T) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if v, ok := o.av.Load().(box[T]); ok {
		old = v.v
	}
	o.av.Store(box[T]{v: new})
	return old
}

func (o *val[T]) CompareAndSwap(old, new T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	cur, _ := o.av.Load().(box[T])
	if !reflect.DeepEqual(cur.v, old) {
		return false
	}
	o.av.Store(box[T]{v: new})
	return true
}

// MapTyped is a generic, concurrency-safe map. It backs the WebSocket pool
// and the per-request ctxbag store.
type MapTyped[K comparable, V any] interface {
	Load(key K) (value V, ok bool)
	Store(key K, value V)
	LoadOrStore(key K, value V) (actual V, loaded bool)
	LoadAndDelete(key K) (value V, loaded bool)
	Delete(key K)
	Range(f func(key K, value V) bool)
	Len() int
}

type mt[K comparable, V any] struct {
	m sync.Map
	n int64
}

// NewMapTyped returns an empty MapTyped[K,V].
func NewMapTyped[K comparable, V any]() MapTyped[K, V] {
	return &mt[K, V]{}
}

func (o *mt[K, V]) Load(key K) (V, bool) {
	if v, ok := o.m.Load(key); ok {
		return v.(V), true
	}
	var zero V
	return zero, false
}

func (o *mt[K, V]) Store(key K, value V) {
	if _, loaded := o.m.Swap(key, value); !loaded {
		atomic.AddInt64(&o.n, 1)
	}
}

func (o *mt[K, V]) LoadOrStore(key K, value V) (V, bool) {
	actual, loaded := o.m.LoadOrStore(key, value)
	if !loaded {
		atomic.AddInt64(&o.n, 1)
	}
	return actual.(V), loaded
}

func (o *mt[K, V]) LoadAndDelete(key K) (V, bool) {
	v, loaded := o.m.LoadAndDelete(key)
	if loaded {
		atomic.AddInt64(&o.n, -1)
		return v.(V), true
	}
	var zero V
	return zero, false
}

func (o *mt[K, V]) Delete(key K) {
	if _, loaded := o.m.LoadAndDelete(key); loaded {
		atomic.AddInt64(&o.n, -1)
	}
}

func (o *mt[K, V]) Range(f func(key K, value V) bool) {
	o.m.Range(func(k, v any) bool {
		return f(k.(K), v.(V))
	})
}

func (o *mt[K, V]) Len() int {
	return int(atomic.LoadInt64(&o.n))
}
