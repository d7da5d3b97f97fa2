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

// Package lru provides a byte-bounded, thread-safe LRU map keyed by any
// comparable K, used by the static-file handler to cache file bytes but
// generic enough for any handler to reuse.
//
// Unlike nabbar-golib/cache (time-expiry based, sync.Map-backed), this
// package bounds total occupancy by a caller-supplied size functor and
// evicts least-recently-used entries, with an intrusive doubly linked list
// ordered by recency plus a K -> *node index for O(1) access rather than a
// linear scan over entries.
package lru

import (
	"sync"

	liberr "github.com/sabouaram/appserver/errors"
)

// SizeFunc returns the byte cost of a value, used to bound total occupancy.
type SizeFunc[V any] func(v V) int

type node[K comparable, V any] struct {
	key  K
	val  V
	size int
	prev *node[K, V]
	next *node[K, V]
}

// LRU is a byte-bounded, thread-safe, generic least-recently-used map.
type LRU[K comparable, V any] struct {
	mu    sync.Mutex
	size  SizeFunc[V]
	max   int
	bytes int

	idx  map[K]*node[K, V]
	head *node[K, V] // most recently used
	tail *node[K, V] // least recently used
}

// New returns an LRU bounded by maxBytes, using sizeFn to cost each value.
func New[K comparable, V any](maxBytes int, sizeFn SizeFunc[V]) *LRU[K, V] {
	return &LRU[K, V]{
		size: sizeFn,
		max:  maxBytes,
		idx:  make(map[K]*node[K, V]),
	}
}

// unlink removes n from the recency list without touching idx or bytes.
func (l *LRU[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// pushFront makes n the most-recently-used entry.
func (l *LRU[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

// evictTailLocked evicts from the tail until adding `need` more bytes would
// fit within max, skipping keep (the entry being grown in place, if any) so
// a replace never evicts itself. Caller holds l.mu.
func (l *LRU[K, V]) evictTailLocked(need int, keep *node[K, V]) {
	for l.bytes+need > l.max && l.tail != nil {
		victim := l.tail
		if victim == keep {
			if victim.prev == nil {
				break
			}
			victim = victim.prev
		}
		l.unlink(victim)
		delete(l.idx, victim.key)
		l.bytes -= victim.size
	}
}

// Put inserts or replaces the value for k. A value whose size exceeds
// max_bytes is rejected with a CodeCacheOverflow error and the map is left
// unmodified. Replacing an existing key does not promote it to most-recently
// used; promotion only happens on Get.
func (l *LRU[K, V]) Put(k K, v V) error {
	sz := l.size(v)
	if sz > l.max {
		return liberr.New(liberr.CodeCacheOverflow, "value too big", nil)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Replacing an existing key keeps its current list position (no
	// promotion on put) and only adjusts the byte accounting by the delta,
	// evicting other entries from the tail if the new value grew.
	if n, ok := l.idx[k]; ok {
		if delta := sz - n.size; delta > 0 {
			l.evictTailLocked(delta, n)
		}
		n.val = v
		l.bytes += sz - n.size
		n.size = sz
		return nil
	}

	l.evictTailLocked(sz, nil)

	n := &node[K, V]{key: k, val: v, size: sz}
	l.idx[k] = n
	l.pushFront(n)
	l.bytes += sz

	return nil
}

// Get returns the value for k and promotes it to most-recently-used. It
// fails with a CodeNotFound error if k is absent.
func (l *LRU[K, V]) Get(k K) (V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.idx[k]
	if !ok {
		var zero V
		return zero, liberr.New(liberr.CodeNotFound, "key not found", nil)
	}

	l.unlink(n)
	l.pushFront(n)

	return n.val, nil
}

// Exists reports whether k is present, without promoting it.
func (l *LRU[K, V]) Exists(k K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.idx[k]
	return ok
}

// Remove unlinks k if present; no-op otherwise.
func (l *LRU[K, V]) Remove(k K) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.idx[k]
	if !ok {
		return
	}

	l.unlink(n)
	delete(l.idx, k)
	l.bytes -= n.size
}

// Size returns the number of entries.
func (l *LRU[K, V]) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.idx)
}

// ByteSize returns the sum of size(v) over all entries.
func (l *LRU[K, V]) ByteSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.bytes
}
