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
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// WorkerCount is the fixed size of the heavy-handler worker pool (§4.9).
const WorkerCount = 4

// WorkerPool bounds concurrent execution of heavy handlers and WebSocket
// onRecieve callbacks to WorkerCount. Its surface is Post and Drain; the
// bound is a golang.org/x/sync/semaphore.Weighted (Acquire/Release) rather
// than a hand-rolled counting channel.
type WorkerPool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewWorkerPool returns a pool bounded to WorkerCount concurrent tasks.
func NewWorkerPool() *WorkerPool {
	return &WorkerPool{sem: semaphore.NewWeighted(WorkerCount)}
}

// Post schedules task to run on the worker pool. It blocks the caller until
// one of the WorkerCount slots is free (the acquire has no deadline), then
// runs task on its own goroutine. Callers are session goroutines, never the
// acceptor's, so a full pool does not stall new accepts (H3).
func (p *WorkerPool) Post(task func()) {
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		task()
	}()
}

// Drain blocks until every posted task has returned, used on shutdown to
// guarantee in-flight heavy handlers complete before the process exits.
func (p *WorkerPool) Drain() {
	p.wg.Wait()
}
