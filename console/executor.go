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

package console

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/sabouaram/appserver/logger"
)

// CommandFunc handles a parsed command line. args excludes the command name.
type CommandFunc func(args []string) error

// Executor is the interactive command loop: it shares a dedicated goroutine
// with a one-line-at-a-time reader (bufio.Scanner over a supplied io.Reader,
// typically os.Stdin), dispatching case-folded command names to registered
// handlers. It runs concurrently with the HTTP reactor — a blocked read
// never stalls HTTP.
type Executor interface {
	// Register adds or replaces a command handler. name is case-folded.
	Register(name string, fn CommandFunc)

	// Run reads lines from in until it returns EOF, an error, or Stop is
	// called. It blocks the calling goroutine — callers typically invoke it
	// with `go executor.Run(...)`.
	Run(in io.Reader, log logger.Logger)

	// Dispatch parses and executes a single command line synchronously.
	// Exposed directly so tests and embedders can drive the executor
	// without wiring an io.Reader.
	Dispatch(line string, log logger.Logger)

	// Stop causes a subsequent Run to return after its current read.
	Stop()

	// Buffer returns the in-progress command buffer, for prompt redraw.
	Buffer() string
}

type executor struct {
	mu   sync.RWMutex
	cmds map[string]CommandFunc
	buf  string
	stop chan struct{}
	once sync.Once
}

// NewExecutor returns an Executor with no commands registered.
func NewExecutor() Executor {
	return &executor{
		cmds: make(map[string]CommandFunc),
		stop: make(chan struct{}),
	}
}

func (e *executor) Register(name string, fn CommandFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cmds[strings.ToLower(name)] = fn
}

func (e *executor) Buffer() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.buf
}

func (e *executor) setBuffer(s string) {
	e.mu.Lock()
	e.buf = s
	e.mu.Unlock()
}

func (e *executor) Stop() {
	e.once.Do(func() { close(e.stop) })
}

func (e *executor) Run(in io.Reader, log logger.Logger) {
	scn := bufio.NewScanner(in)

	if log != nil {
		log.SetPromptRedraw(func() {
			ColorPrompt.Printf("> %s", e.Buffer())
		})
	}

	for {
		select {
		case <-e.stop:
			return
		default:
		}

		ColorPrompt.Print("> ")
		if !scn.Scan() {
			return
		}

		line := scn.Text()
		e.setBuffer(line)
		e.Dispatch(line, log)
		e.setBuffer("")
	}
}

func (e *executor) Dispatch(line string, log logger.Logger) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]

	e.mu.RLock()
	fn, ok := e.cmds[name]
	e.mu.RUnlock()

	if !ok {
		if log != nil {
			log.Warning("unknown command: %s", fields[0])
		}
		return
	}

	if err := fn(args); err != nil && log != nil {
		log.Error("command %q failed: %s", name, err.Error())
	}
}
