/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package logger provides the thread-safe log/warning/error contract used
// throughout the server, backed by sirupsen/logrus, with an optional
// prompt-redraw hook for the interactive command executor.
package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// FuncLog returns a Logger instance; used for dependency injection so
// components don't import a process-wide singleton directly.
type FuncLog func() Logger

// PromptRedraw is called after every log line so an interactive console can
// redraw its "> <buffer>" prompt without it being scrolled away.
type PromptRedraw func()

// Logger is the thread-safe log/warning/error contract offered to handlers
// and to the core.
type Logger interface {
	Log(message string, args ...interface{})
	Warning(message string, args ...interface{})
	Error(message string, args ...interface{})

	// SetOutput redirects where formatted lines are written (default os.Stderr).
	SetOutput(w io.Writer)

	// SetPromptRedraw installs or clears the console prompt-redraw hook.
	SetPromptRedraw(fn PromptRedraw)

	// Clone returns an independent Logger sharing the same output and hook.
	Clone() Logger
}

type lgr struct {
	mu     sync.Mutex
	entry  *logrus.Logger
	redraw PromptRedraw
}

// New returns a Logger writing timestamped, leveled lines via logrus's text
// formatter. Lines carry no goroutine or thread identity.
func New() Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &lgr{entry: l}
}

func (l *lgr) log(lvl logrus.Level, message string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entry.Logf(lvl, message, args...)

	if l.redraw != nil {
		l.redraw()
	}
}

func (l *lgr) Log(message string, args ...interface{}) {
	l.log(logrus.InfoLevel, message, args...)
}

func (l *lgr) Warning(message string, args ...interface{}) {
	l.log(logrus.WarnLevel, message, args...)
}

func (l *lgr) Error(message string, args ...interface{}) {
	l.log(logrus.ErrorLevel, message, args...)
}

func (l *lgr) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entry.SetOutput(w)
}

func (l *lgr) SetPromptRedraw(fn PromptRedraw) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.redraw = fn
}

func (l *lgr) Clone() Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := logrus.New()
	n.SetFormatter(l.entry.Formatter)
	n.SetOutput(l.entry.Out)
	n.SetLevel(l.entry.Level)

	return &lgr{entry: n, redraw: l.redraw}
}
