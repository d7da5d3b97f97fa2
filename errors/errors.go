/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package errors provides coded errors with parent chaining, mapping the
// error taxonomy of the error-handling design onto a small enum of Code
// values instead of bare fmt.Errorf strings.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies an Error the way the error-handling design's taxonomy
// does: parse failures, handler failures, filesystem outcomes, timeouts,
// accept errors and cache overflow.
type Code uint16

const (
	CodeUnknown Code = iota
	CodeParse
	CodeHandler
	CodeFsNotFound
	CodeFsForbidden
	CodeFsOther
	CodeTimeout
	CodeAccept
	CodeCacheOverflow
	CodeConfig
	CodeUpgrade
	CodeNotFound
)

func (c Code) String() string {
	switch c {
	case CodeParse:
		return "parse error"
	case CodeHandler:
		return "handler error"
	case CodeFsNotFound:
		return "file not found"
	case CodeFsForbidden:
		return "path escapes root"
	case CodeFsOther:
		return "filesystem error"
	case CodeTimeout:
		return "timeout"
	case CodeAccept:
		return "accept error"
	case CodeCacheOverflow:
		return "value too big"
	case CodeConfig:
		return "configuration error"
	case CodeUpgrade:
		return "websocket upgrade error"
	case CodeNotFound:
		return "key not found"
	default:
		return "unknown error"
	}
}

// Error is a coded error with an optional parent chain, compatible with
// errors.Is/errors.As via Unwrap.
type Error interface {
	error
	Code() Code
	Parent() error
	Unwrap() error
}

type cerr struct {
	code Code
	msg  string
	next error
}

// New builds a new coded Error. parent may be nil.
func New(code Code, msg string, parent error) Error {
	return &cerr{code: code, msg: msg, next: parent}
}

// Wrap builds a coded Error from an existing error, using code's description
// as the message. It returns nil when err is nil.
func Wrap(code Code, err error) Error {
	if err == nil {
		return nil
	}
	return &cerr{code: code, msg: code.String(), next: err}
}

func (e *cerr) Error() string {
	if e.msg == "" {
		if e.next != nil {
			return fmt.Sprintf("%s: %s", e.code, e.next.Error())
		}
		return e.code.String()
	}
	if e.next != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.next.Error())
	}
	return e.msg
}

func (e *cerr) Code() Code    { return e.code }
func (e *cerr) Parent() error { return e.next }
func (e *cerr) Unwrap() error { return e.next }

// Is reports whether the first Error found in err's chain (err itself or one
// it wraps) carries code. Coded errors deeper in the chain are not checked.
func Is(err error, code Code) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Code() == code
	}
	return false
}
