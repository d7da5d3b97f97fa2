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

package httpserver

import (
	"fmt"
	"strconv"
	"strings"
)

var statusText = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	304: "Not Modified",
	400: "Bad Request",
	401: "Unauthorized",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
}

// Response is a status code, an optional status message, a header mapping
// and a body. Setting the body also sets Content-Length.
type Response struct {
	Code    int
	Message string
	Header  map[string]string
	Body    string
}

// NewResponse returns a Response defaulted to text/plain with an empty body.
func NewResponse(code int) *Response {
	r := &Response{
		Code:   code,
		Header: map[string]string{"Content-Type": "text/plain"},
	}
	return r
}

// SetBody sets the body and recomputes Content-Length.
func (r *Response) SetBody(body string) *Response {
	r.Body = body
	r.Header["Content-Length"] = strconv.Itoa(len(body))
	return r
}

// SetHeader sets a single header value.
func (r *Response) SetHeader(key, value string) *Response {
	r.Header[key] = value
	return r
}

func (r *Response) message() string {
	if r.Message != "" {
		return r.Message
	}
	if m, ok := statusText[r.Code]; ok {
		return m
	}
	return "Unknown"
}

// ToString emits the wire form: status line, headers in map iteration
// order, a blank line, then the body.
func (r *Response) ToString() string {
	var b strings.Builder

	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.Code, r.message())
	for k, v := range r.Header {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")
	b.WriteString(r.Body)

	return b.String()
}
