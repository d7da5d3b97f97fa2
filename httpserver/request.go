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
	"strings"

	"github.com/sabouaram/appserver/ctxbag"
)

// Request is a parsed HTTP/1.x request. Its lifetime is a single request
// turn on one Session; a dispatcher may attach metadata to Bag before the
// Response is emitted, after which the Request is discarded.
type Request struct {
	Method      string
	URI         string
	HTTPVersion string
	Header      map[string]string
	Body        string

	Bag ctxbag.Bag
}

// ParseRequest implements the wire parse contract: the first line splits on
// whitespace into method/URI/version; subsequent lines up to a line equal
// to "\r" are header lines split on the first ':'; remaining bytes become
// the body. Malformed input yields a best-effort Request rather than an
// error — the session boundary is the only place that rejects input.
func ParseRequest(raw string) *Request {
	r := &Request{
		Header: make(map[string]string),
	}

	lines := strings.SplitAfter(raw, "\n")
	if len(lines) == 0 {
		return r
	}

	first := strings.TrimRight(lines[0], "\r\n")
	fields := strings.Fields(first)
	switch {
	case len(fields) >= 3:
		r.Method, r.URI, r.HTTPVersion = fields[0], fields[1], fields[2]
	case len(fields) == 2:
		r.Method, r.URI = fields[0], fields[1]
	case len(fields) == 1:
		r.Method = fields[0]
	}

	i := 1
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\n")
		if line == "\r" || line == "" {
			i++
			break
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}

		key := strings.TrimRight(line[:idx], " \t")
		val := strings.Trim(line[idx+1:], " \r\n")
		r.Header[key] = val
	}

	if i < len(lines) {
		r.Body = strings.Join(lines[i:], "")
	}

	return r
}

// MainRoute extracts the route key per the dispatch contract: the empty
// string if the URI has length <= 1, otherwise the segment between the
// leading '/' and the next '/' (exclusive), or to the end if there is none.
// Compared case-sensitively against catalog keys (§4.3) — no case-folding.
func (r *Request) MainRoute() string {
	u := r.URI
	if len(u) <= 1 {
		return ""
	}

	rest := u[1:]
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
