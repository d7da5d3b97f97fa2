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

// Package static is the built-in default handler: it resolves a request
// URI to a file under a jailed root directory, defends against path
// traversal, optionally rewrites unmatched routes to a sibling ".html"
// file, and optionally caches served bytes in an LRU keyed by canonical
// path. Grounded on nabbar-golib/static's documented surface (Has/Find
// path-file resolution, 403/404/405 handling, MIME-by-extension) since
// that package's own source was not retrieved, only its test suite.
package static

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/sabouaram/appserver/httpserver"
	liblog "github.com/sabouaram/appserver/logger"
	"github.com/sabouaram/appserver/lru"
	"github.com/sabouaram/appserver/wsocket"
)

const notFoundBody = "<h1>404 Not Found</h1>"

// Config holds the settings the static handler reads from the process
// configuration record (§3 Config, §4.4).
type Config struct {
	Root         string
	HTMLRouting  bool
	CacheEnabled bool
	CacheSizeKB  int
}

// Handler is the built-in static-file handler (component 4). It is itself
// a httpserver.Handler so the dispatcher can treat it exactly like a
// user-supplied plugin when no route matches (§4.3).
type Handler struct {
	root string
	cfg  Config
	log  liblog.Logger
	pool wsocket.Pool

	cache *lru.LRU[string, []byte]
}

// New returns a static Handler jailed to cfg.Root (resolved to its
// canonical absolute form once, up front).
func New(cfg Config) *Handler {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		root = cfg.Root
	}
	root = filepath.Clean(root)
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}

	h := &Handler{root: root, cfg: cfg}

	if cfg.CacheEnabled {
		maxBytes := cfg.CacheSizeKB * 1024
		h.cache = lru.New[string, []byte](maxBytes, func(b []byte) int { return len(b) })
	}

	return h
}

func (h *Handler) IsHeavy() bool                               { return true }
func (h *Handler) OnLoad() error                               { return nil }
func (h *Handler) SetLogger(l liblog.Logger) httpserver.Handler { h.log = l; return h }
func (h *Handler) SetWSPool(p wsocket.Pool) httpserver.Handler  { h.pool = p; return h }

// Handle implements the §4.4 resolution algorithm.
func (h *Handler) Handle(req *httpserver.Request) *httpserver.Response {
	if req.Method != "GET" {
		return httpserver.NewResponse(405).
			SetHeader("Allow", "GET").
			SetBody("Method Not Allowed")
	}

	uri := req.URI
	if uri == "" || uri == "/" {
		uri = "/index.html"
	}

	if h.cfg.HTMLRouting && uri != "/" {
		if rewritten, ok := h.htmlRoutingRewrite(uri); ok {
			uri = rewritten
		}
	}

	rel := strings.TrimPrefix(uri, "/")
	candidate := filepath.Clean(filepath.Join(h.root, rel))

	if !h.isUnderRoot(candidate) {
		return httpserver.NewResponse(403).
			SetHeader("Content-Type", "text/html").
			SetBody("<h1>403 Forbidden</h1>")
	}

	info, err := os.Stat(candidate)
	if err == nil && info.IsDir() {
		candidate = filepath.Join(candidate, "index.html")
		info, err = os.Stat(candidate)
	}

	if err != nil || !info.Mode().IsRegular() {
		if h.log != nil {
			h.log.Warning("static: %q not found", candidate)
		}
		return httpserver.NewResponse(404).
			SetHeader("Content-Type", "text/html").
			SetBody(notFoundBody)
	}

	body, err := h.readFile(candidate)
	if err != nil {
		if h.log != nil {
			h.log.Error("static: reading %q: %s", candidate, err.Error())
		}
		return httpserver.NewResponse(500).SetBody("")
	}

	resp := httpserver.NewResponse(200).SetBody(string(body))
	resp.SetHeader("Content-Type", mimeFor(candidate))
	return resp
}

// htmlRoutingRewrite walks successive "/"-delimited prefixes of uri from
// shortest to longest, checking for "<prefix>.html" as a regular file
// under root; the first (shortest) hit wins (§4.4 step 2).
func (h *Handler) htmlRoutingRewrite(uri string) (string, bool) {
	parts := strings.Split(strings.Trim(uri, "/"), "/")

	for i := 1; i <= len(parts); i++ {
		prefix := strings.Join(parts[:i], "/")
		candidate := filepath.Join(h.root, prefix+".html")

		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return "/" + prefix + ".html", true
		}
	}

	return uri, false
}

// isUnderRoot verifies the canonical candidate path is lexically under the
// canonical root, following symlinks where possible so the check reflects
// the real filesystem target rather than just the textual path.
func (h *Handler) isUnderRoot(candidate string) bool {
	resolved := candidate
	if real, err := filepath.EvalSymlinks(candidate); err == nil {
		resolved = real
	}

	rel, err := filepath.Rel(h.root, resolved)
	if err != nil {
		return false
	}

	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

func (h *Handler) readFile(path string) ([]byte, error) {
	if h.cache != nil {
		if cached, err := h.cache.Get(path); err == nil {
			return cached, nil
		}
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.Put(path, body) // oversize values are silently not cached, not a serving error
	}

	return body, nil
}

func mimeFor(path string) string {
	ext := filepath.Ext(path)
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
