package static_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/appserver/httpserver"
	"github.com/sabouaram/appserver/static"
)

func writeFile(root, rel, content string) {
	path := filepath.Join(root, rel)
	Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
}

var _ = Describe("Static handler", func() {
	var root string

	BeforeEach(func() {
		root = GinkgoT().TempDir()
	})

	It("serves index.html for / (scenario 1)", func() {
		writeFile(root, "index.html", "<h1>Hi</h1>")
		h := static.New(static.Config{Root: root})

		resp := h.Handle(&httpserver.Request{Method: "GET", URI: "/"})

		Expect(resp.Code).To(Equal(200))
		Expect(resp.Header["Content-Type"]).To(Equal("text/html; charset=utf-8"))
		Expect(resp.Header["Content-Length"]).To(Equal("11"))
		Expect(resp.Body).To(Equal("<h1>Hi</h1>"))
	})

	It("rejects path traversal with 403 (scenario 2, Static jail)", func() {
		h := static.New(static.Config{Root: root})

		resp := h.Handle(&httpserver.Request{Method: "GET", URI: "/../etc/passwd"})

		Expect(resp.Code).To(Equal(403))
		Expect(resp.Body).To(Equal("<h1>403 Forbidden</h1>"))
	})

	It("falls back to the 404 page when html_routing finds nothing (scenario 3)", func() {
		h := static.New(static.Config{Root: root, HTMLRouting: true})

		resp := h.Handle(&httpserver.Request{Method: "GET", URI: "/missing"})

		Expect(resp.Code).To(Equal(404))
	})

	It("rewrites to a prefix.html hit when html_routing is enabled", func() {
		writeFile(root, "missing.html", "<h1>routed</h1>")
		h := static.New(static.Config{Root: root, HTMLRouting: true})

		resp := h.Handle(&httpserver.Request{Method: "GET", URI: "/missing"})

		Expect(resp.Code).To(Equal(200))
		Expect(resp.Body).To(Equal("<h1>routed</h1>"))
	})

	It("rejects non-GET with 405 and an Allow header (scenario 4)", func() {
		h := static.New(static.Config{Root: root})

		resp := h.Handle(&httpserver.Request{Method: "POST", URI: "/"})

		Expect(resp.Code).To(Equal(405))
		Expect(resp.Header["Allow"]).To(Equal("GET"))
		Expect(resp.Body).To(Equal("Method Not Allowed"))
	})

	It("serves cached bytes on a second request without re-reading the file", func() {
		writeFile(root, "cached.txt", "cached-body")
		h := static.New(static.Config{Root: root, CacheEnabled: true, CacheSizeKB: 64})

		first := h.Handle(&httpserver.Request{Method: "GET", URI: "/cached.txt"})
		Expect(first.Code).To(Equal(200))

		Expect(os.WriteFile(filepath.Join(root, "cached.txt"), []byte("changed-on-disk"), 0o644)).To(Succeed())

		second := h.Handle(&httpserver.Request{Method: "GET", URI: "/cached.txt"})
		Expect(second.Code).To(Equal(200))
		Expect(second.Body).To(Equal("cached-body"))
	})

	DescribeTable("Static jail holds for arbitrary traversal attempts",
		func(uri string) {
			h := static.New(static.Config{Root: root})
			resp := h.Handle(&httpserver.Request{Method: "GET", URI: uri})
			Expect(resp.Code).To(Or(Equal(403), Equal(404)))
		},
		Entry("dot-dot climb", "/../../../etc/passwd"),
		Entry("deep dot-dot climb", "/a/../../../b/../../etc/shadow"),
		Entry("absolute-looking", "/../../root/.ssh/id_rsa"),
	)
})
