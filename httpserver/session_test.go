package httpserver_test

import (
	"bufio"
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/appserver/httpserver"
	"github.com/sabouaram/appserver/wsocket"
)

var _ = Describe("Session", func() {
	var (
		client  net.Conn
		catalog *httpserver.HandlerCatalog
	)

	newSession := func() {
		server, c := net.Pipe()
		client = c

		builtin := &fakeHandler{code: 404, body: "<h1>404</h1>"}
		catalog = httpserver.NewHandlerCatalog(builtin, nil)
		catalog.Reload(map[string]httpserver.Handler{
			"test": &fakeHandler{code: 200, body: "<h1>Test passed!</h1>"},
		})

		sess := httpserver.NewSession(server, catalog, httpserver.NewWorkerPool(), wsocket.NewPool(), nil)
		go sess.Serve()
	}

	It("dispatches a registered route and returns its response (scenario 5)", func() {
		newSession()

		_, err := client.Write([]byte("GET /test HTTP/1.1\r\nHost: x\r\n\r\n"))
		Expect(err).ToNot(HaveOccurred())

		_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
		line, err := bufio.NewReader(client).ReadString('\n')
		Expect(err).ToNot(HaveOccurred())
		Expect(strings.TrimSpace(line)).To(Equal("HTTP/1.1 200 OK"))
	})

	It("falls back to the built-in handler for unmatched routes", func() {
		newSession()

		_, err := client.Write([]byte("GET /missing HTTP/1.1\r\nHost: x\r\n\r\n"))
		Expect(err).ToNot(HaveOccurred())

		_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
		reader := bufio.NewReader(client)
		line, _ := reader.ReadString('\n')
		Expect(strings.TrimSpace(line)).To(Equal("HTTP/1.1 404 Not Found"))
	})
})
