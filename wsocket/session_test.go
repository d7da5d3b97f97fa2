package wsocket_test

import (
	"bufio"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/appserver/wsocket"
)

// handshakeHeader is a minimal but valid RFC 6455 client handshake, enough
// for gorilla/websocket.Upgrader to accept it on the server side.
func handshakeHeader() map[string]string {
	return map[string]string{
		"Connection":            "Upgrade",
		"Upgrade":               "websocket",
		"Sec-WebSocket-Key":     "dGhlIHNhbXBsZSBub25jZQ==",
		"Sec-WebSocket-Version": "13",
	}
}

// newPair drives a real handshake over a net.Pipe: the server half through
// wsocket.MakeFromRequest (the same entry point the HTTP session uses), the
// client half through gorilla/websocket's own client conn, so the session
// under test is exercised exactly as it would be in production.
func newPair(pool wsocket.Pool) (*websocket.Conn, *wsocket.Session) {
	server, client := net.Pipe()

	sessCh := make(chan *wsocket.Session, 1)
	go func() {
		defer GinkgoRecover()
		sess, err := wsocket.MakeFromRequest(server, bufio.NewReader(server), "GET", "/ws",
			handshakeHeader(), "", func(task func()) { task() }, nil)
		Expect(err).ToNot(HaveOccurred())
		sess.Start(pool)
		sessCh <- sess
	}()

	u, _ := url.Parse("ws://example/ws")
	clientConn, _, err := websocket.NewClient(client, u, nil, 1024, 1024)
	Expect(err).ToNot(HaveOccurred())

	var sess *wsocket.Session
	Eventually(sessCh).Should(Receive(&sess))

	return clientConn, sess
}

var _ = Describe("Session", func() {
	It("delivers ordered Send calls in the order they were enqueued (O2)", func() {
		clientConn, sess := newPair(wsocket.NewPool())
		defer clientConn.Close()

		Expect(sess.Send("one")).To(Succeed())
		Expect(sess.Send("two")).To(Succeed())
		Expect(sess.Send("three")).To(Succeed())

		for _, want := range []string{"one", "two", "three"} {
			_ = clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, data, err := clientConn.ReadMessage()
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal(want))
		}
	})

	It("rejects Send once the session is closed", func() {
		clientConn, sess := newPair(wsocket.NewPool())
		defer clientConn.Close()

		sess.Close()

		Expect(sess.Send("too late")).To(HaveOccurred())
	})

	It("erases itself from the pool on Close, satisfying pool[key] implies session alive", func() {
		pool := wsocket.NewPool()
		clientConn, sess := newPair(pool)
		defer clientConn.Close()

		_, ok := pool.GetSocket(sess.Key())
		Expect(ok).To(BeTrue())

		sess.Close()

		_, ok = pool.GetSocket(sess.Key())
		Expect(ok).To(BeFalse())
	})

	It("tolerates the pool calling EraseAndClose concurrently with Session.Close", func() {
		pool := wsocket.NewPool()
		clientConn, sess := newPair(pool)
		defer clientConn.Close()

		done := make(chan struct{}, 2)
		go func() { defer GinkgoRecover(); sess.Close(); done <- struct{}{} }()
		go func() { defer GinkgoRecover(); pool.EraseAndClose(sess.Key()); done <- struct{}{} }()

		Eventually(done).Should(Receive())
		Eventually(done).Should(Receive())

		_, ok := pool.GetSocket(sess.Key())
		Expect(ok).To(BeFalse())
	})
})
