package httpserver_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sabouaram/appserver/httpserver"
	"github.com/sabouaram/appserver/logger"
	"github.com/sabouaram/appserver/wsocket"
)

type fakeHandler struct {
	heavy bool
	code  int
	body  string
}

func (f *fakeHandler) Handle(req *httpserver.Request) *httpserver.Response {
	return httpserver.NewResponse(f.code).SetBody(f.body)
}
func (f *fakeHandler) IsHeavy() bool                                { return f.heavy }
func (f *fakeHandler) OnLoad() error                                { return nil }
func (f *fakeHandler) SetLogger(logger.Logger) httpserver.Handler   { return f }
func (f *fakeHandler) SetWSPool(wsocket.Pool) httpserver.Handler    { return f }

func TestCatalogDispatchRegistered(t *testing.T) {
	builtin := &fakeHandler{code: 404, body: "builtin"}
	c := httpserver.NewHandlerCatalog(builtin, nil)
	c.Reload(map[string]httpserver.Handler{
		"test": &fakeHandler{code: 200, body: "<h1>Test passed!</h1>"},
	})

	desc := c.Dispatch(&httpserver.Request{URI: "/test"})
	resp := desc.Func(&httpserver.Request{URI: "/test"})

	if resp.Code != 200 || resp.Body != "<h1>Test passed!</h1>" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCatalogDispatchFallsBackToBuiltin(t *testing.T) {
	builtin := &fakeHandler{code: 404, body: "builtin"}
	c := httpserver.NewHandlerCatalog(builtin, nil)

	desc := c.Dispatch(&httpserver.Request{URI: "/nope"})
	resp := desc.Func(&httpserver.Request{URI: "/nope"})

	if resp.Body != "builtin" {
		t.Fatalf("expected builtin fallback, got %+v", resp)
	}
}

func TestCatalogDefaultNamedEntry(t *testing.T) {
	builtin := &fakeHandler{code: 404, body: "builtin"}
	c := httpserver.NewHandlerCatalog(builtin, nil)
	named := &fakeHandler{code: 200, body: "named default"}
	c.Reload(map[string]httpserver.Handler{"app": named})
	c.SetDefault("app")

	desc := c.Dispatch(&httpserver.Request{URI: "/unmatched"})
	resp := desc.Func(&httpserver.Request{URI: "/unmatched"})

	if resp.Body != "named default" {
		t.Fatalf("expected named default handler, got %+v", resp)
	}
}

func TestCatalogMissingNamedDefaultWarnsAndFallsBack(t *testing.T) {
	builtin := &fakeHandler{code: 404, body: "builtin"}
	l := logger.New()
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	c := httpserver.NewHandlerCatalog(builtin, l)
	c.SetDefault("missing")

	desc := c.Dispatch(&httpserver.Request{URI: "/unmatched"})
	resp := desc.Func(&httpserver.Request{URI: "/unmatched"})

	if resp.Body != "builtin" {
		t.Fatalf("expected builtin fallback on missing default, got %+v", resp)
	}
	if !strings.Contains(buf.String(), "not found in catalog") {
		t.Fatalf("expected a warning about the missing default handler, got %q", buf.String())
	}
}

func TestCatalogUseBuiltinDefaultOverridesNamedDefault(t *testing.T) {
	builtin := &fakeHandler{code: 404, body: "builtin"}
	c := httpserver.NewHandlerCatalog(builtin, nil)
	named := &fakeHandler{code: 200, body: "named default"}
	c.Reload(map[string]httpserver.Handler{"app": named})
	c.SetDefault("app")
	c.SetUseBuiltinDefault(true)

	desc := c.Dispatch(&httpserver.Request{URI: "/unmatched"})
	resp := desc.Func(&httpserver.Request{URI: "/unmatched"})

	if resp.Body != "builtin" {
		t.Fatalf("expected builtin default to take priority over custom_default_handler, got %+v", resp)
	}
}

func TestCatalogReloadIsAtomic(t *testing.T) {
	builtin := &fakeHandler{code: 404, body: "builtin"}
	c := httpserver.NewHandlerCatalog(builtin, nil)
	c.Reload(map[string]httpserver.Handler{"a": &fakeHandler{code: 200, body: "v1"}})

	desc := c.Dispatch(&httpserver.Request{URI: "/a"})

	// Reload after the lookup must not affect the already-obtained
	// descriptor (O5): in-flight requests keep their already-bound
	// instance.
	c.Reload(map[string]httpserver.Handler{"a": &fakeHandler{code: 200, body: "v2"}})

	resp := desc.Func(&httpserver.Request{URI: "/a"})
	if resp.Body != "v1" {
		t.Fatalf("expected pre-reload instance to still be bound, got %+v", resp)
	}

	// A fresh dispatch after reload sees the new catalog.
	resp2 := c.Dispatch(&httpserver.Request{URI: "/a"}).Func(&httpserver.Request{URI: "/a"})
	if resp2.Body != "v2" {
		t.Fatalf("expected new catalog to be visible to fresh lookups, got %+v", resp2)
	}
}
