package httpserver_test

import (
	"strings"
	"testing"

	"github.com/sabouaram/appserver/httpserver"
)

func TestResponseToString(t *testing.T) {
	r := httpserver.NewResponse(200).SetBody("<h1>Hi</h1>")
	r.Header["Content-Type"] = "text/html"

	out := r.ToString()

	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("unexpected status line: %q", out)
	}
	if !strings.Contains(out, "Content-Length: 11\r\n") {
		t.Fatalf("expected Content-Length header, got %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\n<h1>Hi</h1>") {
		t.Fatalf("expected blank line then body, got %q", out)
	}
}

func TestResponseDefaultMessage(t *testing.T) {
	if msg := httpserver.NewResponse(418).ToString(); !strings.Contains(msg, "418 Unknown") {
		t.Fatalf("expected 'Unknown' default message, got %q", msg)
	}
}

// Parse/emit idempotence (headers): parse(R.toString()).headers restores
// each explicitly set header key/value pair.
func TestParseEmitHeaderIdempotence(t *testing.T) {
	r := httpserver.NewResponse(200).SetBody("body")
	r.SetHeader("X-Custom", "value")
	r.SetHeader("X-Other", "another value")

	wire := r.ToString()
	// Reuse the request parser against the response wire form: both share
	// the same "lines up to a blank line are headers" grammar.
	req := httpserver.ParseRequest(strings.Replace(wire, "HTTP/1.1 200 OK", "GET / HTTP/1.1", 1))

	for k, v := range r.Header {
		if req.Header[k] != v {
			t.Errorf("header %q: got %q, want %q", k, req.Header[k], v)
		}
	}
}
