package console_test

import (
	"strings"
	"testing"

	"github.com/sabouaram/appserver/console"
	"github.com/sabouaram/appserver/logger"
)

func TestExecutorDispatch(t *testing.T) {
	e := console.NewExecutor()

	var gotArgs []string
	called := false
	e.Register("Reload", func(args []string) error {
		called = true
		gotArgs = args
		return nil
	})

	e.Dispatch("RELOAD now please", nil)

	if !called {
		t.Fatal("expected handler to be called regardless of case")
	}
	if strings.Join(gotArgs, " ") != "now please" {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
}

func TestExecutorUnknownCommandWarns(t *testing.T) {
	e := console.NewExecutor()
	l := logger.New()

	var warned string
	// logger doesn't expose a hook for capturing messages directly, so
	// redirect output and check the rendered line instead.
	buf := &captureWriter{}
	l.SetOutput(buf)

	e.Dispatch("frobnicate", l)

	warned = buf.String()
	if !strings.Contains(warned, "unknown command") {
		t.Fatalf("expected warning about unknown command, got %q", warned)
	}
}

func TestExecutorEmptyLineNoop(t *testing.T) {
	e := console.NewExecutor()
	called := false
	e.Register("x", func(args []string) error {
		called = true
		return nil
	})

	e.Dispatch("   ", nil)
	if called {
		t.Fatal("expected no dispatch on blank line")
	}
}

type captureWriter struct {
	data []byte
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

func (c *captureWriter) String() string {
	return string(c.data)
}
