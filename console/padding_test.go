package console_test

import (
	"testing"

	"github.com/sabouaram/appserver/console"
)

func TestPadLeft(t *testing.T) {
	if got := console.PadLeft("5", 5, "0"); got != "00005" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := console.PadRight("ab", 5, " "); got != "ab   " {
		t.Fatalf("unexpected: %q", got)
	}
}
