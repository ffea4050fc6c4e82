package flags

import (
	"strings"
	"testing"
)

func TestNewApp(t *testing.T) {
	app := NewApp("0123456789abcdef", "20261018", "test tool")
	if app.Usage != "test tool" {
		t.Fatalf("wrong usage: %q", app.Usage)
	}
	if !strings.HasSuffix(app.Version, "-01234567-20261018") {
		t.Fatalf("version lacks commit: %q", app.Version)
	}
}
