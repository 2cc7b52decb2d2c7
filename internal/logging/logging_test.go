package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("tick", "op", "kpis")
	if !strings.Contains(buf.String(), `"op":"kpis"`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}

	buf.Reset()
	l, err = New(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	if _, err := New(&buf, "loud", "text"); err == nil {
		t.Fatalf("expected error for bad level")
	}
	if _, err := New(&buf, "info", "xml"); err == nil {
		t.Fatalf("expected error for bad format")
	}
}

func TestContextRoundTrip(t *testing.T) {
	l, _ := New(&bytes.Buffer{}, "info", "text")
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatalf("logger not retrieved from context")
	}
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected default logger")
	}
}
