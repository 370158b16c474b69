package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, SpanWrite)
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := NewSlogLogger(slog.New(h)).With(String("component", "writer"))

	log.Warn("substituted page format", String("format", "B99"), Int("page", 3), Float("k", 2.83), Error("err", errors.New("boom")))

	out := buf.String()
	for _, want := range []string{"level=WARN", "component=writer", "format=B99", "page=3", "k=2.83", "err=boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %q", out, want)
		}
	}
}

func TestNopLoggerWith(t *testing.T) {
	var l Logger = NopLogger{}
	l = l.With(String("a", "b"))
	l.Info("ignored")
	if _, ok := l.(NopLogger); !ok {
		t.Fatalf("With should keep a NopLogger, got %T", l)
	}
}
