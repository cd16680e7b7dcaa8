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
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestRecorderCapturesFields(t *testing.T) {
	rec := NewRecorder()
	child := rec.With(String("component", "modca"))
	child.Warn("name truncated", String("name", "TOOLONGNAME"), Int("limit", 8))
	rec.Info("done")

	entries := rec.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	w := rec.Warnings()
	if len(w) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(w))
	}
	if w[0].Fields["component"] != "modca" || w[0].Fields["name"] != "TOOLONGNAME" || w[0].Fields["limit"] != 8 {
		t.Fatalf("unexpected fields: %+v", w[0].Fields)
	}
	rec.Reset()
	if len(rec.Entries()) != 0 {
		t.Fatalf("reset did not clear entries")
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	l.With(Bool("flag", true)).Error("boom", Error("err", errors.New("bad")))
	out := buf.String()
	if !strings.Contains(out, "boom") || !strings.Contains(out, "flag=true") || !strings.Contains(out, "err=bad") {
		t.Fatalf("unexpected slog output: %q", out)
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger for nil")
	}
	rec := NewRecorder()
	if OrNop(rec) != Logger(rec) {
		t.Fatalf("expected same logger back")
	}
}
