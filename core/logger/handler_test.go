package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	read := func() string {
		if err := aw.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		return strings.TrimSpace(buf.String())
	}
	return slog.New(handler), read
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", "service.onboarding"), slog.LevelInfo, "step.advanced",
		slog.String("status", "OK"),
		slog.String("from_step", "await_email"),
	)

	tokens := strings.Split(read(), " ")
	expected := []string{"ts=", "level=INFO", "component=service.onboarding", "event=step.advanced", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "from_step=await_email"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%v)", len(tokens), tokens)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONCompactRID(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	rawRID := "12:34:56"
	ctx := WithRID(context.Background(), rawRID)

	LogEvent(ctx, log, slog.LevelError, "upsert.failed",
		slog.String("err", "boom"),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	line := read()
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"app"`, `"event":"upsert.failed"`, `"rid":"` + CompactRID(rawRID) + `"`, `"rid_full":"` + rawRID + `"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
	if !strings.Contains(line, `"duration_ms":2`) {
		t.Fatalf("expected rounded duration_ms, got %s", line)
	}
}

func TestStructuredHandlerKVQuotesAndPrunes(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.Info("", slog.String("event", "text"), slog.String("payload", "hello world"), slog.String("username", ""))

	line := read()
	if !strings.Contains(line, `payload="hello world"`) {
		t.Fatalf("expected quoted payload, got %s", line)
	}
	if strings.Contains(line, "username=") {
		t.Fatalf("empty attrs must be pruned, got %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("35:36:71"); got != "z.10.1z" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID should keep unknown formats, got %q", got)
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "a\x00b\u200bc\td"
	if got := SanitizeLimit(in, 10); got != "abc\td" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("SanitizeLimit runes = %q", got)
	}
}
