package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/grabbot/core/config"
)

func newTestHandler(format logFormat) (*structuredHandler, *lineSink, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	aw := newLineSink([]io.Writer{buf}, 64)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return h, aw, buf
}

func drain(t *testing.T, aw *lineSink, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	h, aw, buf := newTestHandler(formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(h).With("component", "media")
	LogEvent(ctx, log, slog.LevelInfo, "fetch.done",
		slog.String("status", "OK"),
		slog.String("quality", "hd"),
	)

	tokens := strings.Split(drain(t, aw, buf), " ")
	expected := []string{"ts=", "level=INFO", "component=media", "event=fetch.done", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "quality=hd"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%v)", len(tokens), tokens)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	h, aw, buf := newTestHandler(formatJSON)
	ctx := WithJobID(WithRID(context.Background(), "rid-json"), "job-1")

	log := slog.New(h).With("component", "conversation")
	LogEvent(ctx, log, slog.LevelError, "send.failed",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)

	line := drain(t, aw, buf)
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"conversation"`, `"event":"send.failed"`, `"status":"fail"`, `"rid":"rid-json"`, `"job_id":"job-1"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	h, aw, buf := newTestHandler(formatKV)
	rawRID := "123:456:789"
	LogEvent(WithRID(context.Background(), rawRID), slog.New(h), slog.LevelInfo, "rid.test")

	line := drain(t, aw, buf)
	if !strings.Contains(line, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	h, aw, buf := newTestHandler(formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(context.Background(), rawRID), slog.New(h), slog.LevelInfo, "rid.test")

	line := drain(t, aw, buf)
	if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
	if !strings.Contains(line, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano in JSON output, got %s", line)
	}
}

func TestStructuredHandlerDurationsAndGroups(t *testing.T) {
	h, aw, buf := newTestHandler(formatKV)
	log := slog.New(h).WithGroup("ytdlp")
	log.Info("exec", slog.Duration("took", 1500*time.Microsecond), slog.String("url", ""))

	line := drain(t, aw, buf)
	if !strings.Contains(line, "ytdlp.took_ms=2") {
		t.Fatalf("expected grouped duration in ms, got %s", line)
	}
	if strings.Contains(line, "url=") {
		t.Fatalf("empty values should be pruned, got %s", line)
	}
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	h, aw, buf := newTestHandler(formatKV)
	slog.New(h).Info("x", slog.String("outcome", "maybe"), slog.String("status", "weird"))

	line := drain(t, aw, buf)
	if strings.Contains(line, "outcome=") {
		t.Fatalf("unknown outcome should be dropped, got %s", line)
	}
	if !strings.Contains(line, "status=weird") {
		t.Fatalf("unknown status should pass through, got %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	cases := map[string]string{
		"35:36:0":   "z.10.0",
		"not-a-rid": "not-a-rid",
		"1:x:2":     "1:x:2",
	}
	for in, want := range cases {
		if got := CompactRID(in); got != want {
			t.Errorf("CompactRID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "hi\u200b\x07 there\n"
	if got := Sanitize(in); got != "hi there\n" {
		t.Fatalf("Sanitize = %q", got)
	}
	if got := SanitizeLimit("مرحبا بك", 5); got != "مرحبا" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}

func TestSampleRatio(t *testing.T) {
	r := &sampleRatio{}
	r.set(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if r.allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}

	r.set(0, 0)
	if !r.allow() {
		t.Fatal("zero ratio must keep everything")
	}
}

func TestParseDebugSample(t *testing.T) {
	cases := map[string][2]int{
		"":     {1, 50},
		"10":   {1, 10},
		"2/5":  {2, 5},
		"9/3":  {3, 3},
		"off":  {0, 0},
		"junk": {1, 50},
	}
	for in, want := range cases {
		keep, every := parseDebugSample(coreconfig.LoggingConfig{DebugSample: in})
		if keep != want[0] || every != want[1] {
			t.Errorf("parseDebugSample(%q) = %d/%d, want %d/%d", in, keep, every, want[0], want[1])
		}
	}
}

// blockingWriter holds every write until release is closed.
type blockingWriter struct {
	release chan struct{}
	buf     bytes.Buffer
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return w.buf.Write(p)
}

func TestLineSinkDropsWhenFullAndDrainsOnClose(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	s := newLineSink([]io.Writer{w}, 2)

	// the first flush blocks the loop, so the queue fills up
	for i := 0; i < 50; i++ {
		if err := s.Write([]byte("line\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	close(w.release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	written, dropped := s.Stats()
	if written+dropped != 50 {
		t.Fatalf("written %d + dropped %d != 50", written, dropped)
	}
	if dropped < 47 {
		t.Fatalf("dropped = %d, want at least 47 with a queue of 2", dropped)
	}
	if got := strings.Count(w.buf.String(), "line"); int64(got) != written {
		t.Fatalf("output has %d lines, stats say %d", got, written)
	}

	if err := s.Write([]byte("late\n")); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	if _, d := s.Stats(); d != dropped+1 {
		t.Fatalf("late line not counted as dropped")
	}
}
