package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/grabbot/core/buildinfo"
	coreconfig "github.com/m3rciful/grabbot/core/config"
)

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	closed     bool

	logSink    *lineSink
	logClosers []io.Closer

	levelVar slog.LevelVar

	debugSampler  = &sampleRatio{}
	traceOverride bool

	// L is the base logger.
	L = slog.New(discardHandler{})

	// TG logs Telegram transport events.
	TG = L
	// TWire logs Telegram wiring steps.
	TWire = L
	// HTTP logs webhook server events.
	HTTP = L
	// Media logs fetch, transcode and delivery of media jobs.
	Media = L
	// Conv logs conversation state transitions.
	Conv = L
)

// InitLogger configures the global structured logger. Only the first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		var logging coreconfig.LoggingConfig
		if cfg != nil {
			logging = cfg.Logging
		}
		levelVar.Set(selectLevel(logging))

		debugSampler.set(parseDebugSample(logging))
		traceOverride = isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE"))

		outputs, closers := buildOutputs(logging)
		logClosers = closers
		logSink = newLineSink(outputs, defaultQueueLines)

		handler := newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   logSink,
			format:   selectFormat(logging),
			keyOrder: selectKeyOrder(logging),
		})

		L = slog.New(handler)
		slog.SetDefault(L)
		wireComponents()
		logStartup(logging)
	})
	return nil
}

func wireComponents() {
	TG = L.With("component", "tg")
	TWire = L.With("component", "tg.wire")
	HTTP = L.With("component", "http")
	Media = L.With("component", "media")
	Conv = L.With("component", "conversation")
}

func logStartup(logging coreconfig.LoggingConfig) {
	L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", selectProfile(logging)),
	)
}

// DefaultDrainTimeout bounds how long Shutdown waits for queued lines.
const DefaultDrainTimeout = 5 * time.Second

// Shutdown logs the sink counters, drains queued lines until ctx ends and
// closes opened files. Calls after the first are no-ops.
func Shutdown(ctx context.Context) error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if closed {
		return nil
	}
	closed = true
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	if logSink != nil {
		written, dropped := logSink.Stats()
		level := slog.LevelInfo
		if dropped > 0 {
			level = slog.LevelWarn
		}
		L.LogAttrs(ctx, level, "logger.shutdown",
			slog.String("component", "app"),
			slog.Int64("lines", written),
			slog.Int64("dropped", dropped),
		)
		if err := logSink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range logClosers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func selectFormat(logging coreconfig.LoggingConfig) logFormat {
	switch strings.ToLower(strings.TrimSpace(logging.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	switch strings.ToLower(logging.Profile) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func selectKeyOrder(logging coreconfig.LoggingConfig) []string {
	raw := strings.TrimSpace(logging.KeysOrder)
	if raw == "" || raw == "default" {
		return append([]string(nil), defaultKeyOrder...)
	}
	var order []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			order = append(order, trimmed)
		}
	}
	if len(order) == 0 {
		return append([]string(nil), defaultKeyOrder...)
	}
	return order
}

func selectLevel(logging coreconfig.LoggingConfig) slog.Level {
	switch strings.ToLower(strings.TrimSpace(logging.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func selectProfile(logging coreconfig.LoggingConfig) string {
	if profile := strings.TrimSpace(logging.Profile); profile != "" {
		return strings.ToLower(profile)
	}
	return "prod"
}

// buildOutputs always writes to stdout and tees into Dir/BotFile when both are set.
// A file sink that cannot be opened is reported and skipped.
func buildOutputs(logging coreconfig.LoggingConfig) ([]io.Writer, []io.Closer) {
	writers := []io.Writer{os.Stdout}
	dir := strings.TrimSpace(logging.Dir)
	file := strings.TrimSpace(logging.BotFile)
	if dir == "" || file == "" {
		return writers, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: failed to create log dir %s: %v", dir, err)
		return writers, nil
	}
	path := filepath.Join(dir, file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: failed to open log file %s: %v", path, err)
		return writers, nil
	}
	return append(writers, f), []io.Closer{f}
}

// LogEvent logs attrs with a leading event attribute on logg, falling back to the context logger.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component constructs a logger scoped to the provided component attribute.
func Component(name string) *slog.Logger {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return L
	}
	return L.With("component", trimmed)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

// parseDebugSample reads DebugSample as "n/d" (keep n of every d) or "d"
// (keep one of every d). Empty means 1/50; "0" or "off" keeps everything.
func parseDebugSample(logging coreconfig.LoggingConfig) (keep, every int) {
	raw := strings.ToLower(strings.TrimSpace(logging.DebugSample))
	switch raw {
	case "":
		return 1, 50
	case "0", "off", "all":
		return 0, 0
	}
	num, den, ratio := strings.Cut(raw, "/")
	if !ratio {
		num, den = "1", raw
	}
	keep, err1 := strconv.Atoi(strings.TrimSpace(num))
	every, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil || keep <= 0 || every <= 0 {
		return 1, 50
	}
	return min(keep, every), every
}

// sampleRatio lets keep out of every events through; zero values pass everything.
type sampleRatio struct {
	keep, every atomic.Int64
	n           atomic.Int64
}

func (r *sampleRatio) set(keep, every int) {
	r.keep.Store(int64(keep))
	r.every.Store(int64(every))
	r.n.Store(0)
}

func (r *sampleRatio) allow() bool {
	keep, every := r.keep.Load(), r.every.Load()
	if keep <= 0 || every <= 0 {
		return true
	}
	return (r.n.Add(1)-1)%every < keep
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether debug-level details should be logged for high-volume events.
func ShouldSampleDebug() bool {
	if traceOverride {
		return true
	}
	return debugSampler.allow()
}

// discardHandler keeps package loggers usable before InitLogger, e.g. in tests.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
