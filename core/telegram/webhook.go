package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	coreconfig "github.com/m3rciful/grabbot/core/config"
	"github.com/m3rciful/grabbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	maxUpdateBytes       = 1 << 20
	webhookReadTimeout   = 15 * time.Second
	webhookShutdownGrace = 10 * time.Second
)

// UpdateProcessor consumes one decoded update; *tele.Bot satisfies it.
type UpdateProcessor interface {
	ProcessUpdate(u tele.Update)
}

// WebhookHandlerOptions configures NewWebhookHandler.
type WebhookHandlerOptions struct {
	Path  string
	RPS   float64
	Burst int
}

// NewWebhookHandler returns the HTTP surface of webhook mode: POST on Path
// decodes a Telegram update and drives it to completion before answering,
// GET / reports liveness. The POST route always answers 200 "ok", even for
// malformed bodies, so Telegram never retries a delivery we already saw.
// With RPS > 0 requests wait for a token instead of being rejected.
func NewWebhookHandler(proc UpdateProcessor, opts WebhookHandlerOptions) http.Handler {
	path := opts.Path
	if path == "" {
		path = coreconfig.DefaultWebhookPath
	}
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(opts.Burst, 1))
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(accessLog)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeOK(w, "🤖 Telegram bot webhook is live!")
	})
	r.Post(path, func(w http.ResponseWriter, req *http.Request) {
		defer writeOK(w, "ok")
		ctx := req.Context()

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				logger.HTTP.LogAttrs(ctx, slog.LevelWarn, "webhook.throttle",
					slog.String("status", "rate_limited"),
					slog.String("err", err.Error()),
				)
				return
			}
		}

		var upd tele.Update
		if err := json.NewDecoder(io.LimitReader(req.Body, maxUpdateBytes)).Decode(&upd); err != nil {
			logger.HTTP.LogAttrs(ctx, slog.LevelWarn, "webhook.decode",
				slog.String("status", "skip"),
				slog.String("err", err.Error()),
			)
			return
		}
		processSafely(ctx, proc, upd)
	})
	return r
}

func processSafely(ctx context.Context, proc UpdateProcessor, upd tele.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.HTTP.LogAttrs(ctx, slog.LevelError, "webhook.panic",
				slog.String("status", "fail"),
				slog.Int("update_id", upd.ID),
				slog.Any("err", rec),
			)
		}
	}()
	proc.ProcessUpdate(upd)
}

func writeOK(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.HTTP.LogAttrs(r.Context(), slog.LevelDebug, "http.request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Int("http_code", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// ServeWebhook listens on addr until ctx is done, then drains in-flight updates.
func ServeWebhook(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: webhookReadTimeout,
		ReadTimeout:       webhookReadTimeout,
		// no WriteTimeout: a POST stays open while its media job runs
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), webhookShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
