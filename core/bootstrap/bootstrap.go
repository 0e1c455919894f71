package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/grabbot/core/config"
	"github.com/m3rciful/grabbot/core/logger"
)

// Check verifies one external prerequisite before the bot starts.
type Check struct {
	Name string
	// Required checks abort startup on failure; others only log a warning.
	Required bool
	Run      func(ctx context.Context) error
}

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Checks     []Check
}

// Run initializes the logger and runs the startup checks in order.
func Run(ctx context.Context, opts Options) error {
	if opts.Config == nil {
		return fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	for _, check := range opts.Checks {
		if check.Run == nil {
			continue
		}
		start := time.Now()
		err := check.Run(ctx)
		attrs := []slog.Attr{
			slog.String("check", check.Name),
			slog.Duration("duration", time.Since(start)),
		}
		if err == nil {
			logger.LogEvent(ctx, logger.L, slog.LevelInfo, "bootstrap.check", append(attrs, slog.String("status", "ok"))...)
			continue
		}
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		if check.Required {
			logger.LogEvent(ctx, logger.L, slog.LevelError, "bootstrap.check", attrs...)
			return fmt.Errorf("bootstrap: %s: %w", check.Name, err)
		}
		logger.LogEvent(ctx, logger.L, slog.LevelWarn, "bootstrap.check", attrs...)
	}
	return nil
}
