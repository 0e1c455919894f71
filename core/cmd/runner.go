package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/grabbot/core/config"
	"github.com/m3rciful/grabbot/core/logger"
	coretelegram "github.com/m3rciful/grabbot/core/telegram"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	// ConfigPath is an optional YAML file; empty means environment only.
	ConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	// ShutdownLogger drains log output after the bot has stopped; the context
	// carries DrainTimeout.
	ShutdownLogger func(ctx context.Context) error
	DrainTimeout   time.Duration
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run loads configuration, bootstraps the Telegram app, and runs the bot until SIGINT or SIGTERM.
func Run(ctx context.Context, opts Options) error {
	if opts.LoadConfig == nil {
		return fmt.Errorf("cmd: LoadConfig is required")
	}
	if opts.Bootstrap == nil {
		return fmt.Errorf("cmd: Bootstrap is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if opts.ConfigPath != "" {
		log.Printf("loading config: %s", opts.ConfigPath)
	}
	cfg, err := opts.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	startedAt := time.Now()
	application, err := opts.Bootstrap(ctx, cfg)

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	drain := opts.DrainTimeout
	if drain <= 0 {
		drain = logger.DefaultDrainTimeout
	}
	defer func() {
		// the run context is already cancelled by the signal here
		drainCtx, cancelDrain := context.WithTimeout(context.WithoutCancel(ctx), drain)
		defer cancelDrain()
		if err := shutdownLogger(drainCtx); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}

	app := logger.Component("app")
	prevStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if prevStart != nil {
			if err := prevStart(ctx, rt); err != nil {
				return err
			}
		}
		app.LogAttrs(ctx, slog.LevelInfo, "ready",
			slog.Duration("startup_duration", time.Since(startedAt)),
		)
		return nil
	}
	prevStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		app.LogAttrs(ctx, slog.LevelInfo, "shutdown")
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}
