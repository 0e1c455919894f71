package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/grabbot/core/config"
	"github.com/m3rciful/grabbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Middlewares replaces DefaultMiddlewares when non-nil.
	Middlewares []Middleware
	Routes      []Route

	// Background tasks run for the lifetime of the bot and receive its context.
	Background []func(ctx context.Context)

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot      *tele.Bot
	Registry *Registry
}

// RunTelegram composes and runs a Telegram bot until the provided context is done.
// Webhook mode serves updates over HTTP and processes each one synchronously;
// longpoll mode keeps telebot's own polling loop.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	webhook := cfg.Telegram.RunMode == coreconfig.RunModeWebhook

	settings := tele.Settings{
		Token:       cfg.Telegram.Token,
		Client:      BuildHTTPClient(DefaultClientTimeout),
		Synchronous: webhook,
		OnError:     logHandlerError,
	}
	if !webhook {
		settings.Poller = BuildPoller(cfg.Telegram.LongPollTimeoutSeconds)
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "bot.ready",
		slog.String("username", bot.Me.Username),
		slog.Duration("duration", time.Since(buildStart)),
	)

	mws := opts.Middlewares
	if mws == nil {
		mws = DefaultMiddlewares(ctx, cfg, nil)
	}
	for _, mw := range mws {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}
	InitBotCommands(bot, reg)

	rt := Runtime{Bot: bot, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	for _, task := range opts.Background {
		if task != nil {
			go task(bgCtx)
		}
	}

	if webhook {
		err = runWebhook(ctx, bot, cfg.Webhook)
	} else {
		err = runLongPoll(ctx, bot)
	}
	stopBackground()

	if opts.OnStop != nil {
		if stopErr := opts.OnStop(context.WithoutCancel(ctx), rt); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runWebhook(ctx context.Context, bot *tele.Bot, wh coreconfig.WebhookConfig) error {
	if err := bot.RemoveWebhook(true); err != nil {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "webhook.remove",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	if err := bot.SetWebhook(&tele.Webhook{Endpoint: &tele.WebhookEndpoint{PublicURL: wh.URL}}); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}

	addr := ListenAddr(wh.Listen, wh.Port)
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "mode",
		slog.String("mode", coreconfig.RunModeWebhook),
		slog.String("listen", addr),
		slog.String("public_url", wh.URL),
	)
	h := NewWebhookHandler(bot, WebhookHandlerOptions{Path: wh.Path, RPS: wh.RPS, Burst: wh.Burst})
	return ServeWebhook(ctx, addr, h)
}

func runLongPoll(ctx context.Context, bot *tele.Bot) error {
	if err := bot.RemoveWebhook(false); err != nil {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "webhook.remove",
			slog.String("status", "fail"),
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.String("err", err.Error()),
		)
	}
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "mode", slog.String("mode", coreconfig.RunModeLongpoll))

	done := make(chan struct{})
	go func() {
		bot.Start()
		close(done)
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

func logHandlerError(err error, c tele.Context) {
	attrs := []slog.Attr{
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	}
	if c != nil {
		attrs = append(attrs, slog.Int("update_id", c.Update().ID))
		if sender := c.Sender(); sender != nil {
			attrs = append(attrs, slog.Int64("user_id", sender.ID))
		}
	}
	logger.TG.LogAttrs(context.Background(), slog.LevelError, "handler.error", attrs...)
}
