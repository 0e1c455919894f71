// Package app wires configuration, media and conversation into a runnable bot.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/m3rciful/grabbot/core/bootstrap"
	"github.com/m3rciful/grabbot/core/logger"
	tg "github.com/m3rciful/grabbot/core/telegram"
	"github.com/m3rciful/grabbot/core/telegram/commands"
	"github.com/m3rciful/grabbot/core/telegram/helpers"
	"github.com/m3rciful/grabbot/core/telegram/router"
	"github.com/m3rciful/grabbot/core/telegram/state"
	"github.com/m3rciful/grabbot/internal/config"
	"github.com/m3rciful/grabbot/internal/conversation"
	"github.com/m3rciful/grabbot/internal/locale"
	"github.com/m3rciful/grabbot/internal/media"

	tele "gopkg.in/telebot.v4"
)

const sweepInterval = 10 * time.Minute

// App is the assembled grabbot.
type App struct {
	ctx      context.Context
	cfg      *config.Config
	sessions state.Manager
	fetcher  *media.YtDlp
	janitor  *media.Janitor
	conv     *conversation.Service
}

// New builds the app from a normalized config. ctx bounds background work
// and every media job.
func New(ctx context.Context, cfg *config.Config) *App {
	sessions := state.NewMemoryManager()
	fetcher := media.NewYtDlp(media.Options{
		Bin:     cfg.Media.YtDlpPath,
		FFmpeg:  cfg.Media.FFmpegPath,
		Dir:     cfg.Media.ScratchDir,
		Timeout: cfg.Media.Timeout,
	})
	conv := conversation.NewService(sessions, fetcher, cfg.MaxUploadBytes())
	conv.RegisterStates()
	return &App{
		ctx:      ctx,
		cfg:      cfg,
		sessions: sessions,
		fetcher:  fetcher,
		janitor:  media.NewJanitor(cfg.Media.ScratchDir, cfg.Media.JanitorMaxAge),
		conv:     conv,
	}
}

// Checks lists the startup prerequisites: a writable scratch dir and yt-dlp.
// ffmpeg is only warned about since yt-dlp may find its own.
func Checks(cfg *config.Config) []bootstrap.Check {
	ffmpeg := cfg.Media.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return []bootstrap.Check{
		bootstrap.EnsureDir("scratch_dir", cfg.Media.ScratchDir),
		bootstrap.Executable("yt-dlp", cfg.Media.YtDlpPath, true),
		bootstrap.Executable("ffmpeg", ffmpeg, false),
	}
}

// Bootstrap initializes logging, runs the startup checks and builds the app.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	if err := bootstrap.Run(ctx, bootstrap.Options{
		Config: cfg.CoreConfig(),
		Checks: Checks(cfg),
	}); err != nil {
		return nil, err
	}
	return New(ctx, cfg), nil
}

// Registry declares the commands, their keyboard aliases and the callbacks.
func (a *App) Registry() (*tg.Registry, error) {
	h := a.conv.Handle
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h(a.conv.Start),
		Description: "Start and choose a language",
	})
	reg.RegisterCommand("/language", commands.Command{
		Handler:     h(a.conv.ChangeLanguage),
		Description: "Change the language",
	})
	reg.RegisterCommand("/download", commands.Command{
		Handler:     h(a.conv.Download),
		Description: "Download a video",
		Aliases:     locale.Labels(locale.BtnDownload),
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h(a.conv.Cancel),
		Description: "Cancel the current download",
		Aliases:     append(locale.Labels(locale.BtnCancel), "Cancel ❌"),
	})

	if err := reg.RegisterCallback(conversation.CallbackLanguage, h(a.conv.ChooseLanguage)); err != nil {
		return nil, err
	}
	if err := reg.RegisterCallback(conversation.CallbackQuality, h(a.conv.Quality)); err != nil {
		return nil, err
	}
	reg.SetTextFallback(h(a.conv.Fallback))
	reg.SetCallbackNotFound(h(a.conv.Expired))
	return reg, nil
}

// TelegramRunOptions assembles everything RunTelegram needs.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg, err := a.Registry()
	if err != nil {
		return tg.RunOptions{}, err
	}
	core := a.cfg.CoreConfig()

	mws := append(tg.DefaultMiddlewares(a.ctx, core, a.onLimited),
		tg.Middleware{Name: "session", Use: state.WithSession(a.sessions)},
	)
	routes := append(router.CommandRoutes(reg),
		router.CallbackRoute(reg),
		router.TextRoute(a.sessions, reg),
	)

	return tg.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: mws,
		Routes:      routes,
		Background: []func(ctx context.Context){
			func(ctx context.Context) { a.janitor.Run(ctx, 0) },
			func(ctx context.Context) { state.RunSweeper(ctx, a.sessions, a.cfg.SessionTTL, sweepInterval) },
		},
		OnStart: a.onStart,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	attrs := []slog.Attr{
		slog.String("scratch_dir", a.fetcher.Dir()),
		slog.String("max_upload", humanize.IBytes(uint64(a.cfg.MaxUploadBytes()))),
		slog.Duration("timeout", a.cfg.Media.Timeout),
	}
	if rt.Bot != nil && rt.Bot.Me != nil {
		attrs = append(attrs, slog.String("bot", rt.Bot.Me.Username))
	}
	logger.Media.LogAttrs(ctx, slog.LevelInfo, "media.config", attrs...)
	return nil
}

func (a *App) onLimited(c tele.Context) error {
	lang := locale.Default
	if s := c.Sender(); s != nil {
		lang, _ = locale.Parse(a.sessions.Language(s.ID))
	}
	if c.Callback() != nil {
		return helpers.Answer(c, locale.T(locale.RateLimited, lang))
	}
	return helpers.SendText(c, locale.T(locale.RateLimited, lang))
}
