// Package conversation drives the link → quality → delivery dialogue.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/m3rciful/grabbot/core/logger"
	"github.com/m3rciful/grabbot/core/telegram/state"
	"github.com/m3rciful/grabbot/internal/locale"
	"github.com/m3rciful/grabbot/internal/media"

	tele "gopkg.in/telebot.v4"
)

// Conversation states beyond state.StateIdle.
const (
	StateAwaitingLink    state.State = "awaiting_link"
	StateAwaitingQuality state.State = "awaiting_quality"
)

const keyPendingURL = "pending_url"

// Service owns the per-user dialogue. Handlers never return delivery errors:
// the user gets a localized message and the cycle ends in idle.
type Service struct {
	sessions state.Manager
	fetcher  media.Fetcher
	maxBytes int64
}

// NewService wires the session store and media fetcher.
func NewService(sessions state.Manager, fetcher media.Fetcher, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = media.DefaultMaxBytes
	}
	return &Service{sessions: sessions, fetcher: fetcher, maxBytes: maxBytes}
}

// Handle adapts a conversation step to a telebot handler.
func (s *Service) Handle(step func(Peer) error) tele.HandlerFunc {
	return func(c tele.Context) error { return step(NewPeer(c)) }
}

// RegisterStates binds the text handlers of every non-idle state.
func (s *Service) RegisterStates() {
	s.sessions.RegisterHandler(StateAwaitingLink, s.Handle(s.Link))
	s.sessions.RegisterHandler(StateAwaitingQuality, s.Handle(s.QualityText))
}

func (s *Service) lang(p Peer) locale.Lang {
	l, _ := locale.Parse(s.sessions.Language(p.UserID()))
	return l
}

func (s *Service) say(p Peer, key string, markup *tele.ReplyMarkup) error {
	return p.Reply(locale.T(key, s.lang(p)), markup)
}

// Start offers the language choice in English.
func (s *Service) Start(p Peer) error {
	return p.Reply(locale.T(locale.StartLanguagePrompt, locale.Default), languageKeyboard())
}

// ChangeLanguage offers the language choice in the current language.
func (s *Service) ChangeLanguage(p Peer) error {
	return s.say(p, locale.StartLanguagePrompt, languageKeyboard())
}

// ChooseLanguage stores the picked language and shows the main menu.
// The conversation state is left untouched.
func (s *Service) ChooseLanguage(p Peer) error {
	lang, ok := locale.Parse(p.Payload())
	if !ok {
		return p.Respond("")
	}
	_ = p.Respond("")
	s.sessions.SetLanguage(p.UserID(), string(lang))
	logger.Conv.LogAttrs(p.Context(), slog.LevelInfo, "language.set", slog.String("lang", string(lang)))

	if err := p.Reply(locale.T(locale.Greeting, lang), nil); err != nil {
		return err
	}
	return p.Reply(locale.T(locale.ChooseAction, lang), mainKeyboard(lang))
}

// Download starts a new cycle from any state.
func (s *Service) Download(p Peer) error {
	_ = p.Respond("")
	uid := p.UserID()
	s.sessions.ClearTemp(uid, keyPendingURL)
	s.transition(p, StateAwaitingLink)
	return s.say(p, locale.AskLink, nil)
}

// Link takes any text that is not a command as the URL and asks for a quality.
// Unregistered commands like /help get the link prompt again.
func (s *Service) Link(p Peer) error {
	uid := p.UserID()
	url := strings.TrimSpace(p.Text())
	if url == "" || isCommand(url) {
		return s.say(p, locale.AskLink, nil)
	}
	s.sessions.SetTemp(uid, keyPendingURL, url)
	if !s.sessions.Transition(uid, StateAwaitingLink, StateAwaitingQuality) {
		return nil
	}
	link := media.Inspect(url)
	logger.Conv.LogAttrs(p.Context(), slog.LevelInfo, "link.received",
		slog.String("state", string(StateAwaitingQuality)),
		slog.String("provider", link.Provider),
		slog.String("video_id", link.VideoID),
		slog.String("url", logger.SanitizeLimit(url, 200)),
	)
	return s.say(p, locale.QualityPrompt, qualityKeyboard(s.lang(p)))
}

// QualityText handles typed quality labels while a quality is pending.
func (s *Service) QualityText(p Peer) error {
	text := strings.TrimSpace(p.Text())
	choice, ok := choiceFromText(text)
	if !ok || isCommand(text) {
		return s.say(p, locale.QualityPrompt, qualityKeyboard(s.lang(p)))
	}
	return s.choose(p, choice)
}

// Quality handles the quality inline buttons.
func (s *Service) Quality(p Peer) error {
	if s.sessions.GetState(p.UserID()) != StateAwaitingQuality {
		return s.Expired(p)
	}
	return s.choose(p, p.Payload())
}

func (s *Service) choose(p Peer, choice string) error {
	if choice == payloadCancel {
		return s.Cancel(p)
	}
	q, err := media.ParseQuality(choice)
	if err != nil {
		_ = p.Respond("")
		return s.say(p, locale.QualityPrompt, qualityKeyboard(s.lang(p)))
	}

	uid := p.UserID()
	if !s.sessions.Transition(uid, StateAwaitingQuality, state.StateIdle) {
		return s.Expired(p)
	}
	_ = p.Respond("")
	url, _ := s.sessions.GetTempString(uid, keyPendingURL)
	s.sessions.ClearTemp(uid, keyPendingURL)
	if url == "" {
		return s.say(p, locale.Error, mainKeyboard(s.lang(p)))
	}
	return s.deliver(p, media.NewJob(url, q))
}

// Cancel ends the cycle from any state without sending a file.
func (s *Service) Cancel(p Peer) error {
	_ = p.Respond("")
	uid := p.UserID()
	if from := s.sessions.GetState(uid); from != state.StateIdle {
		logger.Conv.LogAttrs(p.Context(), slog.LevelDebug, "state.change",
			slog.String("status", "cancelled"),
			slog.String("from", string(from)),
			slog.String("to", string(state.StateIdle)),
		)
	}
	s.sessions.Reset(uid)
	return s.say(p, locale.Cancelled, mainKeyboard(s.lang(p)))
}

// Expired answers a button press nothing is waiting for.
func (s *Service) Expired(p Peer) error {
	return p.Respond(locale.T(locale.Expired, s.lang(p)))
}

// Fallback answers stray text outside a cycle with the main menu.
func (s *Service) Fallback(p Peer) error {
	return s.say(p, locale.ChooseAction, mainKeyboard(s.lang(p)))
}

func isCommand(text string) bool { return strings.HasPrefix(text, "/") }

func (s *Service) transition(p Peer, to state.State) {
	uid := p.UserID()
	from := s.sessions.GetState(uid)
	s.sessions.SetState(uid, to)
	if from != to {
		logger.Conv.LogAttrs(p.Context(), slog.LevelDebug, "state.change",
			slog.String("from", string(from)),
			slog.String("to", string(to)),
		)
	}
}

// deliver runs one fetch → guard → send → delete cycle.
func (s *Service) deliver(p Peer, job media.Job) error {
	lang := s.lang(p)
	menu := mainKeyboard(lang)
	ctx := logger.WithJobID(p.Context(), job.ID)
	start := time.Now()

	link := media.Inspect(job.URL)
	logger.Media.LogAttrs(ctx, slog.LevelInfo, "job.start",
		slog.String("quality", string(job.Quality)),
		slog.String("provider", link.Provider),
		slog.String("video_id", link.VideoID),
	)
	if err := p.Reply(locale.T(locale.Downloading, lang), nil); err != nil {
		return err
	}

	path, err := s.fetcher.Fetch(ctx, job)
	if err != nil {
		s.logJob(ctx, "fail", start, err)
		return p.Reply(locale.T(locale.Error, lang), menu)
	}

	size, err := media.Guard(ctx, path, s.maxBytes)
	if errors.Is(err, media.ErrTooLarge) {
		s.logJob(ctx, "too_large", start, err, slog.Int64("size_bytes", size))
		return p.Reply(locale.T(locale.TooLarge, lang), menu)
	}
	defer removeDelivered(ctx, path)
	if err != nil {
		s.logJob(ctx, "fail", start, err)
		return p.Reply(locale.T(locale.Error, lang), menu)
	}

	if err := p.Reply(locale.T(locale.Sending, lang), nil); err != nil {
		return err
	}
	action := tele.UploadingVideo
	if job.Quality.IsAudio() {
		action = tele.UploadingDocument
	}
	_ = p.Notify(action)
	if err := p.SendFile(attachment(path, job.Quality)); err != nil {
		s.logJob(ctx, "fail", start, err, slog.Int64("size_bytes", size))
		return p.Reply(locale.T(locale.Error, lang), menu)
	}

	s.logJob(ctx, "sent", start, nil, slog.Int64("size_bytes", size))
	return p.Reply(locale.T(locale.DownloadComplete, lang), menu)
}

func (s *Service) logJob(ctx context.Context, outcome string, start time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelInfo
	status := "ok"
	switch outcome {
	case "fail":
		level, status = slog.LevelError, "fail"
	case "too_large":
		status = "too_large"
	}
	attrs = append(attrs,
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Duration("duration", time.Since(start)),
	)
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.Media.LogAttrs(ctx, level, "job.done", attrs...)
}

func removeDelivered(ctx context.Context, path string) {
	if err := media.Remove(path); err != nil {
		logger.Media.LogAttrs(ctx, slog.LevelWarn, "file.remove",
			slog.String("status", "fail"),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
	}
}

func attachment(path string, q media.Quality) tele.Sendable {
	file := tele.FromDisk(path)
	name := filepath.Base(path)
	if q.IsAudio() {
		return &tele.Audio{File: file, FileName: name, MIME: q.MIME()}
	}
	return &tele.Video{File: file, FileName: name, MIME: q.MIME()}
}
