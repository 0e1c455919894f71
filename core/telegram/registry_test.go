package telegram

import (
	"testing"

	"github.com/m3rciful/grabbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookupCommand(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/download", commands.Command{
		Handler:     noop,
		Description: "Download a video",
		Aliases:     []string{"Download Video 🎥", "تحميل فيديو 🎥"},
	})
	reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel", Hidden: true})

	cases := map[string]string{
		"/download":           "/download",
		"/download@grab_bot":  "/download",
		"  Download Video 🎥 ": "/download",
		"تحميل فيديو 🎥":       "/download",
		"/cancel now":         "/cancel",
	}
	for text, want := range cases {
		got, _, ok := reg.LookupCommand(text)
		if !ok || got != want {
			t.Errorf("LookupCommand(%q) = %q, %v; want %q", text, got, ok, want)
		}
	}
	for _, text := range []string{"", "download", "https://youtu.be/x", "/unknown"} {
		if _, _, ok := reg.LookupCommand(text); ok {
			t.Errorf("LookupCommand(%q) matched", text)
		}
	}

	if list := reg.ListCommands(true); len(list) != 1 || list[0].Text != "download" {
		t.Fatalf("visible commands = %+v", list)
	}
}

func TestRegistryRejectsInvalidRegistrations(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/start", commands.Command{Description: "no handler"})
	if len(reg.Commands()) != 0 {
		t.Fatalf("commands = %v", reg.Commands())
	}
	if err := reg.RegisterCallback("lang", noop); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("lang", noop); err == nil {
		t.Fatal("expected duplicate callback error")
	}
	if keys := reg.ListCallbacks(); len(keys) != 1 || keys[0] != "lang" {
		t.Fatalf("callbacks = %v", keys)
	}
}
