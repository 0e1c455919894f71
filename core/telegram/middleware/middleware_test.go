package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestDeduperSeen(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	d := NewDeduper(time.Minute)
	d.now = func() time.Time { return now }

	if d.Seen(10) {
		t.Fatal("first delivery reported as duplicate")
	}
	if !d.Seen(10) {
		t.Fatal("redelivery not detected")
	}
	now = now.Add(2 * time.Minute)
	if d.Seen(10) {
		t.Fatal("id should be forgotten after the window")
	}
}

func TestUpdateKind(t *testing.T) {
	cases := map[string]tele.Update{
		"callback": {Callback: &tele.Callback{}},
		"message":  {Message: &tele.Message{}},
		"other":    {},
	}
	for want, upd := range cases {
		if got := UpdateKind(upd); got != want {
			t.Errorf("UpdateKind = %q, want %q", got, want)
		}
	}
}
