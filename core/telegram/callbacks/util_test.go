package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"encoded", &tele.Callback{Data: "\fquality|hd"}, "quality", "hd"},
		{"no payload", &tele.Callback{Data: "\fcancel"}, "cancel", ""},
		{"payload with separator", &tele.Callback{Data: "\flang|ar|x"}, "lang", "ar|x"},
		{"already split", &tele.Callback{Unique: "lang", Data: "en"}, "lang", "en"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tc.cb)
			if key != tc.key || payload != tc.payload {
				t.Fatalf("got (%q, %q), want (%q, %q)", key, payload, tc.key, tc.payload)
			}
		})
	}
}
