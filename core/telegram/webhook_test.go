package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tele "gopkg.in/telebot.v4"
)

type recordingProcessor struct {
	mu      sync.Mutex
	updates []tele.Update
	panics  bool
}

func (p *recordingProcessor) ProcessUpdate(u tele.Update) {
	p.mu.Lock()
	p.updates = append(p.updates, u)
	p.mu.Unlock()
	if p.panics {
		panic("boom")
	}
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookProcessesUpdate(t *testing.T) {
	proc := &recordingProcessor{}
	h := NewWebhookHandler(proc, WebhookHandlerOptions{})

	rec := post(t, h, "/webhook", `{"update_id":42,"message":{"message_id":1,"text":"hi","chat":{"id":7,"type":"private"}}}`)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("response = %d %q", rec.Code, rec.Body.String())
	}
	if len(proc.updates) != 1 || proc.updates[0].ID != 42 || proc.updates[0].Message.Text != "hi" {
		t.Fatalf("updates = %+v", proc.updates)
	}
}

func TestWebhookAlwaysAnswersOK(t *testing.T) {
	cases := map[string]struct {
		body   string
		panics bool
	}{
		"malformed json": {body: "{not json"},
		"empty body":     {body: ""},
		"handler panic":  {body: `{"update_id":1}`, panics: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewWebhookHandler(&recordingProcessor{panics: tc.panics}, WebhookHandlerOptions{Path: "/hook", RPS: 100, Burst: 5})
			rec := post(t, h, "/hook", tc.body)
			if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
				t.Fatalf("response = %d %q", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestWebhookLivenessAndRoutes(t *testing.T) {
	h := NewWebhookHandler(&recordingProcessor{}, WebhookHandlerOptions{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "webhook is live") {
		t.Fatalf("liveness = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /webhook = %d, want 405", rec.Code)
	}
}

func TestWebhookDrivesBotHandlers(t *testing.T) {
	bot, err := tele.NewBot(tele.Settings{Token: "123:test", Offline: true, Synchronous: true})
	if err != nil {
		t.Fatal(err)
	}
	var seen string
	bot.Handle(tele.OnText, func(c tele.Context) error {
		seen = c.Text()
		return nil
	})

	rec := post(t, NewWebhookHandler(bot, WebhookHandlerOptions{}), "/webhook",
		`{"update_id":9,"message":{"message_id":3,"text":"https://youtu.be/x","from":{"id":1},"chat":{"id":1,"type":"private"}}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if seen != "https://youtu.be/x" {
		t.Fatalf("handler saw %q", seen)
	}
}
