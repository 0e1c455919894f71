package state

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const awaiting State = "awaiting"

func TestTransitionIsCompareAndSet(t *testing.T) {
	mgr := NewMemoryManager()
	mgr.SetState(1, awaiting)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if mgr.Transition(1, awaiting, StateIdle) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("transitions won = %d, want 1", wins.Load())
	}
	if mgr.InProgress(1) {
		t.Fatal("user should be idle")
	}
}

func TestResetKeepsLanguage(t *testing.T) {
	mgr := NewMemoryManager()
	mgr.SetLanguage(7, "ar")
	mgr.SetState(7, awaiting)
	mgr.SetTemp(7, "pending_url", "https://example.org/v")

	mgr.Reset(7)

	if got := mgr.GetState(7); got != StateIdle {
		t.Fatalf("state = %q", got)
	}
	if _, ok := mgr.GetTempString(7, "pending_url"); ok {
		t.Fatal("temp data should be cleared")
	}
	if got := mgr.Language(7); got != "ar" {
		t.Fatalf("language = %q", got)
	}
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	m := NewMemoryManager().(*memoryManager)
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }

	m.Touch(1)
	now = now.Add(30 * time.Minute)
	m.Touch(2)
	now = now.Add(31 * time.Minute)

	if removed := m.Sweep(time.Hour); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if m.Len() != 1 || m.Language(2) != "" {
		t.Fatalf("unexpected sessions left: %d", m.Len())
	}
	if removed := m.Sweep(0); removed != 0 {
		t.Fatal("zero ttl must not sweep")
	}
}
