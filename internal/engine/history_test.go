package engine

import (
	"sync"
	"testing"
)

func TestHistoryRenderEmpty(t *testing.T) {
	if got := NewHistory().Render(); got != "" {
		t.Errorf("empty history renders %q, want empty string", got)
	}

	var nilHistory *History
	if got := nilHistory.Render(); got != "" {
		t.Errorf("nil history renders %q, want empty string", got)
	}
	if nilHistory.Len() != 0 {
		t.Error("nil history must have length 0")
	}
}

func TestHistoryRenderTurns(t *testing.T) {
	h := NewHistory()
	h.Add("first q", "first a")
	h.Add("second q", "second a")

	want := "User: first q\nAssistant: first a\nUser: second q\nAssistant: second a"
	if got := h.Render(); got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestHistoryTurnsReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Add("q", "a")

	turns := h.Turns()
	turns[0].Query = "mutated"

	if h.Turns()[0].Query != "q" {
		t.Error("Turns must return a defensive copy")
	}
}

func TestHistoryConcurrentAccess(t *testing.T) {
	h := NewHistory()
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Add("q", "a")
		}()
		go func() {
			defer wg.Done()
			_ = h.Render()
		}()
	}
	wg.Wait()

	if h.Len() != 8 {
		t.Errorf("Len = %d, want 8", h.Len())
	}
}
