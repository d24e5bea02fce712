package pager

import "testing"

func TestLRUPickOrder(t *testing.T) {
	l := NewLRU()
	l.Release(1)
	l.Release(2)
	l.Release(3)

	if got, ok := l.PickCandidate(); !ok || got != 1 {
		t.Errorf("want (1, true) got (%d, %t)", got, ok)
	}
	if got, ok := l.PickCandidate(); !ok || got != 2 {
		t.Errorf("want (2, true) got (%d, %t)", got, ok)
	}
}

func TestLRUPickRemovesCandidate(t *testing.T) {
	l := NewLRU()
	l.Release(1)
	l.PickCandidate()
	if _, ok := l.PickCandidate(); ok {
		t.Error("picked the same candidate twice")
	}
}

func TestLRUUseRemovesCandidate(t *testing.T) {
	l := NewLRU()
	l.Release(1)
	l.Release(2)
	l.Use(1)
	if got, ok := l.PickCandidate(); !ok || got != 2 {
		t.Errorf("want (2, true) got (%d, %t)", got, ok)
	}
	if _, ok := l.PickCandidate(); ok {
		t.Error("used frame still evictable")
	}
}

func TestLRUUseUnknownFrame(t *testing.T) {
	l := NewLRU()
	// a frame pinned for the first time was never released; use must not
	// disturb the candidate list
	l.Release(5)
	l.Use(9)
	if got, ok := l.PickCandidate(); !ok || got != 5 {
		t.Errorf("want (5, true) got (%d, %t)", got, ok)
	}
}

func TestLRUEmpty(t *testing.T) {
	l := NewLRU()
	if _, ok := l.PickCandidate(); ok {
		t.Error("empty policy returned a candidate")
	}
}

func TestLRUReleaseAgainAfterUse(t *testing.T) {
	l := NewLRU()
	l.Release(1)
	l.Release(2)
	l.Use(1)
	l.Release(1)
	if got, ok := l.PickCandidate(); !ok || got != 2 {
		t.Errorf("want (2, true) got (%d, %t)", got, ok)
	}
	if got, ok := l.PickCandidate(); !ok || got != 1 {
		t.Errorf("want (1, true) got (%d, %t)", got, ok)
	}
}
