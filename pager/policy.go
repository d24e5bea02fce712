package pager

import "slices"

// ReplacementPolicy decides which resident frame the pool evicts. The pool
// calls Use when a frame's pin count leaves 0 and Release when it returns to
// 0, so the candidate set only ever holds unpinned frames.
type ReplacementPolicy interface {
	Use(frameID int)
	Release(frameID int)
	// PickCandidate returns an evictable frame and removes it from the
	// candidate set. The bool is false when no frame is evictable.
	PickCandidate() (int, bool)
}

// lruPolicy implements ReplacementPolicy. Released frames queue up in release
// order and the oldest entry is evicted first.
type lruPolicy struct {
	candidates []int
}

// NewLRU creates the default least recently used replacement policy.
func NewLRU() ReplacementPolicy {
	return &lruPolicy{}
}

func (l *lruPolicy) Use(frameID int) {
	if i := slices.Index(l.candidates, frameID); i >= 0 {
		l.candidates = slices.Delete(l.candidates, i, i+1)
	}
}

func (l *lruPolicy) Release(frameID int) {
	if slices.Contains(l.candidates, frameID) {
		return
	}
	l.candidates = append(l.candidates, frameID)
}

func (l *lruPolicy) PickCandidate() (int, bool) {
	if len(l.candidates) == 0 {
		return 0, false
	}
	frameID := l.candidates[0]
	l.candidates = l.candidates[1:]
	return frameID, true
}
