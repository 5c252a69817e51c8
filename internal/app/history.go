package app

import "courtside/internal/domain"

// MaxHistoryDepth bounds how many points can be undone.
const MaxHistoryDepth = 50

// History owns the current match state and the snapshots taken before each
// committed point. It is not safe for concurrent use; callers serialize access.
type History struct {
	current   domain.MatchState
	active    bool
	snapshots []domain.MatchState
}

// NewHistory returns an empty history with no match loaded.
func NewHistory() *History {
	return &History{snapshots: make([]domain.MatchState, 0, MaxHistoryDepth)}
}

// Start replaces any loaded match with state and clears the undo list.
func (h *History) Start(state domain.MatchState) {
	h.Reset()
	h.current = state.Clone()
	h.active = true
}

// Current returns the current state; ok is false when no match is loaded.
func (h *History) Current() (domain.MatchState, bool) {
	if !h.active {
		return domain.MatchState{}, false
	}
	return h.current.Clone(), true
}

// ScorePoint applies a point for side and returns the new current state.
// A completed match is returned unchanged and nothing is recorded.
func (h *History) ScorePoint(side domain.Side) (domain.MatchState, bool) {
	if !h.active {
		return domain.MatchState{}, false
	}
	if h.current.IsComplete || !side.Valid() {
		return h.current.Clone(), true
	}

	h.push(h.current.Clone())
	h.current = domain.AddPoint(h.current, side)
	return h.current.Clone(), true
}

func (h *History) push(snapshot domain.MatchState) {
	if len(h.snapshots) == MaxHistoryDepth {
		copy(h.snapshots, h.snapshots[1:])
		h.snapshots = h.snapshots[:MaxHistoryDepth-1]
	}
	h.snapshots = append(h.snapshots, snapshot)
}

// Undo restores the most recent snapshot. undone is false when there was
// nothing to undo, in which case the current state is returned as is.
func (h *History) Undo() (state domain.MatchState, undone bool) {
	if len(h.snapshots) == 0 {
		current, _ := h.Current()
		return current, false
	}
	last := len(h.snapshots) - 1
	h.current = h.snapshots[last]
	h.snapshots[last] = domain.MatchState{}
	h.snapshots = h.snapshots[:last]
	return h.current.Clone(), true
}

// Reset discards the current match and all snapshots.
func (h *History) Reset() {
	h.current = domain.MatchState{}
	h.active = false
	for i := range h.snapshots {
		h.snapshots[i] = domain.MatchState{}
	}
	h.snapshots = h.snapshots[:0]
}

// CanUndo reports whether Undo would restore a snapshot.
func (h *History) CanUndo() bool {
	return len(h.snapshots) > 0
}

// Depth is the number of stored snapshots.
func (h *History) Depth() int {
	return len(h.snapshots)
}
