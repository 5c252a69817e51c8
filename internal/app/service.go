package app

import (
	"errors"
	"strings"

	"courtside/internal/domain"
)

var (
	ErrNoMatch       = errors.New("no match in progress")
	ErrUnknownFormat = errors.New("unknown match format")
	ErrInvalidSide   = errors.New("side must be A or B")
	ErrBlankName     = errors.New("player name is required")
)

// Service contains scorekeeping use-cases for a single court. It translates
// commands into History operations and derives events from the snapshots
// before and after each one.
type Service struct {
	history *History
}

// NewService constructs a Service with no match loaded.
func NewService() *Service {
	return &Service{history: NewHistory()}
}

// NewMatch discards whatever is loaded and starts a fresh match.
func (s *Service) NewMatch(nameA, nameB string, formatID domain.FormatID, server domain.Side) ([]Event, error) {
	nameA, nameB = strings.TrimSpace(nameA), strings.TrimSpace(nameB)
	if nameA == "" || nameB == "" {
		return nil, ErrBlankName
	}
	format, ok := domain.Format(formatID)
	if !ok {
		return nil, ErrUnknownFormat
	}
	if !server.Valid() {
		return nil, ErrInvalidSide
	}

	s.history.Start(domain.NewMatch(nameA, nameB, format, server))

	return []Event{{
		Kind: EventMatchStarted,
		Payload: MatchStartedPayload{
			Players: [2]string{nameA, nameB},
			Format:  format.ID,
			Server:  server,
		},
	}}, nil
}

// ScorePoint records a point for side. Scoring a finished match succeeds with
// no events.
func (s *Service) ScorePoint(side domain.Side) ([]Event, error) {
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	prev, ok := s.history.Current()
	if !ok {
		return nil, ErrNoMatch
	}
	next, _ := s.history.ScorePoint(side)
	return diffEvents(prev, next, side), nil
}

// Undo reverts the last recorded point. With nothing to undo it succeeds with
// no events.
func (s *Service) Undo() ([]Event, error) {
	if _, ok := s.history.Current(); !ok {
		return nil, ErrNoMatch
	}
	restored, undone := s.history.Undo()
	if !undone {
		return nil, nil
	}
	return []Event{{
		Kind:    EventPointUndone,
		Payload: PointUndonePayload{Status: domain.Classify(restored)},
	}}, nil
}

// Reset discards the match and its history.
func (s *Service) Reset() []Event {
	_, hadMatch := s.history.Current()
	s.history.Reset()
	if !hadMatch {
		return nil
	}
	return []Event{{Kind: EventMatchReset}}
}

// Snapshot returns the current state, if a match is loaded.
func (s *Service) Snapshot() (domain.MatchState, bool) {
	return s.history.Current()
}

// Status classifies the current state; with no match it reports in progress.
func (s *Service) Status() domain.Status {
	state, ok := s.history.Current()
	if !ok {
		return domain.StatusInProgress
	}
	return domain.Classify(state)
}

// CanUndo reports whether a point can be undone.
func (s *Service) CanUndo() bool {
	return s.history.CanUndo()
}
