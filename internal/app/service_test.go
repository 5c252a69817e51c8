package app

import (
	"errors"
	"testing"

	"courtside/internal/domain"
)

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func hasKind(events []Event, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func scoreN(t *testing.T, svc *Service, side domain.Side, n int) []Event {
	t.Helper()
	var last []Event
	for i := 0; i < n; i++ {
		evs, err := svc.ScorePoint(side)
		if err != nil {
			t.Fatalf("ScorePoint(%v) error: %v", side, err)
		}
		last = evs
	}
	return last
}

func TestNewMatchValidation(t *testing.T) {
	tests := []struct {
		name    string
		nameA   string
		nameB   string
		format  domain.FormatID
		server  domain.Side
		wantErr error
	}{
		{name: "valid", nameA: "Ana", nameB: "Bea", format: domain.FormatBestOf3, server: domain.SideA},
		{name: "blank name", nameA: "  ", nameB: "Bea", format: domain.FormatBestOf3, server: domain.SideA, wantErr: ErrBlankName},
		{name: "unknown format", nameA: "Ana", nameB: "Bea", format: "pro_set", server: domain.SideA, wantErr: ErrUnknownFormat},
		{name: "bad server", nameA: "Ana", nameB: "Bea", format: domain.FormatBestOf5, server: domain.NoSide, wantErr: ErrInvalidSide},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService()
			evs, err := svc.NewMatch(tt.nameA, tt.nameB, tt.format, tt.server)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewMatch() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if _, ok := svc.Snapshot(); ok {
					t.Fatal("failed NewMatch must not load a match")
				}
				return
			}
			if len(evs) != 1 || evs[0].Kind != EventMatchStarted {
				t.Fatalf("events = %v, want match_started", kinds(evs))
			}
			p := evs[0].Payload.(MatchStartedPayload)
			if p.Players != [2]string{"Ana", "Bea"} || p.Format != tt.format || p.Server != tt.server {
				t.Fatalf("unexpected payload: %+v", p)
			}
		})
	}
}

func TestScorePointRequiresMatch(t *testing.T) {
	svc := NewService()
	if _, err := svc.ScorePoint(domain.SideA); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("ScorePoint() error = %v, want ErrNoMatch", err)
	}
	if _, err := svc.Undo(); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("Undo() error = %v, want ErrNoMatch", err)
	}
	if evs := svc.Reset(); len(evs) != 0 {
		t.Fatalf("Reset() without match emitted %v", kinds(evs))
	}

	if _, err := svc.NewMatch("Ana", "Bea", domain.FormatSingleSet, domain.SideA); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ScorePoint(domain.NoSide); !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("ScorePoint(NoSide) error = %v, want ErrInvalidSide", err)
	}
}

func TestScorePointEvents(t *testing.T) {
	svc := NewService()
	if _, err := svc.NewMatch("Ana", "Bea", domain.FormatBestOf3Super, domain.SideA); err != nil {
		t.Fatal(err)
	}

	evs := scoreN(t, svc, domain.SideA, 1)
	if got := kinds(evs); len(got) != 1 || got[0] != EventPointScored {
		t.Fatalf("first point events = %v", got)
	}
	if p := evs[0].Payload.(PointScoredPayload); p.Side != domain.SideA || p.Status != domain.StatusInProgress {
		t.Fatalf("unexpected point payload: %+v", p)
	}

	evs = scoreN(t, svc, domain.SideA, 3)
	want := []EventKind{EventPointScored, EventGameWon, EventChangeover}
	if got := kinds(evs); len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("first game events = %v, want %v", got, want)
	}
	if p := evs[1].Payload.(GameWonPayload); p.Games != (domain.Tally{1, 0}) || p.SetNumber != 1 {
		t.Fatalf("unexpected game payload: %+v", p)
	}

	evs = scoreN(t, svc, domain.SideA, 4)
	if hasKind(evs, EventChangeover) {
		t.Fatal("no changeover after an even number of games")
	}

	// A takes the first set 6-0.
	evs = scoreN(t, svc, domain.SideA, 16)
	if !hasKind(evs, EventSetWon) || hasKind(evs, EventMatchWon) {
		t.Fatalf("set events = %v", kinds(evs))
	}
	var setWon SetWonPayload
	for _, ev := range evs {
		if ev.Kind == EventSetWon {
			setWon = ev.Payload.(SetWonPayload)
		}
	}
	if setWon.Score != (domain.Tally{6, 0}) || setWon.SetsWon != (domain.Tally{1, 0}) || setWon.SetNumber != 1 {
		t.Fatalf("unexpected set payload: %+v", setWon)
	}

	// B takes the second set; a super tiebreak replaces the third.
	evs = scoreN(t, svc, domain.SideB, 24)
	if !hasKind(evs, EventSuperTiebreakStarted) || hasKind(evs, EventTiebreakStarted) {
		t.Fatalf("second set events = %v", kinds(evs))
	}

	evs = scoreN(t, svc, domain.SideB, 10)
	if !hasKind(evs, EventMatchWon) || !hasKind(evs, EventSetWon) || hasKind(evs, EventGameWon) {
		t.Fatalf("super tiebreak win events = %v", kinds(evs))
	}
	var won MatchWonPayload
	for _, ev := range evs {
		if ev.Kind == EventMatchWon {
			won = ev.Payload.(MatchWonPayload)
		}
	}
	if won.Winner != domain.SideB || won.Scoreline != "6-0 0-6 0-10" {
		t.Fatalf("unexpected match payload: %+v", won)
	}
	if svc.Status() != domain.StatusMatchComplete {
		t.Fatalf("Status() = %v", svc.Status())
	}

	// Scoring a finished match is a silent no-op.
	evs, err := svc.ScorePoint(domain.SideA)
	if err != nil || len(evs) != 0 {
		t.Fatalf("post-match point: events=%v err=%v", kinds(evs), err)
	}
}

func TestTiebreakStartedEvent(t *testing.T) {
	svc := NewService()
	if _, err := svc.NewMatch("Ana", "Bea", domain.FormatBestOf5, domain.SideB); err != nil {
		t.Fatal(err)
	}
	var evs []Event
	for i := 0; i < 6; i++ {
		scoreN(t, svc, domain.SideA, 4)
		evs = scoreN(t, svc, domain.SideB, 4)
	}
	if !hasKind(evs, EventTiebreakStarted) {
		t.Fatalf("6-6 events = %v", kinds(evs))
	}
	for _, ev := range evs {
		if ev.Kind == EventTiebreakStarted {
			p := ev.Payload.(TiebreakStartedPayload)
			if p.Target != 7 || p.SetNumber != 1 {
				t.Fatalf("unexpected tiebreak payload: %+v", p)
			}
		}
	}

	evs = scoreN(t, svc, domain.SideA, 7)
	if !hasKind(evs, EventGameWon) || !hasKind(evs, EventSetWon) || !hasKind(evs, EventChangeover) {
		t.Fatalf("tiebreak win events = %v", kinds(evs))
	}
	if svc.Status() != domain.StatusInProgress {
		t.Fatalf("Status() = %v after set", svc.Status())
	}
}

func TestUndoAndReset(t *testing.T) {
	svc := NewService()
	if _, err := svc.NewMatch("Ana", "Bea", domain.FormatBestOf3, domain.SideA); err != nil {
		t.Fatal(err)
	}
	if svc.CanUndo() {
		t.Fatal("fresh match has nothing to undo")
	}
	if evs, err := svc.Undo(); err != nil || len(evs) != 0 {
		t.Fatalf("empty undo: events=%v err=%v", kinds(evs), err)
	}

	scoreN(t, svc, domain.SideA, 3)
	if svc.Status() != domain.StatusGamePointA {
		t.Fatalf("Status() = %v, want game point A", svc.Status())
	}
	evs, err := svc.Undo()
	if err != nil || len(evs) != 1 || evs[0].Kind != EventPointUndone {
		t.Fatalf("undo: events=%v err=%v", kinds(evs), err)
	}
	if p := evs[0].Payload.(PointUndonePayload); p.Status != domain.StatusInProgress {
		t.Fatalf("status after undo = %v", p.Status)
	}
	state, _ := svc.Snapshot()
	if state.Points != [2]domain.Point{domain.Point30, domain.PointLove} {
		t.Fatalf("points after undo = %v", state.Points)
	}

	evs = svc.Reset()
	if len(evs) != 1 || evs[0].Kind != EventMatchReset {
		t.Fatalf("reset events = %v", kinds(evs))
	}
	if _, ok := svc.Snapshot(); ok || svc.CanUndo() {
		t.Fatal("reset should clear match and history")
	}
}
