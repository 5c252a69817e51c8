package domain

import (
	"math/rand"
	"testing"
)

func TestClassify(t *testing.T) {
	bo3 := MustFormat(FormatBestOf3)
	single := MustFormat(FormatSingleSet)
	super := MustFormat(FormatBestOf3Super)

	state := func(f MatchFormat, sets []Tally, points [2]Point) MatchState {
		s := NewMatch("Ana", "Bea", f, SideA)
		s.Sets = sets
		s.Games = sets[len(sets)-1]
		s.Points = points
		return s
	}
	tiebreak := func(f MatchFormat, sets []Tally, tb Tally, superTB bool) MatchState {
		s := state(f, sets, [2]Point{})
		s.Tiebreak = true
		s.SuperTiebreak = superTB
		s.TiebreakPoints = tb
		return s
	}
	complete := state(single, []Tally{{6, 2}}, [2]Point{})
	complete.IsComplete = true
	complete.Winner = SideA

	tests := []struct {
		name  string
		state MatchState
		want  Status
	}{
		{name: "fresh match", state: NewMatch("Ana", "Bea", bo3, SideA), want: StatusInProgress},
		{name: "thirty all", state: state(bo3, []Tally{{1, 1}}, [2]Point{Point30, Point30}), want: StatusInProgress},
		{name: "deuce", state: state(bo3, []Tally{{0, 0}}, [2]Point{Point40, Point40}), want: StatusDeuce},
		{name: "advantage A", state: state(bo3, []Tally{{0, 0}}, [2]Point{PointAdvantage, Point40}), want: StatusAdvantageA},
		{name: "advantage B", state: state(bo3, []Tally{{2, 2}}, [2]Point{Point40, PointAdvantage}), want: StatusAdvantageB},
		{name: "game point A", state: state(bo3, []Tally{{2, 1}}, [2]Point{Point40, Point15}), want: StatusGamePointA},
		{name: "game point B", state: state(bo3, []Tally{{0, 0}}, [2]Point{PointLove, Point40}), want: StatusGamePointB},
		{name: "five all is only a game point", state: state(bo3, []Tally{{5, 5}}, [2]Point{Point40, PointLove}), want: StatusGamePointA},
		{name: "five four before tiebreak is set point", state: state(bo3, []Tally{{5, 4}}, [2]Point{Point40, Point30}), want: StatusSetPointA},
		{name: "set point A", state: state(bo3, []Tally{{5, 3}}, [2]Point{Point40, PointLove}), want: StatusSetPointA},
		{name: "set point at six five", state: state(bo3, []Tally{{5, 6}}, [2]Point{Point30, Point40}), want: StatusSetPointB},
		{name: "set point with advantage", state: state(bo3, []Tally{{3, 5}}, [2]Point{Point40, PointAdvantage}), want: StatusSetPointB},
		{name: "break point for receiver on set", state: state(bo3, []Tally{{4, 5}}, [2]Point{Point15, Point40}), want: StatusSetPointB},
		{name: "match point A", state: state(bo3, []Tally{{6, 2}, {5, 3}}, [2]Point{Point40, PointLove}), want: StatusMatchPointA},
		{name: "set point B while A leads in sets", state: state(bo3, []Tally{{6, 2}, {3, 5}}, [2]Point{PointLove, Point40}), want: StatusSetPointB},
		{name: "single set match point with advantage", state: state(single, []Tally{{4, 5}}, [2]Point{Point40, PointAdvantage}), want: StatusMatchPointB},
		{name: "tiebreak level", state: tiebreak(bo3, []Tally{{6, 6}}, Tally{6, 6}, false), want: StatusInProgress},
		{name: "tiebreak set point", state: tiebreak(bo3, []Tally{{6, 6}}, Tally{6, 5}, false), want: StatusSetPointA},
		{name: "tiebreak early lead is nothing", state: tiebreak(bo3, []Tally{{6, 6}}, Tally{5, 3}, false), want: StatusInProgress},
		{name: "extended tiebreak set point", state: tiebreak(bo3, []Tally{{6, 6}}, Tally{9, 10}, false), want: StatusSetPointB},
		{name: "tiebreak match point", state: tiebreak(single, []Tally{{6, 6}}, Tally{6, 4}, false), want: StatusMatchPointA},
		{name: "deuce is not a tiebreak status", state: func() MatchState {
			s := tiebreak(bo3, []Tally{{6, 6}}, Tally{3, 3}, false)
			s.Points = [2]Point{Point40, Point40}
			return s
		}(), want: StatusInProgress},
		{name: "super tiebreak match point", state: tiebreak(super, []Tally{{6, 4}, {4, 6}, {0, 0}}, Tally{9, 7}, true), want: StatusMatchPointA},
		{name: "super tiebreak six five", state: tiebreak(super, []Tally{{6, 4}, {4, 6}, {0, 0}}, Tally{6, 5}, true), want: StatusInProgress},
		{name: "complete", state: complete, want: StatusMatchComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.state); got != tt.want {
				t.Fatalf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusSideAndString(t *testing.T) {
	tests := []struct {
		status Status
		name   string
		side   Side
	}{
		{StatusInProgress, "in_progress", NoSide},
		{StatusDeuce, "deuce", NoSide},
		{StatusAdvantageB, "advantage_B", SideB},
		{StatusGamePointA, "game_point_A", SideA},
		{StatusSetPointB, "set_point_B", SideB},
		{StatusMatchPointA, "match_point_A", SideA},
		{StatusMatchComplete, "match_complete", NoSide},
		{Status(99), "unknown", NoSide},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.status.Side(); got != tt.side {
			t.Errorf("%s.Side() = %v, want %v", tt.name, got, tt.side)
		}
		var parsed Status
		err := parsed.UnmarshalText([]byte(tt.name))
		if tt.name == "unknown" {
			if err == nil {
				t.Errorf("UnmarshalText(unknown) should fail")
			}
			continue
		}
		if err != nil || parsed != tt.status {
			t.Errorf("UnmarshalText(%q) = %v, %v", tt.name, parsed, err)
		}
	}
}

// TestClassifyAgreesWithEngine plays random matches in every format and checks
// that the point predicates predict exactly what AddPoint then does.
func TestClassifyAgreesWithEngine(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, id := range FormatIDs() {
		for game := 0; game < 40; game++ {
			s := newTestMatch(id)
			for step := 0; !s.IsComplete; step++ {
				if step > 5000 {
					t.Fatalf("%s: match did not finish", id)
				}
				if len(s.Sets) == 0 || len(s.Sets) > s.Format.MaxSets() {
					t.Fatalf("%s: sets out of range: %v", id, s.Sets)
				}
				if IsGamePoint(s, SideA) && IsGamePoint(s, SideB) {
					t.Fatalf("%s: both sides on game point: %+v", id, s)
				}

				for _, side := range Sides {
					next := AddPoint(s, side)
					gameWon, setWon := outcome(s, next)
					if got := IsGamePoint(s, side); got != gameWon {
						t.Fatalf("%s: IsGamePoint(%v)=%t but engine gameWon=%t\nstate: %+v", id, side, got, gameWon, s)
					}
					if got := IsSetPoint(s, side); got != setWon {
						t.Fatalf("%s: IsSetPoint(%v)=%t but engine setWon=%t\nstate: %+v", id, side, got, setWon, s)
					}
					if got := IsMatchPoint(s, side); got != next.IsComplete {
						t.Fatalf("%s: IsMatchPoint(%v)=%t but engine complete=%t\nstate: %+v", id, side, got, next.IsComplete, s)
					}
				}

				s = AddPoint(s, Sides[rng.Intn(2)])
			}
			if got := s.SetsWon()[s.Winner]; got != s.Format.SetsToWin {
				t.Fatalf("%s: winner %v has %d sets, want %d (%v)", id, s.Winner, got, s.Format.SetsToWin, s.Sets)
			}
		}
	}
}

func outcome(prev, next MatchState) (gameWon, setWon bool) {
	setsPushed := len(next.Sets) != len(prev.Sets)
	if prev.Tiebreak {
		// A decided tiebreak always either ends the match or opens a new set entry.
		gameWon = setsPushed || next.IsComplete
		setWon = gameWon && !prev.SuperTiebreak
		return gameWon, setWon
	}
	gameWon = next.Games != prev.Games || setsPushed || next.IsComplete
	setWon = setsPushed || next.IsComplete
	return gameWon, setWon
}
