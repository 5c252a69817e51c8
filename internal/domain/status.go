package domain

import "fmt"

// Status is the semantic situation of a match, derived from a state.
type Status int

const (
	StatusInProgress Status = iota
	StatusDeuce
	StatusAdvantageA
	StatusAdvantageB
	StatusGamePointA
	StatusGamePointB
	StatusSetPointA
	StatusSetPointB
	StatusMatchPointA
	StatusMatchPointB
	StatusMatchComplete
)

var statusNames = [...]string{
	StatusInProgress:    "in_progress",
	StatusDeuce:         "deuce",
	StatusAdvantageA:    "advantage_A",
	StatusAdvantageB:    "advantage_B",
	StatusGamePointA:    "game_point_A",
	StatusGamePointB:    "game_point_B",
	StatusSetPointA:     "set_point_A",
	StatusSetPointB:     "set_point_B",
	StatusMatchPointA:   "match_point_A",
	StatusMatchPointB:   "match_point_B",
	StatusMatchComplete: "match_complete",
}

func (st Status) String() string {
	if st < 0 || int(st) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[st]
}

func (st Status) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}

func (st *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*st = Status(i)
			return nil
		}
	}
	return fmt.Errorf("invalid status %q", b)
}

// Side returns the side a per-side status refers to, or NoSide.
func (st Status) Side() Side {
	switch st {
	case StatusAdvantageA, StatusGamePointA, StatusSetPointA, StatusMatchPointA:
		return SideA
	case StatusAdvantageB, StatusGamePointB, StatusSetPointB, StatusMatchPointB:
		return SideB
	default:
		return NoSide
	}
}

func perSide(side Side, a, b Status) Status {
	if side == SideA {
		return a
	}
	return b
}

// Classify derives the status of s. When several descriptions apply the most
// significant wins: match point, set point, advantage, game point, deuce.
func Classify(s MatchState) Status {
	if s.IsComplete {
		return StatusMatchComplete
	}

	for _, side := range Sides {
		if IsMatchPoint(s, side) {
			return perSide(side, StatusMatchPointA, StatusMatchPointB)
		}
	}
	for _, side := range Sides {
		if IsSetPoint(s, side) {
			return perSide(side, StatusSetPointA, StatusSetPointB)
		}
	}

	if !s.Tiebreak {
		for _, side := range Sides {
			if s.Points[side] == PointAdvantage {
				return perSide(side, StatusAdvantageA, StatusAdvantageB)
			}
		}
	}

	for _, side := range Sides {
		if IsGamePoint(s, side) {
			return perSide(side, StatusGamePointA, StatusGamePointB)
		}
	}

	if !s.Tiebreak && s.Points[SideA] == Point40 && s.Points[SideB] == Point40 {
		return StatusDeuce
	}
	return StatusInProgress
}

// IsGamePoint reports whether side would win the current game (or tiebreak)
// by winning the next point.
func IsGamePoint(s MatchState, side Side) bool {
	if s.IsComplete || !side.Valid() {
		return false
	}
	if s.Tiebreak {
		own := s.TiebreakPoints[side]
		return own+1 >= s.TiebreakTarget() && s.TiebreakPoints.Lead(side) >= 1
	}
	own, theirs := s.Points[side], s.Points[side.Other()]
	return own == PointAdvantage || (own == Point40 && theirs < Point40)
}

// IsSetPoint reports whether side would win the current set by winning the
// next point. A super tiebreak is not a set, so it never yields a set point.
func IsSetPoint(s MatchState, side Side) bool {
	if !IsGamePoint(s, side) {
		return false
	}
	if s.Tiebreak {
		return !s.SuperTiebreak
	}
	games := s.Games[side] + 1
	return games >= s.Format.GamesPerSet && games-s.Games[side.Other()] >= 2
}

// IsMatchPoint reports whether side would win the match by winning the next
// point.
func IsMatchPoint(s MatchState, side Side) bool {
	if s.Tiebreak && s.SuperTiebreak {
		return IsGamePoint(s, side)
	}
	if !IsSetPoint(s, side) {
		return false
	}
	return s.SetsWon()[side]+1 >= s.Format.SetsToWin
}
