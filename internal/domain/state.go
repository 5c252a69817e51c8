package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Side identifies one of the two competitors.
type Side int

const (
	// NoSide marks the absence of a side, e.g. the winner of an unfinished match.
	NoSide Side = -1
	// SideA is the first-named competitor.
	SideA Side = 0
	// SideB is the second-named competitor.
	SideB Side = 1
)

// Sides lists both competitors in display order.
var Sides = [2]Side{SideA, SideB}

// Other returns the opponent of s.
func (s Side) Other() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return NoSide
	}
}

// Valid reports whether s is SideA or SideB.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return ""
	}
}

// ParseSide accepts "A"/"B" in either case.
func ParseSide(v string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "A":
		return SideA, nil
	case "B":
		return SideB, nil
	default:
		return NoSide, fmt.Errorf("invalid side %q", v)
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = NoSide
		return nil
	}
	parsed, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Point is a position in the regular game sequence 0, 15, 30, 40, Advantage.
type Point int

const (
	PointLove Point = iota
	Point15
	Point30
	Point40
	PointAdvantage
)

var pointLabels = [...]string{"0", "15", "30", "40", "AD"}

func (p Point) String() string {
	if p < PointLove || p > PointAdvantage {
		return "?"
	}
	return pointLabels[p]
}

func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Point) UnmarshalText(b []byte) error {
	for i, label := range pointLabels {
		if label == string(b) {
			*p = Point(i)
			return nil
		}
	}
	return fmt.Errorf("invalid point %q", b)
}

// Tally is a per-side counter indexed by Side.
type Tally [2]int

// Lead returns how far side is ahead of its opponent (negative when behind).
// An invalid side leads by nothing.
func (t Tally) Lead(side Side) int {
	if !side.Valid() {
		return 0
	}
	return t[side] - t[side.Other()]
}

// Total is the sum of both sides.
func (t Tally) Total() int {
	return t[SideA] + t[SideB]
}

func (t Tally) String() string {
	return strconv.Itoa(t[SideA]) + "-" + strconv.Itoa(t[SideB])
}

// MatchState is the whole match at one instant. States are values: the engine
// always returns a new one and never writes through to a previous snapshot.
//
// Sets is never empty. Its last entry is the set in progress (mirroring Games)
// until the match is complete, after which every entry is a final score.
type MatchState struct {
	Players        [2]string   `json:"players"`
	Format         MatchFormat `json:"format"`
	Server         Side        `json:"server"`
	Points         [2]Point    `json:"points"`
	Games          Tally       `json:"games"`
	Sets           []Tally     `json:"sets"`
	Tiebreak       bool        `json:"tiebreak"`
	TiebreakPoints Tally       `json:"tiebreak_points"`
	SuperTiebreak  bool        `json:"super_tiebreak"`
	IsComplete     bool        `json:"is_complete"`
	Winner         Side        `json:"winner"`
}

// NewMatch creates the opening state of a match.
func NewMatch(nameA, nameB string, format MatchFormat, initialServer Side) MatchState {
	return MatchState{
		Players: [2]string{nameA, nameB},
		Format:  format,
		Server:  initialServer,
		Sets:    []Tally{{}},
		Winner:  NoSide,
	}
}

// Clone returns a copy that shares no memory with s.
func (s MatchState) Clone() MatchState {
	out := s
	out.Sets = make([]Tally, len(s.Sets))
	copy(out.Sets, s.Sets)
	return out
}

// Name returns the display name of side.
func (s MatchState) Name(side Side) string {
	if !side.Valid() {
		return ""
	}
	return s.Players[side]
}

// CurrentSet returns the last set entry.
func (s MatchState) CurrentSet() Tally {
	if len(s.Sets) == 0 {
		return Tally{}
	}
	return s.Sets[len(s.Sets)-1]
}

// SetsWon counts finished sets per side. The in-progress entry is excluded
// until the match is complete.
func (s MatchState) SetsWon() Tally {
	finished := s.Sets
	if !s.IsComplete && len(finished) > 0 {
		finished = finished[:len(finished)-1]
	}
	return countSets(finished)
}

func countSets(sets []Tally) Tally {
	var won Tally
	for _, set := range sets {
		switch {
		case set[SideA] > set[SideB]:
			won[SideA]++
		case set[SideB] > set[SideA]:
			won[SideB]++
		}
	}
	return won
}

// InDecidingSet reports whether both sides are one set away from the match.
func (s MatchState) InDecidingSet() bool {
	won := s.SetsWon()
	need := s.Format.SetsToWin - 1
	return won[SideA] == need && won[SideB] == need
}

// Scoreline renders the set scores, e.g. "6-4 3-6 2-1". A super tiebreak in
// progress is shown in brackets.
func (s MatchState) Scoreline() string {
	parts := make([]string, 0, len(s.Sets))
	for i, set := range s.Sets {
		last := i == len(s.Sets)-1
		if last && s.SuperTiebreak && s.Tiebreak && !s.IsComplete {
			parts = append(parts, "["+s.TiebreakPoints.String()+"]")
			continue
		}
		parts = append(parts, set.String())
	}
	return strings.Join(parts, " ")
}
