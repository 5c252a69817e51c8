package sim

import (
	"math/rand"
	"time"

	"courtside/internal/domain"
)

// DefaultServeWinProbability is roughly the share of points won on serve in
// the professional game.
const DefaultServeWinProbability = 0.62

// Tuning biases simulated rallies.
type Tuning struct {
	// ServeWinProbability is the chance the server wins a point between equals.
	ServeWinProbability float64
	// Edge shifts every point toward side A (positive) or side B (negative).
	Edge float64
}

// DefaultTuning is an even contest on ordinary serve.
var DefaultTuning = Tuning{ServeWinProbability: DefaultServeWinProbability}

// Simulator picks point winners for autoplay and tests.
type Simulator struct {
	rng    *rand.Rand
	tuning Tuning
}

// New constructs a Simulator with the provided rng or a time-seeded default.
func New(rng *rand.Rand, tuning Tuning) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{rng: rng, tuning: tuning}
}

// NextPoint decides who wins the next rally of state.
func (s *Simulator) NextPoint(state domain.MatchState) domain.Side {
	p := s.tuning.ServeWinProbability
	if state.Server == domain.SideB {
		p = 1 - p
	}
	p = clamp(p + s.tuning.Edge)

	if s.rng.Float64() < p {
		return domain.SideA
	}
	return domain.SideB
}

// PlayMatch scores points until the match completes or maxPoints is reached.
// It returns the final state and the number of points played.
func (s *Simulator) PlayMatch(state domain.MatchState, maxPoints int) (domain.MatchState, int) {
	played := 0
	for !state.IsComplete && played < maxPoints {
		state = domain.AddPoint(state, s.NextPoint(state))
		played++
	}
	return state, played
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// Report aggregates a series of simulated matches.
type Report struct {
	Format         domain.FormatID
	Matches        int
	Unfinished     int
	Wins           domain.Tally
	Points         int
	Tiebreaks      int
	SuperTiebreaks int
	Scorelines     []string
}

// AveragePoints is the mean number of points per finished match.
func (r Report) AveragePoints() float64 {
	finished := r.Matches - r.Unfinished
	if finished == 0 {
		return 0
	}
	return float64(r.Points) / float64(finished)
}

// Series plays n matches in format, alternating the first server, and
// gives up on any match still unfinished after maxPoints.
func (s *Simulator) Series(format domain.MatchFormat, n, maxPoints int) Report {
	report := Report{Format: format.ID, Matches: n}
	for i := 0; i < n; i++ {
		start := domain.NewMatch("A", "B", format, domain.Sides[i%2])
		final, played := s.PlayMatch(start, maxPoints)
		if !final.IsComplete {
			report.Unfinished++
			continue
		}

		report.Wins[final.Winner]++
		report.Points += played
		report.Scorelines = append(report.Scorelines, final.Scoreline())
		for i, set := range final.Sets {
			switch {
			case format.SuperTiebreak && i == format.MaxSets()-1:
				report.SuperTiebreaks++
			case set[domain.SideA]+set[domain.SideB] == 2*format.GamesPerSet+1 &&
				(set[domain.SideA] == format.GamesPerSet+1 || set[domain.SideB] == format.GamesPerSet+1) &&
				abs(set.Lead(domain.SideA)) == 1:
				report.Tiebreaks++
			}
		}
	}
	return report
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
