package domain

// AddPoint returns the state after side wins the next point. The input is never
// modified. Scoring a completed match returns an equal copy.
func AddPoint(state MatchState, side Side) MatchState {
	next := state.Clone()
	if next.IsComplete || !side.Valid() {
		return next
	}

	if next.Tiebreak {
		next.scoreTiebreakPoint(side)
		return next
	}

	next.scoreGamePoint(side)
	return next
}

// TiebreakTarget is the number of points needed to win the active tiebreak.
func (s MatchState) TiebreakTarget() int {
	if s.SuperTiebreak {
		return s.Format.SuperTiebreakPoints
	}
	return standardTiebreakPoints
}

func (s *MatchState) scoreTiebreakPoint(side Side) {
	s.TiebreakPoints[side]++

	if s.TiebreakPoints[side] >= s.TiebreakTarget() && s.TiebreakPoints.Lead(side) >= 2 {
		if s.SuperTiebreak {
			s.Sets[len(s.Sets)-1] = s.TiebreakPoints
			s.completeMatch(side)
			return
		}
		// The tiebreak counts as one extra game for its winner.
		s.Games[side]++
		s.winSet(side)
		return
	}

	// Serve changes after the first point, then after every second point.
	if s.TiebreakPoints.Total()%2 == 1 {
		s.rotateServer()
	}
}

func (s *MatchState) scoreGamePoint(side Side) {
	opp := side.Other()
	own, theirs := s.Points[side], s.Points[opp]

	switch {
	case own >= Point40 && theirs >= Point40:
		switch {
		case own == PointAdvantage:
			s.winGame(side)
		case theirs == PointAdvantage:
			s.Points[opp] = Point40
		default:
			s.Points[side] = PointAdvantage
		}
	case own == Point40:
		s.winGame(side)
	default:
		s.Points[side] = own + 1
	}
}

func (s *MatchState) winGame(side Side) {
	s.Games[side]++
	s.Points = [2]Point{}
	s.Sets[len(s.Sets)-1] = s.Games

	if s.Games[side] < s.Format.GamesPerSet {
		s.rotateServer()
		return
	}

	switch {
	case s.Games.Lead(side) >= 2:
		s.winSet(side)
	case s.Games[SideA] >= s.Format.TiebreakAt && s.Games[SideB] >= s.Format.TiebreakAt && s.tiebreakAllowed():
		// The tiebreak's own rotation rule takes over from here.
		s.Tiebreak = true
		s.SuperTiebreak = false
		s.TiebreakPoints = Tally{}
	default:
		s.rotateServer()
	}
}

// tiebreakAllowed is false only in a deciding set of a format that plays it
// out by two clear games.
func (s *MatchState) tiebreakAllowed() bool {
	if s.Format.FinalSetTiebreak {
		return true
	}
	return !s.InDecidingSet()
}

func (s *MatchState) winSet(side Side) {
	s.Sets[len(s.Sets)-1] = s.Games
	s.Games = Tally{}
	s.Points = [2]Point{}
	s.Tiebreak = false
	s.SuperTiebreak = false
	s.TiebreakPoints = Tally{}

	won := countSets(s.Sets)
	need := s.Format.SetsToWin
	switch {
	case won[side] >= need:
		s.completeMatch(side)
	case s.Format.SuperTiebreak && won[SideA] == need-1 && won[SideB] == need-1:
		s.Sets = append(s.Sets, Tally{})
		s.Tiebreak = true
		s.SuperTiebreak = true
	default:
		s.Sets = append(s.Sets, Tally{})
	}
	s.rotateServer()
}

func (s *MatchState) completeMatch(side Side) {
	s.IsComplete = true
	s.Winner = side
}

func (s *MatchState) rotateServer() {
	s.Server = s.Server.Other()
}
