package app

import "courtside/internal/domain"

// EventKind identifies events derived from consecutive match snapshots.
type EventKind string

const (
	EventMatchStarted         EventKind = "match_started"
	EventPointScored          EventKind = "point_scored"
	EventGameWon              EventKind = "game_won"
	EventChangeover           EventKind = "changeover"
	EventTiebreakStarted      EventKind = "tiebreak_started"
	EventSuperTiebreakStarted EventKind = "super_tiebreak_started"
	EventSetWon               EventKind = "set_won"
	EventMatchWon             EventKind = "match_won"
	EventPointUndone          EventKind = "point_undone"
	EventMatchReset           EventKind = "match_reset"
)

// Event is an app event for presentation and announcement collaborators.
type Event struct {
	Kind    EventKind
	Payload any
}

type MatchStartedPayload struct {
	Players [2]string       `json:"players"`
	Format  domain.FormatID `json:"format"`
	Server  domain.Side     `json:"server"`
}

type PointScoredPayload struct {
	Side   domain.Side   `json:"side"`
	Status domain.Status `json:"status"`
}

type GameWonPayload struct {
	Side      domain.Side  `json:"side"`
	Games     domain.Tally `json:"games"`
	SetNumber int          `json:"set_number"`
}

type ChangeoverPayload struct {
	Games     domain.Tally `json:"games"`
	SetNumber int          `json:"set_number"`
}

type TiebreakStartedPayload struct {
	SetNumber int         `json:"set_number"`
	Server    domain.Side `json:"server"`
	Target    int         `json:"target"`
}

type SetWonPayload struct {
	Side      domain.Side  `json:"side"`
	Score     domain.Tally `json:"score"`
	SetNumber int          `json:"set_number"`
	SetsWon   domain.Tally `json:"sets_won"`
}

type MatchWonPayload struct {
	Winner    domain.Side    `json:"winner"`
	Sets      []domain.Tally `json:"sets"`
	Scoreline string         `json:"scoreline"`
}

type PointUndonePayload struct {
	Status domain.Status `json:"status"`
}

// diffEvents derives what happened between prev and next when side won a point.
// Equal snapshots (a point on a finished match) produce no events.
func diffEvents(prev, next domain.MatchState, side domain.Side) []Event {
	if prev.IsComplete {
		return nil
	}

	events := []Event{{
		Kind:    EventPointScored,
		Payload: PointScoredPayload{Side: side, Status: domain.Classify(next)},
	}}

	setNumber := len(prev.Sets)
	setDecided := len(next.Sets) > len(prev.Sets) || next.IsComplete
	gameDecided := setDecided || (!prev.Tiebreak && next.Games != prev.Games)
	inSuperTiebreak := prev.Tiebreak && prev.SuperTiebreak

	if gameDecided && !inSuperTiebreak {
		games := next.Games
		if setDecided {
			games = next.Sets[setNumber-1]
		}
		events = append(events, Event{
			Kind:    EventGameWon,
			Payload: GameWonPayload{Side: side, Games: games, SetNumber: setNumber},
		})
		if games.Total()%2 == 1 {
			events = append(events, Event{
				Kind:    EventChangeover,
				Payload: ChangeoverPayload{Games: games, SetNumber: setNumber},
			})
		}
	}

	if setDecided {
		events = append(events, Event{
			Kind: EventSetWon,
			Payload: SetWonPayload{
				Side:      side,
				Score:     next.Sets[setNumber-1],
				SetNumber: setNumber,
				SetsWon:   next.SetsWon(),
			},
		})
	}

	tiebreakOpened := next.Tiebreak && (!prev.Tiebreak || len(next.Sets) > len(prev.Sets))
	if tiebreakOpened && !next.IsComplete {
		kind := EventTiebreakStarted
		if next.SuperTiebreak {
			kind = EventSuperTiebreakStarted
		}
		events = append(events, Event{
			Kind: kind,
			Payload: TiebreakStartedPayload{
				SetNumber: len(next.Sets),
				Server:    next.Server,
				Target:    next.TiebreakTarget(),
			},
		})
	}

	if next.IsComplete {
		events = append(events, Event{
			Kind: EventMatchWon,
			Payload: MatchWonPayload{
				Winner:    next.Winner,
				Sets:      next.Sets,
				Scoreline: next.Scoreline(),
			},
		})
	}

	return events
}
