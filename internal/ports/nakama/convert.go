package nakama

import (
	"encoding/json"
	"fmt"

	"courtside/internal/app"
	"courtside/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// SnapshotMessage is the OpMatchSnapshot payload.
type SnapshotMessage struct {
	Active    bool               `json:"active"`
	State     *domain.MatchState `json:"state,omitempty"`
	Status    domain.Status      `json:"status"`
	SetsWon   domain.Tally       `json:"sets_won"`
	CanUndo   bool               `json:"can_undo"`
	Scoreline string             `json:"scoreline"`
	Call      string             `json:"call"`
	Scorers   int                `json:"scorers"`
}

// EventMessage is the OpMatchEvent payload.
type EventMessage struct {
	Kind    app.EventKind `json:"kind"`
	Payload any           `json:"payload,omitempty"`
}

// ErrorMessage is the OpError payload.
type ErrorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ScorePointRequest is the OpScorePoint payload.
type ScorePointRequest struct {
	Side domain.Side `json:"side"`
}

// NewMatchRequest is the OpNewMatch payload and the create_match RPC payload.
type NewMatchRequest struct {
	NameA    string          `json:"name_a"`
	NameB    string          `json:"name_b"`
	Format   domain.FormatID `json:"format"`
	Server   domain.Side     `json:"server"`
	Autoplay bool            `json:"autoplay,omitempty"`
}

func buildSnapshot(state *MatchState) SnapshotMessage {
	msg := SnapshotMessage{Scorers: len(state.Scorers)}
	current, ok := state.App.Snapshot()
	if !ok {
		return msg
	}
	msg.Active = true
	msg.State = &current
	msg.Status = domain.Classify(current)
	msg.SetsWon = current.SetsWon()
	msg.CanUndo = state.App.CanUndo()
	msg.Scoreline = current.Scoreline()
	msg.Call = pointCall(current)
	return msg
}

var callWords = [...]string{"love", "15", "30", "40"}

// pointCall renders what an umpire would say, server score first.
func pointCall(s domain.MatchState) string {
	if s.IsComplete {
		return "game set match " + s.Name(s.Winner)
	}

	srv, rcv := s.Server, s.Server.Other()
	if s.Tiebreak {
		return fmt.Sprintf("%d-%d", s.TiebreakPoints[srv], s.TiebreakPoints[rcv])
	}

	ps, pr := s.Points[srv], s.Points[rcv]
	switch {
	case ps == domain.PointAdvantage:
		return "advantage " + s.Name(srv)
	case pr == domain.PointAdvantage:
		return "advantage " + s.Name(rcv)
	case ps == pr && ps == domain.Point40:
		return "deuce"
	case ps == pr:
		return callWords[ps] + " all"
	default:
		return callWords[ps] + "-" + callWords[pr]
	}
}

func encodeEvent(ev app.Event) ([]byte, error) {
	return json.Marshal(EventMessage{Kind: ev.Kind, Payload: ev.Payload})
}

// matchLabel renders the label used by list_matches queries.
func matchLabel(state *MatchState) (string, error) {
	fields := map[string]interface{}{
		"game":     "tennis",
		"format":   "",
		"status":   "",
		"complete": false,
		"scorers":  len(state.Scorers),
	}
	if current, ok := state.App.Snapshot(); ok {
		fields["format"] = string(current.Format.ID)
		fields["status"] = domain.Classify(current).String()
		fields["complete"] = current.IsComplete
	}

	label, err := structpb.NewStruct(fields)
	if err != nil {
		return "", fmt.Errorf("failed to build label: %w", err)
	}
	labelBytes, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", fmt.Errorf("failed to marshal label: %w", err)
	}
	return string(labelBytes), nil
}
