package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtside/internal/app"
	"courtside/internal/config"
	"courtside/internal/domain"
	"courtside/internal/ports"
	"courtside/internal/sim"

	"github.com/heroiclabs/nakama-common/runtime"
)

const scoringConfigPath = "data/scoring_config.json"

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	MatchID          string                      `json:"match_id"`
	Owner            string                      `json:"owner"`              // User ID that created the match
	Tick             int64                       `json:"tick"`               // Current tick of the match
	EmptySinceTick   int64                       `json:"empty_since_tick"`   // Tick when the last presence left
	NextAutoplayTick int64                       `json:"next_autoplay_tick"` // Tick when the simulator scores next
	ArchiveKey       string                      `json:"archive_key"`        // Storage key of the archived result
	ArchivedResult   string                      `json:"archived_result"`    // Scoreline stored under ArchiveKey
	Presences        map[string]runtime.Presence `json:"-"`                  // Map UserId -> Presence for targeted messaging
	Scorers          map[string]app.ScorerGrant  `json:"-"`                  // Map UserId -> scoring rights
	App              *app.Service                `json:"-"`                  // Scorekeeping service for this court
	Tokens           *app.ScorerTokenService     `json:"-"`
	Archive          ports.ArchivePort           `json:"-"`
	Autoplay         *sim.Simulator              `json:"-"` // Non-nil when the match plays itself
	Throttle         *scorerThrottle             `json:"-"`
	Now              func() time.Time            `json:"-"`
	Config           config.ScoringConfig        `json:"-"`
}

func newMatchState(matchID, owner string, cfg config.ScoringConfig) *MatchState {
	return &MatchState{
		MatchID:   matchID,
		Owner:     owner,
		Presences: make(map[string]runtime.Presence),
		Scorers:   make(map[string]app.ScorerGrant),
		App:       app.NewService(),
		Throttle:  newScorerThrottle(cfg.ScorerMinInterval(), cfg.ScorerBurst),
		Now:       time.Now,
		Config:    cfg,
	}
}

// authorizeJoin decides whether userID may join with metadata and records
// scoring rights for accepted scorers.
func (ms *MatchState) authorizeJoin(userID string, metadata map[string]string) (bool, string) {
	switch role := strings.ToLower(strings.TrimSpace(metadata[MetaRole])); role {
	case "", RoleSpectator:
		return true, ""
	case RoleScorer:
		if userID != "" && userID == ms.Owner {
			ms.Scorers[userID] = app.ScorerGrant{MatchID: ms.MatchID, Side: domain.NoSide}
			return true, ""
		}
		grant, err := ms.Tokens.Verify(metadata[MetaToken], ms.MatchID)
		if err != nil {
			return false, "invalid scorer token"
		}
		ms.Scorers[userID] = grant
		return true, ""
	default:
		return false, fmt.Sprintf("unknown role %q", role)
	}
}

// idleExpired reports whether the match has been empty long enough to end.
func (ms *MatchState) idleExpired() bool {
	if len(ms.Presences) > 0 {
		return false
	}
	limit := int64(ms.Config.IdleTimeoutSeconds) * int64(ms.Config.TickRate)
	return ms.Tick-ms.EmptySinceTick >= limit
}

// startMatch loads a new match into the service.
func (ms *MatchState) startMatch(req NewMatchRequest) ([]app.Event, error) {
	req, err := normalizeMatchRequest(req, ms.Config)
	if err != nil {
		return nil, err
	}
	events, err := ms.App.NewMatch(req.NameA, req.NameB, req.Format, req.Server)
	if err != nil {
		return nil, err
	}
	ms.ArchiveKey = ""
	ms.ArchivedResult = ""
	ms.NextAutoplayTick = ms.Tick + int64(ms.Config.AutoplayDelayTicks)
	return events, nil
}

// normalizeMatchRequest fills defaults and checks the format against cfg.
func normalizeMatchRequest(req NewMatchRequest, cfg config.ScoringConfig) (NewMatchRequest, error) {
	req.NameA = strings.TrimSpace(req.NameA)
	req.NameB = strings.TrimSpace(req.NameB)
	if req.NameA == "" {
		req.NameA = "Player A"
	}
	if req.NameB == "" {
		req.NameB = "Player B"
	}
	if req.Format == "" {
		req.Format = cfg.DefaultFormat
	}
	if !cfg.FormatAllowed(req.Format) {
		return req, fmt.Errorf("%w: %s", app.ErrUnknownFormat, req.Format)
	}
	if !req.Server.Valid() {
		req.Server = domain.SideA
	}
	return req, nil
}

// parseMatchParams reads the params given to nk.MatchCreate.
func parseMatchParams(params map[string]interface{}) (NewMatchRequest, string, error) {
	req := NewMatchRequest{
		NameA:  stringParam(params, ParamNameA),
		NameB:  stringParam(params, ParamNameB),
		Format: domain.FormatID(stringParam(params, ParamFormat)),
		Server: domain.NoSide,
	}
	if raw := stringParam(params, ParamServer); raw != "" {
		side, err := domain.ParseSide(raw)
		if err != nil {
			return req, "", err
		}
		req.Server = side
	}
	req.Autoplay, _ = params[ParamAutoplay].(bool)
	return req, stringParam(params, ParamOwner), nil
}

func stringParam(params map[string]interface{}, key string) string {
	v, _ := params[key].(string)
	return v
}

func runtimeEnv(ctx context.Context) map[string]string {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	return env
}

// errorCode maps service errors onto OpError codes.
func errorCode(err error) int {
	switch {
	case errors.Is(err, app.ErrNoMatch):
		return ErrCodeNoMatch
	case errors.Is(err, app.ErrInvalidSide), errors.Is(err, app.ErrUnknownFormat), errors.Is(err, app.ErrBlankName):
		return ErrCodeBadRequest
	default:
		return ErrCodeRejected
	}
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing tennis match.")

	if err := config.LoadScoringConfig(scoringConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load scoring config, using defaults: %v", err)
	}
	cfg := config.GetScoringConfig()

	req, owner, err := parseMatchParams(params)
	if err != nil {
		logger.Error("MatchInit: Invalid match params: %v", err)
		return nil, 0, ""
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	state := newMatchState(matchID, owner, cfg)
	state.Tokens = scorerTokenService(ctx, logger, cfg)
	state.Archive = NewStorageArchive(nk, cfg.ArchiveCollection)

	if req.Autoplay {
		if config.EnvFrom(runtimeEnv(ctx)).AutoplayEnabled {
			state.Autoplay = sim.New(nil, sim.DefaultTuning)
		} else {
			logger.Warn("MatchInit: Autoplay requested but disabled by env.")
		}
	}

	if _, err := state.startMatch(req); err != nil {
		logger.Error("MatchInit: Failed to start match: %v", err)
		return nil, 0, ""
	}

	label, err := matchLabel(state)
	if err != nil {
		logger.Error("MatchInit: %v", err)
		return nil, 0, ""
	}

	return state, cfg.TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	accepted, reason := matchState.authorizeJoin(presence.GetUserId(), metadata)
	if !accepted {
		logger.Warn("MatchJoinAttempt: Rejected %s: %s", presence.GetUserId(), reason)
	}
	return matchState, accepted, reason
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		_, scorer := matchState.Scorers[p.GetUserId()]
		logger.Debug("MatchJoin: User %s joined (scorer=%t).", p.GetUserId(), scorer)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(matchState, dispatcher, logger, presences)

	return matchState
}

// MatchLeave is called when one or more presences leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		delete(matchState.Scorers, p.GetUserId())
		matchState.Throttle.forget(p.GetUserId())
		logger.Debug("MatchLeave: User %s left.", p.GetUserId())
	}

	if len(matchState.Presences) == 0 {
		matchState.EmptySinceTick = tick
	}

	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	// Messages are applied strictly in arrival order.
	changed := false
	for _, msg := range messages {
		if mh.handleMessage(matchState, dispatcher, logger, msg.GetUserId(), msg.GetOpCode(), msg.GetData()) {
			changed = true
		}
	}

	if mh.processAutoplay(matchState, dispatcher, logger) {
		changed = true
	}

	if changed {
		mh.broadcastSnapshot(matchState, dispatcher, logger, nil)
		mh.updateLabel(matchState, dispatcher, logger)
		mh.archiveIfComplete(ctx, matchState, logger)
	}

	if matchState.idleExpired() {
		logger.Info("MatchLoop: Terminating idle match %s.", matchState.MatchID)
		return nil
	}

	return matchState
}

// handleMessage applies one client command and reports whether the match changed.
func (mh *matchHandler) handleMessage(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, data []byte) bool {
	var (
		events []app.Event
		err    error
	)

	switch opCode {
	case OpScorePoint:
		grant, ok := state.Scorers[userID]
		if !ok {
			mh.sendError(state, dispatcher, logger, userID, ErrCodeForbidden, "only scorers may score points")
			return false
		}
		req := ScorePointRequest{Side: domain.NoSide}
		if err := json.Unmarshal(data, &req); err != nil || !req.Side.Valid() {
			mh.sendError(state, dispatcher, logger, userID, ErrCodeBadRequest, "side must be A or B")
			return false
		}
		if !grant.Allows(req.Side) {
			mh.sendError(state, dispatcher, logger, userID, ErrCodeForbidden, "token may only score for side "+grant.Side.String())
			return false
		}
		if !state.Throttle.allow(userID, state.Now()) {
			mh.sendError(state, dispatcher, logger, userID, ErrCodeThrottled, "too many commands")
			return false
		}
		events, err = state.App.ScorePoint(req.Side)

	case OpUndo:
		if _, ok := state.Scorers[userID]; !ok {
			mh.sendError(state, dispatcher, logger, userID, ErrCodeForbidden, "only scorers may undo")
			return false
		}
		if !state.Throttle.allow(userID, state.Now()) {
			mh.sendError(state, dispatcher, logger, userID, ErrCodeThrottled, "too many commands")
			return false
		}
		// An empty history makes this a quiet no-op.
		events, err = state.App.Undo()

	case OpReset:
		if userID != state.Owner {
			mh.sendError(state, dispatcher, logger, userID, ErrCodeForbidden, "only the owner may reset the match")
			return false
		}
		events = state.App.Reset()

	case OpNewMatch:
		if userID != state.Owner {
			mh.sendError(state, dispatcher, logger, userID, ErrCodeForbidden, "only the owner may start a match")
			return false
		}
		req := NewMatchRequest{Server: domain.NoSide}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &req); err != nil {
				mh.sendError(state, dispatcher, logger, userID, ErrCodeBadRequest, "invalid new match request")
				return false
			}
		}
		events, err = state.startMatch(req)

	default:
		logger.Warn("MatchLoop: Unknown opcode received: %d", opCode)
		return false
	}

	if err != nil {
		logger.Warn("MatchLoop: Op %d from %s rejected: %v", opCode, userID, err)
		mh.sendError(state, dispatcher, logger, userID, errorCode(err), err.Error())
		return false
	}

	for _, ev := range events {
		mh.broadcastEvent(dispatcher, logger, ev)
	}
	return len(events) > 0
}

// processAutoplay lets the simulator score one point when it is due.
func (mh *matchHandler) processAutoplay(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) bool {
	if state.Autoplay == nil || state.Tick < state.NextAutoplayTick {
		return false
	}
	current, ok := state.App.Snapshot()
	if !ok || current.IsComplete {
		return false
	}

	state.NextAutoplayTick = state.Tick + int64(state.Config.AutoplayDelayTicks)
	side := state.Autoplay.NextPoint(current)
	events, err := state.App.ScorePoint(side)
	if err != nil {
		logger.Error("processAutoplay: Failed to score for %s: %v", side, err)
		return false
	}

	for _, ev := range events {
		mh.broadcastEvent(dispatcher, logger, ev)
	}
	return len(events) > 0
}

// archiveIfComplete stores a finished result, rewriting it when an undo changed it.
func (mh *matchHandler) archiveIfComplete(ctx context.Context, state *MatchState, logger runtime.Logger) {
	if state.Archive == nil {
		return
	}
	current, ok := state.App.Snapshot()
	if !ok || !current.IsComplete {
		return
	}
	scoreline := current.Scoreline()
	if state.ArchiveKey != "" && state.ArchivedResult == scoreline {
		return
	}

	record := ports.MatchRecord{
		MatchID:     state.MatchID,
		Players:     current.Players,
		Format:      current.Format.ID,
		Winner:      current.Winner,
		Sets:        current.Sets,
		Scoreline:   scoreline,
		CompletedAt: state.Now().UTC(),
	}
	key, err := state.Archive.ArchiveMatch(ctx, state.Owner, state.ArchiveKey, record)
	if err != nil {
		logger.Error("archiveIfComplete: %v", err)
		return
	}

	state.ArchiveKey = key
	state.ArchivedResult = scoreline
	logger.WithFields(map[string]interface{}{
		"match_id": state.MatchID,
		"key":      key,
	}).Info("Match archived: %s def. %s %s", current.Name(current.Winner), current.Name(current.Winner.Other()), scoreline)
}

// broadcastSnapshot sends the full match view to presences, or to everyone when presences is nil.
func (mh *matchHandler) broadcastSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, presences []runtime.Presence) {
	bytes, err := json.Marshal(buildSnapshot(state))
	if err != nil {
		logger.Error("Failed to marshal snapshot: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpMatchSnapshot, bytes, presences, nil, true); err != nil {
		logger.Error("Failed to broadcast snapshot: %v", err)
	}
}

func (mh *matchHandler) broadcastEvent(dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	bytes, err := encodeEvent(ev)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}
	logger.Debug("Event: %s", ev.Kind)
	if err := dispatcher.BroadcastMessage(OpMatchEvent, bytes, nil, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := json.Marshal(ErrorMessage{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal error message: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	if err := dispatcher.BroadcastMessage(OpError, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send error to %s: %v", userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminating with %d grace seconds", graceSeconds)
	if matchState, ok := state.(*MatchState); ok {
		mh.archiveIfComplete(ctx, matchState, logger)
	}
	return state
}

// signalRequest is the MatchSignal payload used by the scorer_token RPC.
type signalRequest struct {
	Op     string      `json:"op"`
	UserID string      `json:"user_id"`
	Side   domain.Side `json:"side"`
}

type signalResponse struct {
	Token string `json:"token,omitempty"`
	Code  int    `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

const signalIssueToken = "issue_scorer_token"

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}

	resp := mh.handleSignal(matchState, logger, data)
	out, err := json.Marshal(resp)
	if err != nil {
		logger.Error("MatchSignal: Failed to marshal response: %v", err)
		return matchState, ""
	}
	return matchState, string(out)
}

func (mh *matchHandler) handleSignal(state *MatchState, logger runtime.Logger, data string) signalResponse {
	req := signalRequest{Side: domain.NoSide}
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return signalResponse{Code: codeInvalidArgument, Error: "invalid signal payload"}
	}
	if req.Op != signalIssueToken {
		return signalResponse{Code: codeInvalidArgument, Error: "unknown signal " + req.Op}
	}
	if req.UserID == "" || req.UserID != state.Owner {
		return signalResponse{Code: codePermissionDenied, Error: "only the match owner may issue scorer tokens"}
	}

	token, err := state.Tokens.Issue(state.MatchID, req.Side)
	if errors.Is(err, app.ErrTokensDisabled) {
		logger.Warn("MatchSignal: Scorer tokens are disabled for match %s.", state.MatchID)
		return signalResponse{Code: codeFailedPrecondition, Error: "scorer tokens are disabled on this server"}
	}
	if err != nil {
		logger.Error("MatchSignal: Failed to issue scorer token: %v", err)
		return signalResponse{Code: codeInternal, Error: "could not issue token"}
	}
	logger.Info("MatchSignal: Issued scorer token for match %s (side=%q).", state.MatchID, req.Side.String())
	return signalResponse{Token: token}
}
