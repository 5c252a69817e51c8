package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"courtside/internal/app"
	"courtside/internal/config"
	"courtside/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 100
)

var scorerTokens *app.ScorerTokenService

// scorerTokenService returns the module-wide token service, building one from
// the runtime env when InitModule has not installed it. Without a secret the
// service issues and accepts nothing, leaving the owner as the only scorer.
func scorerTokenService(ctx context.Context, logger runtime.Logger, cfg config.ScoringConfig) *app.ScorerTokenService {
	if scorerTokens != nil {
		return scorerTokens
	}

	env := config.EnvFrom(runtimeEnv(ctx))
	if env.ScorerSecret == "" {
		logger.Error("Scorer secret %q missing from env, scorer tokens are disabled.", config.EnvScorerSecret)
	}
	return app.NewScorerTokenService(env.ScorerSecret, env.TokenIssuer, time.Duration(cfg.ScorerTokenTTLSeconds)*time.Second)
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcCreateMatch: rpcCreateMatch,
		RpcListMatches: rpcListMatches,
		RpcScorerToken: rpcScorerToken,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

// CreateMatchResponse is returned by create_match.
type CreateMatchResponse struct {
	MatchID     string `json:"match_id"`
	ScorerToken string `json:"scorer_token,omitempty"`
}

// rpcCreateMatch creates a tennis match owned by the caller.
//
// Payload: {"name_a": "...", "name_b": "...", "format": "best_of_3", "server": "A", "autoplay": false}
// Returns: {"match_id": "...", "scorer_token": "..."}; scorer_token is omitted when tokens are disabled.
func rpcCreateMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}

	if err := config.LoadScoringConfig(scoringConfigPath); err != nil {
		logger.Warn("RpcCreateMatch: Could not load scoring config, using defaults: %v", err)
	}
	cfg := config.GetScoringConfig()

	req := NewMatchRequest{Server: domain.NoSide}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", codeInvalidArgument)
		}
	}
	req, err := normalizeMatchRequest(req, cfg)
	if err != nil {
		return "", runtime.NewError(err.Error(), codeInvalidArgument)
	}

	params := map[string]interface{}{
		ParamNameA:    req.NameA,
		ParamNameB:    req.NameB,
		ParamFormat:   string(req.Format),
		ParamServer:   req.Server.String(),
		ParamOwner:    userID,
		ParamAutoplay: req.Autoplay,
	}
	matchID, err := nk.MatchCreate(ctx, MatchNameTennis, params)
	if err != nil {
		logger.Error("RpcCreateMatch [User:%s]: Failed to create match: %v", userID, err)
		return "", runtime.NewError("could not create match", codeInternal)
	}

	token, err := scorerTokenService(ctx, logger, cfg).Issue(matchID, domain.NoSide)
	if errors.Is(err, app.ErrTokensDisabled) {
		logger.Warn("RpcCreateMatch [User:%s]: Match %s created without a scorer token: %v", userID, matchID, err)
		err = nil
	}
	if err != nil {
		logger.Error("RpcCreateMatch [User:%s]: Failed to issue scorer token: %v", userID, err)
		return "", runtime.NewError("could not issue scorer token", codeInternal)
	}

	logger.Info("RpcCreateMatch [User:%s]: Created %s match %s", userID, req.Format, matchID)
	b, _ := json.Marshal(CreateMatchResponse{MatchID: matchID, ScorerToken: token})
	return string(b), nil
}

// MatchSummary describes one listed match.
type MatchSummary struct {
	MatchID string          `json:"match_id"`
	Size    int32           `json:"size"`
	Label   json.RawMessage `json:"label,omitempty"`
}

// ListMatchesResponse is returned by list_matches.
type ListMatchesResponse struct {
	Matches []MatchSummary `json:"matches"`
}

// rpcListMatches lists unfinished tennis matches.
//
// Payload: (Optional) {"limit": 20, "format": "best_of_3"}
func rpcListMatches(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req struct {
		Limit  int             `json:"limit"`
		Format domain.FormatID `json:"format"`
	}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", codeInvalidArgument)
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultMatchLimit
	}
	if limit > maxMatchLimit {
		limit = maxMatchLimit
	}

	query := listMatchesQuery(req.Format)
	matches, err := nk.MatchList(ctx, limit, true, "", nil, nil, query)
	if err != nil {
		logger.Error("RpcListMatches: Failed to list matches: %v", err)
		return "", runtime.NewError("could not list matches", codeInternal)
	}

	resp := ListMatchesResponse{Matches: make([]MatchSummary, 0, len(matches))}
	for _, m := range matches {
		summary := MatchSummary{MatchID: m.GetMatchId(), Size: m.GetSize()}
		if label := m.GetLabel().GetValue(); json.Valid([]byte(label)) {
			summary.Label = json.RawMessage(label)
		}
		resp.Matches = append(resp.Matches, summary)
	}

	b, _ := json.Marshal(resp)
	return string(b), nil
}

func listMatchesQuery(format domain.FormatID) string {
	query := "+label.game:tennis +label.complete:F"
	if _, ok := domain.Format(format); ok {
		query += " +label.format:" + string(format)
	}
	return query
}

// ScorerTokenResponse is returned by scorer_token.
type ScorerTokenResponse struct {
	Token string `json:"token"`
}

// rpcScorerToken asks a match to issue a scorer token. Only the match owner succeeds.
//
// Payload: {"match_id": "...", "side": "A" | "B" | ""}
func rpcScorerToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}

	req := struct {
		MatchID string      `json:"match_id"`
		Side    domain.Side `json:"side"`
	}{Side: domain.NoSide}
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.MatchID == "" {
		return "", runtime.NewError("match_id is required", codeInvalidArgument)
	}

	signal, _ := json.Marshal(signalRequest{Op: signalIssueToken, UserID: userID, Side: req.Side})
	raw, err := nk.MatchSignal(ctx, req.MatchID, string(signal))
	if err != nil {
		logger.Warn("RpcScorerToken [User:%s]: Signal to %s failed: %v", userID, req.MatchID, err)
		return "", runtime.NewError("match not found", codeNotFound)
	}

	var resp signalResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", runtime.NewError("invalid match response", codeInternal)
	}
	if resp.Error != "" {
		return "", runtime.NewError(resp.Error, resp.Code)
	}

	b, _ := json.Marshal(ScorerTokenResponse{Token: resp.Token})
	return string(b), nil
}
