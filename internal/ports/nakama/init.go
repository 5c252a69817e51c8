package nakama

import (
	"context"
	"database/sql"

	"courtside/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadScoringConfig(scoringConfigPath); err != nil {
		logger.Warn("Could not load scoring config, using defaults: %v", err)
	}
	cfg := config.GetScoringConfig()

	env := config.EnvFrom(runtimeEnv(ctx))
	scorerTokens = nil
	scorerTokens = scorerTokenService(ctx, logger, cfg)

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameTennis, NewMatch); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"default_format": cfg.DefaultFormat,
		"tick_rate":      cfg.TickRate,
		"autoplay":       env.AutoplayEnabled,
	}).Info("Courtside Go module loaded.")
	return nil
}
