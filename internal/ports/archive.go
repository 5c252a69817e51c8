package ports

import (
	"context"
	"time"

	"courtside/internal/domain"
)

// MatchRecord is the durable summary of a finished match.
type MatchRecord struct {
	MatchID     string          `json:"match_id"`
	Players     [2]string       `json:"players"`
	Format      domain.FormatID `json:"format"`
	Winner      domain.Side     `json:"winner"`
	Sets        []domain.Tally  `json:"sets"`
	Scoreline   string          `json:"scoreline"`
	CompletedAt time.Time       `json:"completed_at"`
}

// ArchivePort defines the interface for persisting finished matches.
type ArchivePort interface {
	// ArchiveMatch stores record under ownerID. An empty ownerID stores a system-owned record.
	// An empty key allocates a new one; a known key overwrites that record.
	// Returns the key the record was stored under.
	ArchiveMatch(ctx context.Context, ownerID, key string, record MatchRecord) (string, error)
}
