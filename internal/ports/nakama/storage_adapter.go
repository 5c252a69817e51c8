package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"courtside/internal/ports"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// StorageArchive implements ports.ArchivePort using Nakama storage objects.
type StorageArchive struct {
	nk         runtime.NakamaModule
	collection string
}

// NewStorageArchive creates an archive writing into collection.
func NewStorageArchive(nk runtime.NakamaModule, collection string) *StorageArchive {
	return &StorageArchive{nk: nk, collection: collection}
}

// ArchiveMatch writes record as a publicly readable object clients cannot modify.
func (a *StorageArchive) ArchiveMatch(ctx context.Context, ownerID, key string, record ports.MatchRecord) (string, error) {
	if a == nil || a.nk == nil {
		return "", fmt.Errorf("storage archive is not configured")
	}

	value, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal match record: %w", err)
	}

	if key == "" {
		key = uuid.NewString()
	}
	writes := []*runtime.StorageWrite{
		{
			Collection:      a.collection,
			Key:             key,
			UserID:          ownerID,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_PUBLIC_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}

	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return "", fmt.Errorf("failed to archive match %s: %w", record.MatchID, err)
	}
	return key, nil
}

var _ ports.ArchivePort = (*StorageArchive)(nil)
