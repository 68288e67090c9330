// In-memory record store. Used in tests and for running the service
// without a database; shares do not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linkvault/linkvault/pkg/storage/database/models"
)

type Database struct {
	mu     sync.Mutex
	shares map[string]models.Share
}

func NewDatabase() *Database {
	return &Database{
		shares: map[string]models.Share{},
	}
}

func (db *Database) CreateShare(ctx context.Context, share *models.Share) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.shares[share.ShareID]; ok {
		return models.ErrDuplicateShareID
	}
	if share.CreatedAt.IsZero() {
		share.CreatedAt = time.Now()
	}
	db.shares[share.ShareID] = *share
	return nil
}

func (db *Database) GetShare(ctx context.Context, shareID string) (models.Share, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	share, ok := db.shares[shareID]
	if !ok {
		return models.Share{}, models.ErrShareNotFound
	}
	return share, nil
}

func (db *Database) RecordShareView(ctx context.Context, shareID string) (models.Share, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	share, ok := db.shares[shareID]
	if !ok {
		return models.Share{}, models.ErrShareNotFound
	}
	share.ViewCount++
	db.shares[shareID] = share
	return share, nil
}

func (db *Database) DeleteShare(ctx context.Context, shareID string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.shares[shareID]; !ok {
		return 0, nil
	}
	delete(db.shares, shareID)
	return 1, nil
}

func (db *Database) GetSharesByOwner(ctx context.Context, ownerID string) ([]models.ShareInfo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	infos := make([]models.ShareInfo, 0)
	for _, share := range db.shares {
		if share.OwnerID == ownerID && ownerID != "" {
			infos = append(infos, share.Info())
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

func (db *Database) GetExpiredShares(ctx context.Context, now time.Time) ([]models.Share, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	expired := make([]models.Share, 0)
	for _, share := range db.shares {
		if share.ExpiresAt.Before(now) {
			expired = append(expired, share)
		}
	}
	return expired, nil
}
