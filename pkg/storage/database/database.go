package database

import (
	"context"
	"errors"
	"time"

	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/storage/database/gorm"
	"github.com/linkvault/linkvault/pkg/storage/database/memory"
	"github.com/linkvault/linkvault/pkg/storage/database/models"
)

// Database is the share record store. Implementations must provide the
// listed operations atomically against a backend with at least
// read-committed isolation; all gating (expiry, password, one-time,
// view limit) is the caller's responsibility.
type Database interface {
	// CreateShare inserts a new record. Returns
	// models.ErrDuplicateShareID when the share id collides.
	CreateShare(ctx context.Context, share *models.Share) error

	GetShare(ctx context.Context, shareID string) (models.Share, error)

	// RecordShareView increments the view count by one and returns the
	// post-increment record in a single indivisible step. The returned
	// ViewCount is authoritative for the caller's response. Two callers
	// racing past a gate check may both increment, so a view limit can
	// be exceeded by at most the number of requests in flight at the
	// boundary; the store does not re-check gates.
	RecordShareView(ctx context.Context, shareID string) (models.Share, error)

	// DeleteShare removes the record and reports how many rows were
	// deleted. Deleting an absent id returns 0, nil.
	DeleteShare(ctx context.Context, shareID string) (int64, error)

	// GetSharesByOwner returns metadata projections, newest first.
	GetSharesByOwner(ctx context.Context, ownerID string) ([]models.ShareInfo, error)

	GetExpiredShares(ctx context.Context, now time.Time) ([]models.Share, error)
}

func NewConnection(conf config.Database) (Database, error) {
	switch conf.Type {
	case "sqlite", "postgres":
		return gorm.NewGorm(conf)
	case "memory":
		return memory.NewDatabase(), nil
	}

	return nil, errors.New("unsupported database type: " + conf.Type)
}
