package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/share"
	"github.com/linkvault/linkvault/pkg/storage"
	memblob "github.com/linkvault/linkvault/pkg/storage/blobstore/memory"
	memdb "github.com/linkvault/linkvault/pkg/storage/database/memory"
	"github.com/linkvault/linkvault/pkg/storage/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSweeperReclaimsOnStartup(t *testing.T) {
	db := memdb.NewDatabase()
	engine := share.NewEngine(&storage.Services{Database: db, BlobStore: memblob.NewStorage()}, config.Shares{})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, db.CreateShare(ctx, &models.Share{
		ShareID:     "expired00000",
		ContentType: models.ContentTypeText,
		TextContent: "old",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))
	require.NoError(t, db.CreateShare(ctx, &models.Share{
		ShareID:     "active000000",
		ContentType: models.ContentTypeText,
		TextContent: "fresh",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSweeper(ctx, config.Sweeper{IntervalMinutes: 1}, engine)
	}()

	// The first sweep runs immediately, before the first tick.
	assert.Eventually(t, func() bool {
		_, err := db.GetShare(ctx, "expired00000")
		return errors.Is(err, models.ErrShareNotFound)
	}, 3*time.Second, 50*time.Millisecond)

	_, err := db.GetShare(ctx, "active000000")
	assert.NoError(t, err)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
