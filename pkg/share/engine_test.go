package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/credentials"
	"github.com/linkvault/linkvault/pkg/expiry"
	"github.com/linkvault/linkvault/pkg/shareid"
	"github.com/linkvault/linkvault/pkg/storage"
	memblob "github.com/linkvault/linkvault/pkg/storage/blobstore/memory"
	"github.com/linkvault/linkvault/pkg/storage/database"
	memdb "github.com/linkvault/linkvault/pkg/storage/database/memory"
	"github.com/linkvault/linkvault/pkg/storage/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *memdb.Database, *memblob.Storage) {
	t.Helper()
	db := memdb.NewDatabase()
	blobs := memblob.NewStorage()
	engine := NewEngine(&storage.Services{Database: db, BlobStore: blobs}, config.Shares{
		OneTimeGraceSeconds: 1,
	})
	return engine, db, blobs
}

func textRequest() CreateRequest {
	return CreateRequest{Text: "hello world"}
}

func fileRequest() CreateRequest {
	return CreateRequest{
		File: &FileUpload{
			Name:     "report.pdf",
			Size:     11,
			MimeType: "application/pdf",
			Content:  []byte("not a pdf"),
		},
	}
}

func TestCreateTextShare(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Create(ctx, textRequest())
	require.NoError(t, err)
	assert.Len(t, result.ShareID, shareid.Length)

	// Default expiry is 10 minutes out.
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), result.ExpiresAt, 5*time.Second)

	stored, err := db.GetShare(ctx, result.ShareID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeText, stored.ContentType)
	assert.Equal(t, "hello world", stored.TextContent)
	assert.Empty(t, stored.StoragePath)
	assert.False(t, stored.PasswordProtected)
	assert.Zero(t, stored.ViewCount)
}

func TestCreatePayloadConflict(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx, CreateRequest{})
	assert.ErrorIs(t, err, ErrPayloadConflict)

	req := fileRequest()
	req.Text = "also text"
	_, err = engine.Create(ctx, req)
	assert.ErrorIs(t, err, ErrPayloadConflict)
}

func TestCreateInvalidExpiry(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	req := textRequest()
	req.ExpiryMinutes = -1
	_, err := engine.Create(ctx, req)
	assert.ErrorIs(t, err, expiry.ErrInvalidExpiry)

	req = textRequest()
	req.ExpiryAt = time.Now().Add(-time.Hour)
	_, err = engine.Create(ctx, req)
	assert.ErrorIs(t, err, expiry.ErrInvalidExpiry)
}

func TestCreateInvalidViewLimit(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := textRequest()
	req.MaxViewCount = -3
	_, err := engine.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidViewLimit)
}

func TestCreateFileShare(t *testing.T) {
	engine, db, blobs := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Create(ctx, fileRequest())
	require.NoError(t, err)

	stored, err := db.GetShare(ctx, result.ShareID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeFile, stored.ContentType)
	assert.Equal(t, "report.pdf", stored.FileName)
	assert.Equal(t, result.ShareID+"/report.pdf", stored.StoragePath)
	assert.Equal(t, "application/pdf", stored.FileMimeType)
	assert.NotEmpty(t, stored.FileURL)
	assert.True(t, blobs.Exists(stored.StoragePath))
}

type failingBlobs struct {
	inner     *memblob.Storage
	uploadErr error
	signErr   error
	deleteErr error
}

func (f *failingBlobs) Upload(ctx context.Context, path string, r io.Reader) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	return f.inner.Upload(ctx, path, r)
}

func (f *failingBlobs) Delete(ctx context.Context, path string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.inner.Delete(ctx, path)
}

func (f *failingBlobs) SignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return f.inner.SignedURL(ctx, path, expires)
}

func TestCreateFileUploadFailure(t *testing.T) {
	db := memdb.NewDatabase()
	blobs := &failingBlobs{uploadErr: errors.New("bucket unavailable")}
	engine := NewEngine(&storage.Services{Database: db, BlobStore: blobs}, config.Shares{})

	_, err := engine.Create(context.Background(), fileRequest())
	require.Error(t, err)

	// Upload failed before any insert, so no record may exist.
	expired, err := db.GetExpiredShares(context.Background(), time.Now().Add(366*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestCreateSignedURLFailureIsNotFatal(t *testing.T) {
	db := memdb.NewDatabase()
	blobs := &failingBlobs{inner: memblob.NewStorage(), signErr: errors.New("signer down")}
	engine := NewEngine(&storage.Services{Database: db, BlobStore: blobs}, config.Shares{})
	ctx := context.Background()

	result, err := engine.Create(ctx, fileRequest())
	require.NoError(t, err)

	stored, err := db.GetShare(ctx, result.ShareID)
	require.NoError(t, err)
	assert.Empty(t, stored.FileURL)
}

type collidingDB struct {
	database.Database
	remaining int // -1 collides forever
}

func (c *collidingDB) CreateShare(ctx context.Context, share *models.Share) error {
	if c.remaining != 0 {
		c.remaining--
		return models.ErrDuplicateShareID
	}
	return c.Database.CreateShare(ctx, share)
}

func TestCreateRetriesOnDuplicateID(t *testing.T) {
	db := &collidingDB{Database: memdb.NewDatabase(), remaining: 2}
	engine := NewEngine(&storage.Services{Database: db, BlobStore: memblob.NewStorage()}, config.Shares{})

	result, err := engine.Create(context.Background(), textRequest())
	require.NoError(t, err)
	assert.Len(t, result.ShareID, shareid.Length)
}

func TestCreateIDExhaustion(t *testing.T) {
	db := &collidingDB{Database: memdb.NewDatabase(), remaining: -1}
	engine := NewEngine(&storage.Services{Database: db, BlobStore: memblob.NewStorage()}, config.Shares{})

	_, err := engine.Create(context.Background(), textRequest())
	assert.ErrorIs(t, err, ErrIDExhaustion)
}

func TestViewTextShare(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Create(ctx, textRequest())
	require.NoError(t, err)

	view, err := engine.View(ctx, result.ShareID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeText, view.ContentType)
	assert.Equal(t, "hello world", view.Content)
	assert.Equal(t, 1, view.ViewCount)

	view, err = engine.View(ctx, result.ShareID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, view.ViewCount)
}

func TestViewNotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.View(context.Background(), "nosuchshare", "")
	assert.ErrorIs(t, err, ErrShareNotFound)
}

func TestViewPasswordGates(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	req := textRequest()
	req.Password = "hunter2"
	result, err := engine.Create(ctx, req)
	require.NoError(t, err)

	_, err = engine.View(ctx, result.ShareID, "")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = engine.View(ctx, result.ShareID, "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	// Rejected requests never consume a view slot.
	stored, err := db.GetShare(ctx, result.ShareID)
	require.NoError(t, err)
	assert.Zero(t, stored.ViewCount)

	view, err := engine.View(ctx, result.ShareID, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "hello world", view.Content)
	assert.Equal(t, 1, view.ViewCount)
}

func TestViewLimit(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	req := textRequest()
	req.MaxViewCount = 2
	result, err := engine.Create(ctx, req)
	require.NoError(t, err)

	view, err := engine.View(ctx, result.ShareID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, view.ViewCount)

	view, err = engine.View(ctx, result.ShareID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, view.ViewCount)

	_, err = engine.View(ctx, result.ShareID, "")
	assert.ErrorIs(t, err, ErrViewLimitReached)

	stored, err := db.GetShare(ctx, result.ShareID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ViewCount)
}

func TestViewOneTime(t *testing.T) {
	engine, db, blobs := newTestEngine(t)
	ctx := context.Background()

	req := fileRequest()
	req.OneTimeView = true
	result, err := engine.Create(ctx, req)
	require.NoError(t, err)

	view, err := engine.View(ctx, result.ShareID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, view.ViewCount)
	assert.NotEmpty(t, view.FileURL)

	_, err = engine.View(ctx, result.ShareID, "")
	assert.ErrorIs(t, err, ErrAlreadyConsumed)

	// After the grace period the deferred reclaim removes record and blob.
	path := result.ShareID + "/report.pdf"
	assert.Eventually(t, func() bool {
		_, err := db.GetShare(ctx, result.ShareID)
		return errors.Is(err, models.ErrShareNotFound) && !blobs.Exists(path)
	}, 5*time.Second, 100*time.Millisecond)
}

func TestViewExpiredSelfHeals(t *testing.T) {
	engine, db, blobs := newTestEngine(t)
	ctx := context.Background()

	path := "expired01/old.txt"
	require.NoError(t, blobs.Upload(ctx, path, strings.NewReader("stale")))
	require.NoError(t, db.CreateShare(ctx, &models.Share{
		ShareID:     "expired01aaa",
		ContentType: models.ContentTypeFile,
		FileName:    "old.txt",
		StoragePath: path,
		ExpiresAt:   time.Now().Add(-time.Minute),
	}))

	_, err := engine.View(ctx, "expired01aaa", "")
	assert.ErrorIs(t, err, ErrShareExpired)

	_, err = db.GetShare(ctx, "expired01aaa")
	assert.ErrorIs(t, err, models.ErrShareNotFound)
	assert.False(t, blobs.Exists(path))

	// Indistinguishable from true absence afterwards.
	_, err = engine.Info(ctx, "expired01aaa")
	assert.ErrorIs(t, err, ErrShareNotFound)
}

func TestViewFileRegeneratesSignedURL(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Create(ctx, fileRequest())
	require.NoError(t, err)

	view, err := engine.View(ctx, result.ShareID, "")
	require.NoError(t, err)
	assert.Contains(t, view.FileURL, result.ShareID+"/report.pdf")
	assert.Equal(t, "report.pdf", view.FileName)
	assert.Equal(t, int64(11), view.FileSize)
}

func TestInfoProjection(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	req := textRequest()
	req.Password = "hunter2"
	req.OneTimeView = true
	result, err := engine.Create(ctx, req)
	require.NoError(t, err)

	info, err := engine.Info(ctx, result.ShareID)
	require.NoError(t, err)
	assert.Equal(t, result.ShareID, info.ShareID)
	assert.True(t, info.PasswordProtected)
	assert.True(t, info.OneTimeView)
	assert.Equal(t, models.ContentTypeText, info.ContentType)
}

func TestDeleteOwnership(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	req := textRequest()
	req.OwnerID = "user-1"
	result, err := engine.Create(ctx, req)
	require.NoError(t, err)

	err = engine.Delete(ctx, result.ShareID, "user-2")
	assert.ErrorIs(t, err, ErrForbidden)

	err = engine.Delete(ctx, result.ShareID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, engine.Delete(ctx, result.ShareID, "user-1"))

	_, err = engine.View(ctx, result.ShareID, "")
	assert.ErrorIs(t, err, ErrShareNotFound)
}

func TestDeleteAnonymousShare(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Create(ctx, textRequest())
	require.NoError(t, err)

	// Possession of the id is the access control for anonymous shares.
	require.NoError(t, engine.Delete(ctx, result.ShareID, "somebody-else"))
}

func TestReclaimIdempotent(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Create(ctx, fileRequest())
	require.NoError(t, err)

	stored, err := db.GetShare(ctx, result.ShareID)
	require.NoError(t, err)

	require.NoError(t, engine.Reclaim(ctx, stored))
	require.NoError(t, engine.Reclaim(ctx, stored))
}

func TestReclaimConcurrent(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Create(ctx, textRequest())
	require.NoError(t, err)
	stored, err := db.GetShare(ctx, result.ShareID)
	require.NoError(t, err)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			errs <- engine.Reclaim(ctx, stored)
		}()
	}
	assert.NoError(t, <-errs)
	assert.NoError(t, <-errs)
}

func TestReclaimBlobFailureStillDeletesRecord(t *testing.T) {
	db := memdb.NewDatabase()
	blobs := &failingBlobs{inner: memblob.NewStorage(), deleteErr: errors.New("storage down")}
	engine := NewEngine(&storage.Services{Database: db, BlobStore: blobs}, config.Shares{})
	ctx := context.Background()

	result, err := engine.Create(ctx, fileRequest())
	require.NoError(t, err)
	stored, err := db.GetShare(ctx, result.ShareID)
	require.NoError(t, err)

	require.NoError(t, engine.Reclaim(ctx, stored))

	_, err = db.GetShare(ctx, result.ShareID)
	assert.ErrorIs(t, err, models.ErrShareNotFound)
}

type deleteFailDB struct {
	database.Database
	failID string
}

func (d *deleteFailDB) DeleteShare(ctx context.Context, shareID string) (int64, error) {
	if shareID == d.failID {
		return 0, errors.New("db unavailable")
	}
	return d.Database.DeleteShare(ctx, shareID)
}

func TestSweep(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.CreateShare(ctx, &models.Share{
			ShareID:     fmt.Sprintf("expired%05d", i),
			ContentType: models.ContentTypeText,
			TextContent: "old",
			ExpiresAt:   time.Now().Add(-time.Hour),
		}))
	}
	active, err := engine.Create(ctx, textRequest())
	require.NoError(t, err)

	result := engine.Sweep(ctx, time.Now())
	assert.Equal(t, 3, result.Found)
	assert.Equal(t, 3, result.Reclaimed)
	assert.Zero(t, result.Failed)

	// The active share survives.
	_, err = db.GetShare(ctx, active.ShareID)
	assert.NoError(t, err)
}

func TestSweepIsolatesFailures(t *testing.T) {
	inner := memdb.NewDatabase()
	db := &deleteFailDB{Database: inner, failID: "stuckshare00"}
	engine := NewEngine(&storage.Services{Database: db, BlobStore: memblob.NewStorage()}, config.Shares{})
	ctx := context.Background()

	require.NoError(t, inner.CreateShare(ctx, &models.Share{
		ShareID:     "stuckshare00",
		ContentType: models.ContentTypeText,
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))
	require.NoError(t, inner.CreateShare(ctx, &models.Share{
		ShareID:     "sweepable000",
		ContentType: models.ContentTypeText,
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))

	result := engine.Sweep(ctx, time.Now())
	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 1, result.Reclaimed)
	assert.Equal(t, 1, result.Failed)

	_, err := inner.GetShare(ctx, "sweepable000")
	assert.ErrorIs(t, err, models.ErrShareNotFound)
}

func TestListNewestFirst(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		s := models.Share{
			ShareID:     fmt.Sprintf("owned%07d", i),
			OwnerID:     "user-1",
			ContentType: models.ContentTypeText,
			TextContent: "secret",
			ExpiresAt:   base.Add(time.Hour),
		}
		s.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.CreateShare(ctx, &s))
	}
	require.NoError(t, db.CreateShare(ctx, &models.Share{
		ShareID:     "otherowner00",
		OwnerID:     "user-2",
		ContentType: models.ContentTypeText,
		ExpiresAt:   base.Add(time.Hour),
	}))

	infos, err := engine.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "owned0000002", infos[0].ShareID)
	assert.Equal(t, "owned0000000", infos[2].ShareID)
}

func TestPasswordHashNeverInProjection(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	req := textRequest()
	req.Password = "hunter2"
	req.OwnerID = "user-1"
	result, err := engine.Create(ctx, req)
	require.NoError(t, err)

	stored, err := db.GetShare(ctx, result.ShareID)
	require.NoError(t, err)
	assert.True(t, credentials.Verify("hunter2", stored.Password))

	infos, err := engine.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, result.ShareID, infos[0].ShareID)
}
