// Package share implements the share lifecycle: creation, gated
// retrieval, view accounting, and reclamation. A share moves from
// active to viewed-out, limit-reached or expired, and finally to
// deleted; the state is derived on every check from the record itself,
// never persisted, so checks are idempotent and safe to repeat under
// concurrent access.
package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/credentials"
	"github.com/linkvault/linkvault/pkg/expiry"
	"github.com/linkvault/linkvault/pkg/shareid"
	"github.com/linkvault/linkvault/pkg/storage"
	"github.com/linkvault/linkvault/pkg/storage/blobstore"
	"github.com/linkvault/linkvault/pkg/storage/database"
	"github.com/linkvault/linkvault/pkg/storage/database/models"
	"github.com/rs/zerolog/log"
)

// How many fresh ids the creation path tries before giving up on a
// uniqueness violation.
const maxIDAttempts = 5

const reclaimTimeout = 30 * time.Second

type Engine struct {
	db    database.Database
	blobs blobstore.BlobStore

	oneTimeGrace time.Duration
	signedURLTTL time.Duration
}

func NewEngine(services *storage.Services, conf config.Shares) *Engine {
	return &Engine{
		db:           services.Database,
		blobs:        services.BlobStore,
		oneTimeGrace: conf.OneTimeGrace(),
		signedURLTTL: conf.SignedURLTTL(),
	}
}

// FileUpload carries an incoming file payload. Content is fully
// buffered by the transport layer (uploads are capped well below
// memory limits), which lets the creation path re-upload under a new
// key if the generated id collides.
type FileUpload struct {
	Name     string
	Size     int64
	MimeType string
	Content  []byte
}

type CreateRequest struct {
	OwnerID string

	Text string
	File *FileUpload

	Password    string
	OneTimeView bool

	ExpiryMinutes int
	ExpiryAt      time.Time

	MaxViewCount int
}

type CreateResult struct {
	ShareID   string
	ExpiresAt time.Time
}

// Create validates the request, stores the blob for file payloads, and
// inserts the share record. The blob is uploaded before the record is
// inserted: an upload failure aborts creation with no record, while a
// record that references a missing blob must never exist. An orphaned
// blob from a failed insert is tolerated and logged.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	hasText := req.Text != ""
	hasFile := req.File != nil
	if hasText == hasFile {
		return CreateResult{}, ErrPayloadConflict
	}
	if req.MaxViewCount < 0 {
		return CreateResult{}, ErrInvalidViewLimit
	}

	expiresAt, err := expiry.Resolve(req.ExpiryMinutes, req.ExpiryAt, time.Now())
	if err != nil {
		return CreateResult{}, err
	}

	var passwordHash string
	if req.Password != "" {
		passwordHash, err = credentials.Hash(req.Password)
		if err != nil {
			return CreateResult{}, fmt.Errorf("hashing password: %w", err)
		}
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		share := models.Share{
			ShareID:           shareid.New(),
			OwnerID:           req.OwnerID,
			Password:          passwordHash,
			PasswordProtected: req.Password != "",
			OneTimeView:       req.OneTimeView,
			MaxViewCount:      req.MaxViewCount,
			ExpiresAt:         expiresAt,
		}

		if hasText {
			share.ContentType = models.ContentTypeText
			share.TextContent = req.Text
		} else {
			share.ContentType = models.ContentTypeFile
			share.FileName = req.File.Name
			share.FileSize = req.File.Size
			share.FileMimeType = req.File.MimeType
			share.StoragePath = share.ShareID + "/" + req.File.Name

			if err := e.blobs.Upload(ctx, share.StoragePath, bytes.NewReader(req.File.Content)); err != nil {
				return CreateResult{}, fmt.Errorf("uploading file to storage: %w", err)
			}

			// The cached URL is a convenience; a failure here is not
			// fatal because every view regenerates it anyway.
			url, err := e.blobs.SignedURL(ctx, share.StoragePath, e.signedURLTTL)
			if err != nil {
				log.Warn().Err(err).Str("path", share.StoragePath).Msg("Unable to generate signed URL at creation")
			} else {
				share.FileURL = url
			}
		}

		err := e.db.CreateShare(ctx, &share)
		if err == nil {
			return CreateResult{ShareID: share.ShareID, ExpiresAt: share.ExpiresAt}, nil
		}

		if share.IsFile() {
			if delErr := e.blobs.Delete(ctx, share.StoragePath); delErr != nil {
				log.Warn().Err(delErr).Str("path", share.StoragePath).Msg("Unable to remove blob after failed insert")
			}
		}

		if !errors.Is(err, models.ErrDuplicateShareID) {
			return CreateResult{}, fmt.Errorf("inserting share record: %w", err)
		}

		log.Warn().Str("share_id", share.ShareID).Int("attempt", attempt+1).Msg("Share id collision, regenerating")
	}

	return CreateResult{}, ErrIDExhaustion
}

type ViewResult struct {
	ContentType string
	ViewCount   int

	// Text payload.
	Content string

	// File payload. FileURL is always freshly signed.
	FileName     string
	FileURL      string
	FileSize     int64
	FileMimeType string
}

// View serves a share's content. Gates run in a fixed order, each
// returning a distinct failure before any mutation: expiry, password,
// one-time consumption, view limit. Only when every gate passes is the
// view recorded, so a rejected request never consumes a view slot.
func (e *Engine) View(ctx context.Context, shareID string, password string) (ViewResult, error) {
	s, err := e.db.GetShare(ctx, shareID)
	if err != nil {
		return ViewResult{}, err
	}

	if time.Now().After(s.ExpiresAt) {
		// Self-healing expiry: reclaim on read so expired shares
		// disappear even if the sweeper hasn't reached them yet.
		if err := e.Reclaim(ctx, s); err != nil {
			log.Warn().Err(err).Str("share_id", shareID).Msg("Unable to reclaim expired share on view")
		}
		return ViewResult{}, ErrShareExpired
	}

	if s.PasswordProtected {
		if password == "" {
			return ViewResult{}, ErrPasswordRequired
		}
		if !credentials.Verify(password, s.Password) {
			return ViewResult{}, ErrInvalidPassword
		}
	}

	if s.OneTimeView && s.ViewCount > 0 {
		return ViewResult{}, ErrAlreadyConsumed
	}

	if s.MaxViewCount > 0 && s.ViewCount >= s.MaxViewCount {
		return ViewResult{}, ErrViewLimitReached
	}

	updated, err := e.db.RecordShareView(ctx, shareID)
	if err != nil {
		// The record can vanish between the lookup and the increment
		// if a concurrent reclaim got there first.
		if errors.Is(err, models.ErrShareNotFound) {
			return ViewResult{}, ErrShareNotFound
		}
		return ViewResult{}, fmt.Errorf("recording view: %w", err)
	}

	rc := ViewResult{
		ContentType: s.ContentType,
		ViewCount:   updated.ViewCount,
	}

	if s.IsFile() {
		// Always regenerate: the cached URL may have expired
		// independently of the share.
		url, err := e.blobs.SignedURL(ctx, s.StoragePath, e.signedURLTTL)
		if err != nil {
			return ViewResult{}, fmt.Errorf("generating download url: %w", err)
		}
		rc.FileName = s.FileName
		rc.FileURL = url
		rc.FileSize = s.FileSize
		rc.FileMimeType = s.FileMimeType
	} else {
		rc.Content = s.TextContent
	}

	if s.OneTimeView {
		e.scheduleReclaim(s)
	}

	return rc, nil
}

// scheduleReclaim queues the deferred deletion of a consumed one-time
// share. The grace period lets an in-flight download finish. The timer
// lives only in this process: if it dies before firing, the sweeper
// removes the share once it expires. Best effort by design.
func (e *Engine) scheduleReclaim(s models.Share) {
	log.Debug().Str("share_id", s.ShareID).Dur("grace", e.oneTimeGrace).Msg("Scheduling one-time share deletion")
	time.AfterFunc(e.oneTimeGrace, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reclaimTimeout)
		defer cancel()

		if err := e.Reclaim(ctx, s); err != nil {
			log.Error().Err(err).Str("share_id", s.ShareID).Msg("Unable to delete one-time share")
		}
	})
}

// Info returns the metadata projection for pre-flight display. It
// applies the same expiry self-heal as View but reveals neither the
// payload nor the credential.
func (e *Engine) Info(ctx context.Context, shareID string) (models.ShareInfo, error) {
	s, err := e.db.GetShare(ctx, shareID)
	if err != nil {
		return models.ShareInfo{}, err
	}

	if time.Now().After(s.ExpiresAt) {
		if err := e.Reclaim(ctx, s); err != nil {
			log.Warn().Err(err).Str("share_id", shareID).Msg("Unable to reclaim expired share on info")
		}
		return models.ShareInfo{}, ErrShareExpired
	}

	return s.Info(), nil
}

// Delete removes a share on request. Owned shares may only be deleted
// by their owner. Anonymous shares are deletable by anyone holding the
// id: possession of the unguessable id is the access control.
func (e *Engine) Delete(ctx context.Context, shareID string, requesterID string) error {
	s, err := e.db.GetShare(ctx, shareID)
	if err != nil {
		return err
	}

	if s.OwnerID != "" && s.OwnerID != requesterID {
		return ErrForbidden
	}

	return e.Reclaim(ctx, s)
}

// List returns the metadata projections of an owner's shares, newest
// first.
func (e *Engine) List(ctx context.Context, ownerID string) ([]models.ShareInfo, error) {
	return e.db.GetSharesByOwner(ctx, ownerID)
}

// Reclaim deletes a share's blob (for file payloads) and then its
// record. A failed blob delete is logged and counted but never blocks
// record deletion; an orphaned blob beats a live record pointing at
// nothing. Reclaim is idempotent: the view path, the delete endpoint
// and the sweeper may all race on the same id, and "already gone" is
// success for each of them.
func (e *Engine) Reclaim(ctx context.Context, s models.Share) error {
	if s.IsFile() && s.StoragePath != "" {
		if err := e.blobs.Delete(ctx, s.StoragePath); err != nil {
			blobDeleteFailures.Inc()
			log.Warn().Err(err).Str("share_id", s.ShareID).Str("path", s.StoragePath).Msg("Unable to delete blob, record will still be removed")
		}
	}

	deleted, err := e.db.DeleteShare(ctx, s.ShareID)
	if err != nil {
		return fmt.Errorf("deleting share record: %w", err)
	}
	if deleted > 0 {
		sharesReclaimed.Inc()
	}
	return nil
}
