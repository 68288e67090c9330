package blobstore

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/storage/blobstore/gcs"
	"github.com/linkvault/linkvault/pkg/storage/blobstore/memory"
	"github.com/linkvault/linkvault/pkg/storage/blobstore/s3"
)

// BlobStore stores file payloads. Viewers never read blobs through the
// service; they follow time-limited signed URLs issued on demand.
type BlobStore interface {
	Upload(ctx context.Context, path string, r io.Reader) error

	// Delete removes the blob. Deleting an absent path is a no-op.
	Delete(ctx context.Context, path string) error

	// SignedURL returns a fresh download URL valid for the given
	// duration. URLs expire independently of the share and are
	// regenerated on every view.
	SignedURL(ctx context.Context, path string, expires time.Duration) (string, error)
}

func NewBlobStore(conf config.BlobStore) (BlobStore, error) {
	switch conf.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "s3":
		return s3.NewStorage(conf.Settings)
	case "gcs":
		return gcs.NewStorage(conf.Settings)
	}

	return nil, errors.New("unsupported blob store type: " + conf.Type)
}
