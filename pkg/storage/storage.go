package storage

import (
	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/storage/blobstore"
	"github.com/linkvault/linkvault/pkg/storage/database"
)

type Services struct {
	Database  database.Database
	BlobStore blobstore.BlobStore
}

func New(c config.Config) (*Services, error) {
	rc := &Services{}

	var err error
	if rc.BlobStore, err = blobstore.NewBlobStore(c.BlobStore); err != nil {
		return nil, err
	}

	if rc.Database, err = database.NewConnection(c.Database); err != nil {
		return nil, err
	}

	return rc, nil
}
