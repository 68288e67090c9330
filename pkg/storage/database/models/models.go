package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Errors returned by every record store implementation.
var (
	ErrShareNotFound    = errors.New("share not found")
	ErrDuplicateShareID = errors.New("share id already exists")
)

const (
	ContentTypeText = "text"
	ContentTypeFile = "file"
)

// Share is the sole persisted entity: one unit of ephemeral content
// plus its access rules. Exactly one of TextContent / file metadata is
// populated, enforced at creation. ViewCount is mutated only through
// Database.RecordShareView. ExpiresAt is the sole expiry signal; there
// is no authoritative "expired" flag.
type Share struct {
	gorm.Model
	ShareID string `gorm:"index:idx_share_id,unique"`
	OwnerID string `gorm:"index"`

	ContentType string
	TextContent string

	FileName     string
	StoragePath  string
	FileSize     int64
	FileMimeType string
	// FileURL is a cached convenience. It may be stale at any time and
	// must never be served without regeneration.
	FileURL string

	Password          string
	PasswordProtected bool

	OneTimeView  bool
	MaxViewCount int
	ViewCount    int

	ExpiresAt time.Time `gorm:"index"`
}

// IsFile reports whether the share carries a file payload.
func (s Share) IsFile() bool {
	return s.ContentType == ContentTypeFile
}

// ShareInfo is the metadata projection returned by listing and info
// endpoints. It excludes the payload and the credential hash.
type ShareInfo struct {
	ShareID           string    `json:"shareId"`
	OwnerID           string    `json:"ownerId,omitempty"`
	ContentType       string    `json:"contentType"`
	FileName          string    `json:"fileName,omitempty"`
	FileSize          int64     `json:"fileSize,omitempty"`
	PasswordProtected bool      `json:"isPasswordProtected"`
	OneTimeView       bool      `json:"isOneTimeView"`
	ViewCount         int       `json:"viewCount"`
	MaxViewCount      int       `json:"maxViewCount,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

// Info builds the metadata projection for a share.
func (s Share) Info() ShareInfo {
	return ShareInfo{
		ShareID:           s.ShareID,
		OwnerID:           s.OwnerID,
		ContentType:       s.ContentType,
		FileName:          s.FileName,
		FileSize:          s.FileSize,
		PasswordProtected: s.PasswordProtected,
		OneTimeView:       s.OneTimeView,
		ViewCount:         s.ViewCount,
		MaxViewCount:      s.MaxViewCount,
		CreatedAt:         s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
	}
}
