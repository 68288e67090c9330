package share

import (
	"errors"

	"github.com/linkvault/linkvault/pkg/storage/database/models"
)

var (
	// ErrShareNotFound covers both true absence and records already
	// reclaimed; callers must not be able to tell the two apart.
	ErrShareNotFound = models.ErrShareNotFound

	// ErrShareExpired is returned when a read finds a record past its
	// expiry. The API maps it to the same response as ErrShareNotFound
	// so expired links are indistinguishable from absent ones.
	ErrShareExpired = errors.New("share has expired")

	ErrPayloadConflict  = errors.New("exactly one of text or file must be provided")
	ErrInvalidViewLimit = errors.New("view limit must be a positive integer")
	ErrIDExhaustion     = errors.New("unable to allocate a unique share id")

	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrAlreadyConsumed  = errors.New("this link can only be viewed once")
	ErrViewLimitReached = errors.New("maximum view count reached")

	ErrForbidden = errors.New("you do not have permission to delete this share")
)
