// Package expiry resolves user-supplied expiry input into an absolute
// timestamp. Shares may specify a relative duration in minutes or an
// absolute instant; when both are present the absolute instant wins.
package expiry

import (
	"errors"
	"time"
)

const (
	// DefaultMinutes is applied when no expiry input is given.
	DefaultMinutes = 10

	// MaxMinutes caps relative expiry at 365 days.
	MaxMinutes = 525600
)

var ErrInvalidExpiry = errors.New("invalid expiry")

// Resolve computes the expiry timestamp for a new share. minutes is a
// relative expiry (0 = unset), at is an absolute instant (zero = unset).
// An absolute instant must be strictly after now and no more than 365
// days out; relative minutes must be in [1, 525600].
func Resolve(minutes int, at time.Time, now time.Time) (time.Time, error) {
	if !at.IsZero() {
		if !at.After(now) {
			return time.Time{}, ErrInvalidExpiry
		}
		if at.After(now.Add(365 * 24 * time.Hour)) {
			return time.Time{}, ErrInvalidExpiry
		}
		return at, nil
	}

	if minutes != 0 {
		if minutes < 1 || minutes > MaxMinutes {
			return time.Time{}, ErrInvalidExpiry
		}
		return now.Add(time.Duration(minutes) * time.Minute), nil
	}

	return now.Add(DefaultMinutes * time.Minute), nil
}
