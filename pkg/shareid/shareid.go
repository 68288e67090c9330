// Package shareid generates the short opaque identifiers that address
// shares. Ids are the only access control for anonymous shares, so they
// come from a cryptographically random source.
package shareid

import (
	"strings"

	"github.com/google/uuid"
)

// Length of a generated share id.
const Length = 12

// New returns a 12-character lowercase hex id derived from a random
// UUID. Collisions are unlikely but possible; callers inserting ids
// into the store must handle a uniqueness violation by regenerating.
func New() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:Length]
}
