package store

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// newID returns a short URL-safe identifier: a random UUID's bytes,
// base64-url encoded and truncated to size characters. Uniqueness is
// probabilistic; callers check the candidate against the live index and
// retry on collision.
func newID(size int) string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:])[:size]
}
