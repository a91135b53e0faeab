// Package uuid generates time-ordered UUIDv7 identifiers for database
// primary keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. UUIDv7 embeds a millisecond timestamp, so
// freshly created rows sort roughly in insertion order under a btree index.
// Falls back to a random UUIDv4 if v7 generation fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}
