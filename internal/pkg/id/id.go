package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a ULID for a login attempt. ULIDs sort by creation time,
// which keeps attempt ids readable in logs next to their timestamps.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
