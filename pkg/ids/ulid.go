// Package ids generates the sortable identifiers used across all tables.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a 26-character Crockford base-32 identifier: 48 bits of
// millisecond UTC time followed by 80 bits of cryptographically random
// data. Stored ids depend on this exact encoding; do not change it.
func New() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

// Valid reports whether s parses as a 26-character identifier.
func Valid(s string) bool {
	if len(s) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(s)
	return err == nil
}
