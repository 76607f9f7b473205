package tokstore

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// idLength is the number of random bytes backing each token identifier: 128
// bits, as required by spec §3 ("e.g., 128 random bits, textually encoded").
const idLength = 16

// newID generates a cryptographically secure random token identifier,
// base64 URL-safe encoded. The exact alphabet is unspecified by the system
// (spec §9c); this encoding is the one choice that satisfies it.
func newID() string {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the host's entropy source is broken;
		// entropy exhaustion is explicitly the OS's responsibility (spec §5).
		panic(fmt.Sprintf("tokstore: failed to generate secure token id: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// fingerprint derives a short, irreversible display token for log lines so
// that raw token values never need to appear in server logs. It has no
// bearing on store semantics.
func fingerprint(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:6])
}
