package tokstore

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DigestSigner produces a signed summary of a Dump snapshot — entry count and
// timestamp, never token values or metadata — suitable for forwarding to a
// logging sink that the operator doesn't fully trust. Grounded in the same
// signer-wrapper shape used elsewhere in this lineage for JWT-backed tokens,
// generalized here to sign a log record instead of a credential.
type DigestSigner struct {
	secret []byte
	issuer string
}

// NewDigestSigner creates a signer keyed by secret.
func NewDigestSigner(secret []byte, issuer string) *DigestSigner {
	return &DigestSigner{secret: secret, issuer: issuer}
}

// Sign returns a compact JWS (HS256) whose claims are the snapshot count and
// the time it was taken.
func (d *DigestSigner) Sign(entryCount int, takenAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   d.issuer,
		"iat":   takenAt.Unix(),
		"count": entryCount,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(d.secret)
	if err != nil {
		return "", fmt.Errorf("tokstore: sign dump digest: %w", err)
	}
	return signed, nil
}
