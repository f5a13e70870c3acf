package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestToken returns a hex-encoded SHA-256 digest of a refresh token. Only
// the digest is stored server-side, never the raw token.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenDigestEqual compares the digest of a presented token with a stored
// digest in constant time.
func TokenDigestEqual(presentedToken, storedDigest string) bool {
	d := DigestToken(presentedToken)
	return subtle.ConstantTimeCompare([]byte(d), []byte(storedDigest)) == 1
}
