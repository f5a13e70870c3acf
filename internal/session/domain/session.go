package domain

import "time"

// Session is the server-side record backing a refresh token. The raw refresh
// token is never stored; only its SHA-256 digest and current jti are kept for
// rotation and reuse detection.
type Session struct {
	ID                 string
	UserID             string
	ExpiresAt          time.Time
	RevokedAt          *time.Time // nil when not revoked
	LastSeenAt         *time.Time
	RefreshJTI         string
	RefreshTokenDigest string
	CreatedAt          time.Time
}

// Expired reports whether the session's refresh window has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
