package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single error returned for any token validation
// failure (malformed, bad signature, expired, wrong issuer/audience, missing
// claims). Callers must not learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims holds JWT claims for the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

// RefreshClaims holds JWT claims for the refresh token (includes jti for rotation).
type RefreshClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// TokenProvider issues and validates JWT access and refresh tokens. It signs
// with HS256 (shared secret) or RS256/ES256 (private/public key pair); the key
// material is fixed at construction and never mutated.
type TokenProvider struct {
	signKey    any
	verifyKey  any
	hmac       bool
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given private
// key (RS256 for RSA, ES256 for ECDSA). issuer and audience are set on claims
// and checked on validation.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		signKey:    privateKey,
		verifyKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// NewHMACTokenProvider returns a TokenProvider that signs and verifies with
// HS256 using the given shared secret.
func NewHMACTokenProvider(secret []byte, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		signKey:    secret,
		verifyKey:  secret,
		hmac:       true,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess issues a short-lived access JWT for the given user, role, and
// session. Returns the token string, its jti, and expiration time.
func (p *TokenProvider) IssueAccess(userID, role, sessionID string) (token string, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:      role,
		SessionID: sessionID,
	}
	token, err = p.sign(claims)
	return token, jti, expiresAt, err
}

// IssueRefresh issues a long-lived refresh JWT and returns the token, its jti
// (for rotation binding), and expiration time. Caller should store jti on the session.
func (p *TokenProvider) IssueRefresh(sessionID, userID string) (token, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}
	token, err = p.sign(claims)
	return token, jti, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	method, err := p.method()
	if err != nil {
		return "", err
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.signKey)
}

func (p *TokenProvider) method() (jwt.SigningMethod, error) {
	if p.hmac {
		return jwt.SigningMethodHS256, nil
	}
	signer, ok := p.signKey.(crypto.Signer)
	if !ok {
		return nil, ErrInvalidToken
	}
	switch signer.Public().(type) {
	case *rsa.PublicKey:
		return jwt.SigningMethodRS256, nil
	case *ecdsa.PublicKey:
		return jwt.SigningMethodES256, nil
	default:
		return nil, ErrInvalidToken
	}
}

// keyfunc accepts only the signing algorithm family this provider was
// configured with, closing the alg-substitution hole.
func (p *TokenProvider) keyfunc(token *jwt.Token) (any, error) {
	if p.hmac {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
			return p.verifyKey, nil
		}
		return nil, ErrInvalidToken
	}
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		return p.verifyKey, nil
	}
	return nil, ErrInvalidToken
}

// ValidateAccess parses and validates an access token: structure, signature,
// expiry, then issuer/audience and required claims, short-circuiting on the
// first failure. Returns the subject user ID, role, and session ID.
func (p *TokenProvider) ValidateAccess(tokenString string) (userID, role, sessionID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, p.keyfunc)
	if err != nil {
		return "", "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return "", "", "", ErrInvalidToken
	}
	if err := p.checkRegistered(&claims.RegisteredClaims); err != nil {
		return "", "", "", err
	}
	if claims.Role == "" {
		return "", "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Role, claims.SessionID, nil
}

// ValidateRefresh parses and validates a refresh token. Returns the session ID,
// jti, and subject user ID.
func (p *TokenProvider) ValidateRefresh(tokenString string) (sessionID, jti, userID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, p.keyfunc)
	if err != nil {
		return "", "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid {
		return "", "", "", ErrInvalidToken
	}
	if err := p.checkRegistered(&claims.RegisteredClaims); err != nil {
		return "", "", "", err
	}
	if claims.SessionID == "" {
		return "", "", "", ErrInvalidToken
	}
	return claims.SessionID, claims.ID, claims.Subject, nil
}

func (p *TokenProvider) checkRegistered(c *jwt.RegisteredClaims) error {
	if c.Subject == "" || c.ExpiresAt == nil {
		return ErrInvalidToken
	}
	if c.Issuer != p.issuer {
		return ErrInvalidToken
	}
	for _, a := range c.Audience {
		if a == p.audience {
			return nil
		}
	}
	return ErrInvalidToken
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
