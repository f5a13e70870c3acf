package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	auditdomain "auth-core/internal/audit/domain"
	"auth-core/internal/security"
	sessiondomain "auth-core/internal/session/domain"
	"auth-core/internal/store"
	userdomain "auth-core/internal/user/domain"
)

// Sentinel errors for the auth service; the HTTP layer maps them to status codes.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is the single outcome for every token failure kind.
	ErrInvalidToken = security.ErrInvalidToken
	// ErrValidation is wrapped around input validation failures.
	ErrValidation = errors.New("validation failed")
)

// Identity is a resolved caller identity. Calling code threads it through
// explicitly; there is no ambient current-user state.
type Identity struct {
	UserID    string
	Role      userdomain.Role
	SessionID string
}

// TokenPair is the outcome of a successful login or refresh.
type TokenPair struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
}

// Recorder is the audit sink used by the service; see internal/audit.
type Recorder interface {
	Record(ctx context.Context, userID, action, resource, metadata string)
}

// UserRepo is the credential store surface needed by the auth service.
type UserRepo interface {
	Create(ctx context.Context, u *userdomain.User) error
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	List(ctx context.Context) ([]*userdomain.User, error)
	UpdateStatus(ctx context.Context, id string, status userdomain.UserStatus) (*userdomain.User, error)
	UpdateRole(ctx context.Context, id string, role userdomain.Role) (*userdomain.User, error)
	SetPushToken(ctx context.Context, id, token string) error
}

// SessionRepo is the session store surface needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
	UpdateRefreshToken(ctx context.Context, sessionID, jti, tokenDigest string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// AuthService orchestrates the credential store, password hasher, and token
// provider. Stateless per request; safe for concurrent use.
type AuthService struct {
	users    UserRepo
	sessions SessionRepo
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	auditor  Recorder
	log      zerolog.Logger

	// dummyHash is compared against on unknown-email logins so both
	// invalid-credential paths cost one bcrypt verification.
	dummyHash string
}

// NewAuthService returns an AuthService with the given dependencies. auditor
// may be nil to disable audit recording.
func NewAuthService(users UserRepo, sessions SessionRepo, hasher *security.Hasher, tokens *security.TokenProvider, auditor Recorder, log zerolog.Logger) *AuthService {
	dummy, err := hasher.Hash([]byte("authcore-dummy-password"))
	if err != nil {
		// Unreachable for a fixed in-bounds input; keep a well-formed
		// fallback so Verify still burns a comparison.
		dummy = "$2a$12$C6UzMDM.H6dfI/f/IKcEeO7ZBV1rNvnbHzQkO8mO5FNuzgy3eZdPa"
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		hasher:    hasher,
		tokens:    tokens,
		auditor:   auditor,
		log:       log,
		dummyHash: dummy,
	}
}

// RegisterParams is the input for Register: a full user record minus id and
// hash, plus the plaintext password. The plaintext is used once and discarded.
type RegisterParams struct {
	Email     string
	Name      string
	Phone     string
	Role      userdomain.Role
	Status    userdomain.UserStatus
	Password  string
	PushToken string
}

// Register creates a user with a hashed password. Email uniqueness is enforced
// by the store's constraint, not an application-level pre-check, so concurrent
// duplicate registrations collapse to one row and one store.ErrDuplicateEmail.
// Never retried after a store failure: the outcome is indeterminate and is
// surfaced as store.ErrUnavailable.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*userdomain.User, error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	if err := validateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	hashed, err := s.hasher.Hash([]byte(p.Password))
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) || errors.Is(err, security.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(p.Name),
		Phone:        strings.TrimSpace(p.Phone),
		Role:         p.Role,
		Status:       p.Status,
		PasswordHash: hashed,
		PushToken:    p.PushToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.record(ctx, user.ID, auditdomain.ActionUserCreated, "user", "email="+email)
	return user, nil
}

// Login verifies the credentials and returns a fresh token pair bound to a new
// session. Unknown email, wrong password, and non-active status all yield the
// identical ErrInvalidCredentials; the cause is logged, never returned.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.retryGetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Verify([]byte(password), s.dummyHash)
			s.logReject(ctx, email, "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify([]byte(password), user.PasswordHash) {
		s.logReject(ctx, email, "password mismatch")
		return nil, ErrInvalidCredentials
	}
	if user.Status != userdomain.UserStatusActive {
		s.logReject(ctx, email, "status "+string(user.Status))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.record(ctx, user.ID, auditdomain.ActionLoginSuccess, "auth", "")
	return pair, nil
}

// Authorize validates a presented bearer token and resolves it to an identity.
// Pure over the configured key and the token: no store access, per the
// stateless verification contract. Every failure is ErrInvalidToken.
func (s *AuthService) Authorize(ctx context.Context, tokenString string) (*Identity, error) {
	userID, role, sessionID, err := s.tokens.ValidateAccess(tokenString)
	if err != nil {
		s.log.Debug().Msg("auth: rejected access token")
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: userID, Role: userdomain.Role(role), SessionID: sessionID}, nil
}

// Refresh validates and rotates a refresh token, returning a new pair. A
// refresh token replayed after rotation revokes all of the user's sessions and
// fails with the generic ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	sessionID, jti, userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := s.retryGetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	now := time.Now().UTC()
	if sess.RevokedAt != nil || sess.Expired(now) {
		return nil, ErrInvalidToken
	}
	if sess.RefreshJTI != jti {
		// Rotation reuse: an old refresh token came back. Assume theft.
		s.log.Warn().Str("session_id", sessionID).Msg("auth: refresh token reuse, revoking all sessions for user")
		_ = s.sessions.RevokeAllByUser(ctx, userID)
		s.record(ctx, userID, auditdomain.ActionLogout, "session", "reason=refresh_reuse")
		return nil, ErrInvalidToken
	}
	if sess.RefreshTokenDigest != "" && !security.TokenDigestEqual(refreshToken, sess.RefreshTokenDigest) {
		return nil, ErrInvalidToken
	}

	user, err := s.retryGetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.Status != userdomain.UserStatusActive {
		return nil, ErrInvalidToken
	}

	_ = s.sessions.UpdateLastSeen(ctx, sessionID, now)
	newRefresh, newJTI, _, err := s.tokens.IssueRefresh(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateRefreshToken(ctx, sessionID, newJTI, security.DigestToken(newRefresh)); err != nil {
		return nil, err
	}
	access, _, accessExp, err := s.tokens.IssueAccess(userID, string(user.Role), sessionID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, userID, auditdomain.ActionTokenRefresh, "session", "")
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh, ExpiresAt: accessExp, UserID: userID}, nil
}

// Logout revokes the session behind the refresh token. Idempotent: an invalid
// or already revoked token is a no-op, not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	sessionID, _, userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.record(ctx, userID, auditdomain.ActionLogout, "session", "")
	return nil
}

// GetUser returns the user for id. Read-only; retried once on store outage.
func (s *AuthService) GetUser(ctx context.Context, id string) (*userdomain.User, error) {
	return s.retryGetByID(ctx, id)
}

// ListUsers returns all users. Read-only; retried once on store outage.
func (s *AuthService) ListUsers(ctx context.Context) ([]*userdomain.User, error) {
	users, err := s.users.List(ctx)
	if errors.Is(err, store.ErrUnavailable) {
		users, err = s.users.List(ctx)
	}
	return users, err
}

// UpdateStatus sets a user's status. Deactivation is a status change to
// suspended; records are never hard-deleted.
func (s *AuthService) UpdateStatus(ctx context.Context, id string, status userdomain.UserStatus) (*userdomain.User, error) {
	if !userdomain.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	user, err := s.users.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, auditdomain.ActionStatusChanged, "user", "status="+string(status))
	return user, nil
}

// UpdateRole sets a user's role.
func (s *AuthService) UpdateRole(ctx context.Context, id string, role userdomain.Role) (*userdomain.User, error) {
	if !userdomain.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	user, err := s.users.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, auditdomain.ActionRoleChanged, "user", "role="+string(role))
	return user, nil
}

// SetPushToken stores a user's external push token.
func (s *AuthService) SetPushToken(ctx context.Context, id, token string) error {
	return s.users.SetPushToken(ctx, id, token)
}

func (s *AuthService) openSession(ctx context.Context, user *userdomain.User) (*TokenPair, error) {
	sessionID := uuid.New().String()
	now := time.Now().UTC()
	refresh, jti, _, err := s.tokens.IssueRefresh(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	access, _, accessExp, err := s.tokens.IssueAccess(user.ID, string(user.Role), sessionID)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:                 sessionID,
		UserID:             user.ID,
		ExpiresAt:          now.Add(s.tokens.RefreshTTL()),
		RefreshJTI:         jti,
		RefreshTokenDigest: security.DigestToken(refresh),
		CreatedAt:          now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExp, UserID: user.ID}, nil
}

// Idempotent reads retry once when the store reports an outage. Writes never
// retry; a failed write is indeterminate.
func (s *AuthService) retryGetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrUnavailable) {
		u, err = s.users.GetByEmail(ctx, email)
	}
	return u, err
}

func (s *AuthService) retryGetByID(ctx context.Context, id string) (*userdomain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrUnavailable) {
		u, err = s.users.GetByID(ctx, id)
	}
	return u, err
}

func (s *AuthService) retryGetSession(ctx context.Context, id string) (*sessiondomain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, store.ErrUnavailable) {
		sess, err = s.sessions.GetByID(ctx, id)
	}
	return sess, err
}

func (s *AuthService) record(ctx context.Context, userID, action, resource, metadata string) {
	if s.auditor != nil {
		s.auditor.Record(ctx, userID, action, resource, metadata)
	}
}

// logReject keeps the diagnostic reason internal while the caller sees only
// the generic invalid-credentials outcome.
func (s *AuthService) logReject(ctx context.Context, email, reason string) {
	s.log.Info().Str("email", email).Str("reason", reason).Msg("auth: login rejected")
	s.record(ctx, "", auditdomain.ActionLoginFailure, "auth", "email="+email)
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}
