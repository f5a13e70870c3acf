package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auth-core/internal/session/domain"
	"auth-core/internal/store"
)

// PostgresRepository persists sessions in Postgres.
type PostgresRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresRepository returns a session repository backed by db. timeout
// bounds each store call; zero means 3s.
func NewPostgresRepository(db *sql.DB, timeout time.Duration) *PostgresRepository {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &PostgresRepository{db: db, timeout: timeout}
}

// GetByID returns the session for id, or store.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT id, user_id, expires_at, revoked_at, last_seen_at, refresh_jti, refresh_token_digest, created_at
	          FROM sessions WHERE id = $1`
	var (
		s                   domain.Session
		revokedAt, lastSeen sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.ExpiresAt, &revokedAt, &lastSeen, &s.RefreshJTI, &s.RefreshTokenDigest, &s.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		s.LastSeenAt = &t
	}
	return &s, nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `INSERT INTO sessions (id, user_id, expires_at, refresh_jti, refresh_token_digest, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.ExpiresAt, s.RefreshJTI, s.RefreshTokenDigest, s.CreatedAt)
	if err != nil {
		return classify(err)
	}
	return nil
}

// Revoke marks the session revoked. Revoking an already revoked or missing
// session is a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return classify(err)
	}
	return nil
}

// RevokeAllByUser revokes every live session of the user. Used on refresh
// token reuse detection.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return classify(err)
	}
	return nil
}

// UpdateRefreshToken rotates the session's refresh binding to a new jti and digest.
func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, sessionID, jti, tokenDigest string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE sessions SET refresh_jti = $2, refresh_token_digest = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, sessionID, jti, tokenDigest)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateLastSeen records refresh activity on the session. Best-effort for callers.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE sessions SET last_seen_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}
