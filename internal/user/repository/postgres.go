package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"auth-core/internal/store"
	"auth-core/internal/user/domain"
)

const userColumns = `id, email, name, phone, role, status, password_hash, push_token, created_at, updated_at`

// PostgresRepository persists users in Postgres. Every call runs under the
// configured timeout; a deadline hit surfaces as store.ErrUnavailable.
type PostgresRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresRepository returns a user repository backed by db. timeout bounds
// each store call; zero means 3s.
func NewPostgresRepository(db *sql.DB, timeout time.Duration) *PostgresRepository {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &PostgresRepository{db: db, timeout: timeout}
}

// Create persists the user. The user must have ID and PasswordHash set. Email
// is stored as given; callers lowercase it, and the unique index on
// lower(email) closes the race between concurrent duplicate registrations.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `INSERT INTO users (` + userColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.Phone, string(u.Role), string(u.Status),
		u.PasswordHash, u.PushToken, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return classify(err)
	}
	return nil
}

// GetByID returns the user for id, or store.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail returns the user with the given email, matched case-insensitively,
// or store.ErrNotFound.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// List returns all users ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, classify(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return users, nil
}

// UpdateStatus sets the user's status and returns the updated record, or
// store.ErrNotFound. Soft status change is the supported form of deactivation;
// users are never hard-deleted.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE users SET status = $2, updated_at = $3 WHERE id = $1
	          RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, string(status), time.Now().UTC()))
}

// UpdateRole sets the user's role and returns the updated record, or store.ErrNotFound.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1
	          RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, string(role), time.Now().UTC()))
}

// SetPushToken stores the user's external push token, or returns store.ErrNotFound.
func (r *PostgresRepository) SetPushToken(ctx context.Context, id, token string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE users SET push_token = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, token, time.Now().UTC())
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	u, err := scanUserRow(row)
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

func scanUserRow(row rowScanner) (*domain.User, error) {
	var (
		u            domain.User
		role, status string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &role, &status,
		&u.PasswordHash, &u.PushToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	return &u, nil
}

// classify maps driver errors to the store failure kinds: missing rows to
// ErrNotFound, unique violations to ErrDuplicateEmail, and everything else
// (deadlines, connection and transactional failures) to ErrUnavailable.
func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrDuplicateEmail
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}
