package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"auth-core/internal/store"
	"auth-core/internal/user/domain"
)

var userCols = []string{"id", "email", "name", "phone", "role", "status", "password_hash", "push_token", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db, time.Second), mock, db
}

func aliceRow() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(userCols).
		AddRow("u-1", "alice@example.com", "Alice Smith", "5551234567", "admin", "active", "$2a$04$hash", "", now, now)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WithArgs("u-1", "alice@example.com", "Alice Smith", "5551234567", "admin", "active",
			"$2a$04$hash", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	u := &domain.User{
		ID: "u-1", Email: "alice@example.com", Name: "Alice Smith", Phone: "5551234567",
		Role: domain.RoleAdmin, Status: domain.UserStatusActive,
		PasswordHash: "$2a$04$hash", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"})

	err := repo.Create(context.Background(), &domain.User{ID: "u-1", Email: "alice@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestCreate_StoreUnavailable(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), &domain.User{ID: "u-1", Email: "alice@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, store.ErrUnavailable)
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.+\s+FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)`).
		WithArgs("Alice@Example.COM").
		WillReturnRows(aliceRow())

	u, err := repo.GetByEmail(context.Background(), "Alice@Example.COM")
	require.NoError(t, err)
	require.Equal(t, "u-1", u.ID)
	require.Equal(t, domain.RoleAdmin, u.Role)
	require.Equal(t, domain.UserStatusActive, u.Status)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.+\s+FROM\s+users\s+WHERE\s+lower\(email\)`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.+\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestList_ReturnsAll(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(userCols).
		AddRow("u-1", "a@example.com", "A", "", "admin", "active", "h1", "", now, now).
		AddRow("u-2", "b@example.com", "B", "", "user", "pending", "h2", "", now, now)
	mock.ExpectQuery(`SELECT\s+.+\s+FROM\s+users\s+ORDER\s+BY\s+created_at`).
		WillReturnRows(rows)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "u-2", users[1].ID)
}

func TestUpdateStatus_ReturnsUpdated(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(userCols).
		AddRow("u-1", "alice@example.com", "Alice Smith", "", "admin", "suspended", "h", "", now, now)
	mock.ExpectQuery(`UPDATE\s+users\s+SET\s+status`).
		WithArgs("u-1", "suspended", sqlmock.AnyArg()).
		WillReturnRows(rows)

	u, err := repo.UpdateStatus(context.Background(), "u-1", domain.UserStatusSuspended)
	require.NoError(t, err)
	require.Equal(t, domain.UserStatusSuspended, u.Status)
}

func TestUpdateRole_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users\s+SET\s+role`).
		WithArgs("missing", "admin", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateRole(context.Background(), "missing", domain.RoleAdmin)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetPushToken_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+push_token`).
		WithArgs("missing", "tok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetPushToken(context.Background(), "missing", "tok")
	require.ErrorIs(t, err, store.ErrNotFound)
}
