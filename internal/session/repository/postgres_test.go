package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"auth-core/internal/session/domain"
	"auth-core/internal/store"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db, time.Second), mock, db
}

func TestCreateAndGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT\s+INTO\s+sessions`).
		WithArgs("s-1", "u-1", sqlmock.AnyArg(), "jti-1", "digest-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := &domain.Session{ID: "s-1", UserID: "u-1", ExpiresAt: now.Add(time.Hour), RefreshJTI: "jti-1", RefreshTokenDigest: "digest-1", CreatedAt: now}
	require.NoError(t, repo.Create(context.Background(), s))

	rows := sqlmock.NewRows([]string{"id", "user_id", "expires_at", "revoked_at", "last_seen_at", "refresh_jti", "refresh_token_digest", "created_at"}).
		AddRow("s-1", "u-1", now.Add(time.Hour), nil, nil, "jti-1", "digest-1", now)
	mock.ExpectQuery(`SELECT\s+.+\s+FROM\s+sessions\s+WHERE\s+id`).
		WithArgs("s-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "s-1")
	require.NoError(t, err)
	require.Equal(t, "u-1", got.UserID)
	require.Nil(t, got.RevokedAt)
	require.Equal(t, "jti-1", got.RefreshJTI)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.+\s+FROM\s+sessions`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRevoke_OnlyLiveSessions(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+sessions\s+SET\s+revoked_at\s+=\s+\$2\s+WHERE\s+id\s+=\s+\$1\s+AND\s+revoked_at\s+IS\s+NULL`).
		WithArgs("s-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Revoke(context.Background(), "s-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRefreshToken_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+sessions\s+SET\s+refresh_jti`).
		WithArgs("missing", "jti-2", "digest-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRefreshToken(context.Background(), "missing", "jti-2", "digest-2")
	require.ErrorIs(t, err, store.ErrNotFound)
}
