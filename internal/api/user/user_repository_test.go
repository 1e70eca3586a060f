package user

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

var userColumnNames = []string{
	"id", "username", "password", "email", "role", "provider", "provider_id",
	"disabled_at", "locked_until", "lock_reason", "expires_at", "credentials_expire_at",
	"created_at", "updated_at",
}

func setupRepo(t *testing.T) (*PostgresUserRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresUserRepo(mock, logger), mock
}

func userRow(now time.Time, lockedUntil *time.Time) *pgxmock.Rows {
	var none *time.Time
	return pgxmock.NewRows(userColumnNames).AddRow(
		int64(1), "alice", "$2a$10$hash", "alice@example.com", types.RoleUser, types.ProviderLocal, "",
		none, lockedUntil, "", none, none,
		now, now,
	)
}

func TestPostgresUserRepo_FindByProvider(t *testing.T) {
	ctx := context.Background()

	repo, mock := setupRepo(t)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE provider = \$1 AND provider_id = \$2`).
		WithArgs("google", "1034").
		WillReturnError(pgx.ErrNoRows)

	u, err := repo.FindByProvider(ctx, "google", "1034")
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepo_FindByUsername(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		repo, mock := setupRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(userRow(now, nil))

		u, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, "alice", u.Username)
		assert.Equal(t, types.RoleUser, u.Role)
		assert.Nil(t, u.DisabledAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent is not an error", func(t *testing.T) {
		repo, mock := setupRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE username = \$1`).
			WithArgs("nobody").
			WillReturnError(pgx.ErrNoRows)

		u, err := repo.FindByUsername(ctx, "nobody")
		assert.NoError(t, err)
		assert.Nil(t, u)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		repo, mock := setupRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE username = \$1`).
			WithArgs("alice").
			WillReturnError(assert.AnError)

		u, err := repo.FindByUsername(ctx, "alice")
		assert.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, u)
	})
}

func TestPostgresUserRepo_FindByEmail(t *testing.T) {
	repo, mock := setupRepo(t)
	lock := time.Now().Add(time.Hour).UTC()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(userRow(time.Now(), &lock))

	u, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotNil(t, u.LockedUntil)
	assert.True(t, u.LockedUntil.Equal(lock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepo_GetByID(t *testing.T) {
	repo, mock := setupRepo(t)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(userRow(time.Now(), nil))

	u, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepo_List(t *testing.T) {
	repo, mock := setupRepo(t)
	mock.ExpectQuery(`SELECT (.+) FROM users ORDER BY id LIMIT \$1 OFFSET \$2`).
		WithArgs(100, 0).
		WillReturnRows(userRow(time.Now(), nil))

	users, err := repo.List(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepo_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success fills defaults and generated fields", func(t *testing.T) {
		repo, mock := setupRepo(t)
		now := time.Now().UTC()
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("bob", "$2a$10$hash", "bob@example.com", types.RoleUser, types.ProviderLocal, "",
				pgxmock.AnyArg(), pgxmock.AnyArg(), "", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

		u := &types.User{Username: "bob", Password: "$2a$10$hash", Email: "bob@example.com"}
		require.NoError(t, repo.Create(ctx, u))
		assert.Equal(t, int64(42), u.ID)
		assert.Equal(t, types.RoleUser, u.Role)
		assert.Equal(t, types.ProviderLocal, u.Provider)
		assert.Equal(t, now, u.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		repo, mock := setupRepo(t)
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, &types.User{Username: "bob", Password: "x"})
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestPostgresUserRepo_Update(t *testing.T) {
	ctx := context.Background()
	u := &types.User{ID: 1, Username: "alice", Password: "h", Role: types.RoleAdmin, Provider: types.ProviderLocal}

	t.Run("success", func(t *testing.T) {
		repo, mock := setupRepo(t)
		mock.ExpectExec(`UPDATE users SET`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.Update(ctx, u))
		assert.False(t, u.UpdatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := setupRepo(t)
		mock.ExpectExec(`UPDATE users SET`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, repo.Update(ctx, u), types.ErrNotFound)
	})
}

func TestPostgresUserRepo_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mock := setupRepo(t)
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(ctx, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := setupRepo(t)
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.Delete(ctx, 3), types.ErrNotFound)
	})
}

func TestPostgresUserRepo_RecordLogin(t *testing.T) {
	repo, mock := setupRepo(t)
	mock.ExpectExec(`INSERT INTO login_events`).
		WithArgs(pgxmock.AnyArg(), int64(1), "google").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.RecordLogin(context.Background(), 1, "google"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
