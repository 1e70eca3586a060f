package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user persistence.
//
// Lookups that match nothing return a nil user and a nil error; callers
// decide whether absence matters.
type UserRepo interface {
	FindByUsername(ctx context.Context, username string) (*types.User, error)
	FindByEmail(ctx context.Context, email string) (*types.User, error)
	// FindByProvider looks up the account linked to an OAuth identity.
	FindByProvider(ctx context.Context, provider, providerID string) (*types.User, error)
	GetByID(ctx context.Context, id int64) (*types.User, error)
	List(ctx context.Context, limit, offset int) ([]types.User, error)

	// Create inserts the user and fills in ID, CreatedAt and UpdatedAt.
	// Returns types.ErrConflict when the username or the provider identity
	// is taken.
	Create(ctx context.Context, user *types.User) error
	// Update overwrites every mutable column. Returns types.ErrNotFound if
	// no row has the user's ID.
	Update(ctx context.Context, user *types.User) error
	Delete(ctx context.Context, id int64) error

	RecordLogin(ctx context.Context, userID int64, provider string) error
}

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool DB
}

func NewPostgresUserRepo(pgpool DB, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = `id, username, password, email, role, provider, provider_id,
	disabled_at, locked_until, lock_reason, expires_at, credentials_expire_at,
	created_at, updated_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.Email, &u.Role, &u.Provider, &u.ProviderID,
		&u.DisabledAt, &u.LockedUntil, &u.LockReason, &u.ExpiresAt, &u.CredentialsExpireAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) startSpan(ctx context.Context, name, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", "users"),
	)
	return otel.Tracer("UserRepo").Start(ctx, name, trace.WithAttributes(attrs...))
}

// findOne runs a single-row user query and maps pgx.ErrNoRows to a nil user.
func (r *PostgresUserRepo) findOne(ctx context.Context, method, where string, args ...any) (*types.User, error) {
	ctx, span := r.startSpan(ctx, method, "SELECT")
	defer span.End()

	l := r.logger.With(slog.String("method", method))

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			l.DebugContext(ctx, "User not found")
			span.SetStatus(codes.Ok, "no rows")
			return nil, nil
		}
		l.ErrorContext(ctx, "Failed to query user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	span.SetStatus(codes.Ok, "User fetched")
	return u, nil
}

func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*types.User, error) {
	return r.findOne(ctx, "FindByUsername", "username = $1", username)
}

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.findOne(ctx, "FindByEmail", "email = $1 ORDER BY id LIMIT 1", email)
}

func (r *PostgresUserRepo) FindByProvider(ctx context.Context, provider, providerID string) (*types.User, error) {
	return r.findOne(ctx, "FindByProvider", "provider = $1 AND provider_id = $2", provider, providerID)
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (*types.User, error) {
	return r.findOne(ctx, "GetByID", "id = $1", id)
}

func (r *PostgresUserRepo) List(ctx context.Context, limit, offset int) ([]types.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, span := r.startSpan(ctx, "List", "SELECT", attribute.Int("db.limit", limit), attribute.Int("db.offset", offset))
	defer span.End()

	l := r.logger.With(slog.String("method", "List"))

	rows, err := r.pgpool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	span.SetStatus(codes.Ok, "Users listed")
	return users, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, user *types.User) error {
	ctx, span := r.startSpan(ctx, "Create", "INSERT", attribute.String("db.user.username", user.Username))
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"), slog.String("username", user.Username))

	if user.Provider == "" {
		user.Provider = types.ProviderLocal
	}
	if user.Role == "" {
		user.Role = types.RoleUser
	}

	query := `
		INSERT INTO users (username, password, email, role, provider, provider_id,
			disabled_at, locked_until, lock_reason, expires_at, credentials_expire_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.pgpool.QueryRow(ctx, query,
		user.Username, user.Password, user.Email, user.Role, user.Provider, user.ProviderID,
		user.DisabledAt, user.LockedUntil, user.LockReason, user.ExpiresAt, user.CredentialsExpireAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "Username or provider identity already taken", slog.String("constraint", pgErr.ConstraintName))
			span.SetStatus(codes.Error, "unique violation")
			return fmt.Errorf("user %q (%s): %w", user.Username, pgErr.ConstraintName, types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("database error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.Int64("userID", user.ID))
	span.SetStatus(codes.Ok, "User created")
	return nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, user *types.User) error {
	ctx, span := r.startSpan(ctx, "Update", "UPDATE", attribute.Int64("db.user.id", user.ID))
	defer span.End()

	l := r.logger.With(slog.String("method", "Update"), slog.Int64("userID", user.ID))

	user.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE users SET username = $2, password = $3, email = $4, role = $5,
			provider = $6, provider_id = $7, disabled_at = $8, locked_until = $9,
			lock_reason = $10, expires_at = $11, credentials_expire_at = $12, updated_at = $13
		WHERE id = $1`

	tag, err := r.pgpool.Exec(ctx, query,
		user.ID, user.Username, user.Password, user.Email, user.Role, user.Provider, user.ProviderID,
		user.DisabledAt, user.LockedUntil, user.LockReason, user.ExpiresAt, user.CredentialsExpireAt,
		user.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			span.SetStatus(codes.Error, "unique violation")
			return fmt.Errorf("username %q: %w", user.Username, types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "User not found")
		return fmt.Errorf("user %d: %w", user.ID, types.ErrNotFound)
	}

	span.SetStatus(codes.Ok, "User updated")
	return nil
}

func (r *PostgresUserRepo) Delete(ctx context.Context, id int64) error {
	ctx, span := r.startSpan(ctx, "Delete", "DELETE", attribute.Int64("db.user.id", id))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete user", slog.Int64("userID", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "User not found")
		return fmt.Errorf("user %d: %w", id, types.ErrNotFound)
	}

	span.SetStatus(codes.Ok, "User deleted")
	return nil
}

func (r *PostgresUserRepo) RecordLogin(ctx context.Context, userID int64, provider string) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "RecordLogin", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "login_events"),
		attribute.Int64("db.user.id", userID),
	))
	defer span.End()

	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO login_events (id, user_id, provider) VALUES ($1, $2, $3)`,
		uuid.New(), userID, provider)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("database error recording login: %w", err)
	}
	span.SetStatus(codes.Ok, "Login recorded")
	return nil
}
