package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

// Ensure implementation satisfies the interface
var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for user administration.
type UserService interface {
	ListUsers(ctx context.Context, limit, offset int) ([]types.User, error)
	GetUser(ctx context.Context, id int64) (*types.User, error)
	UpdateStatus(ctx context.Context, id int64, params types.UpdateUserStatusParams) (*types.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// UserServiceImpl provides the implementation for UserService.
type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, limit, offset int) ([]types.User, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	ctx, span := otel.Tracer("UserService").Start(ctx, "ListUsers", trace.WithAttributes(
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ListUsers"))

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list users")
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	if users == nil {
		users = []types.User{}
	}

	l.DebugContext(ctx, "Users listed", slog.Int("count", len(users)))
	span.SetStatus(codes.Ok, "Users listed")
	return users, nil
}

// GetUser returns types.ErrNotFound when no user has the id.
func (s *UserServiceImpl) GetUser(ctx context.Context, id int64) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "GetUser", trace.WithAttributes(
		attribute.Int64("user.id", id),
	))
	defer span.End()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch user")
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if u == nil {
		span.SetStatus(codes.Error, "User not found")
		return nil, fmt.Errorf("user %d: %w", id, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "User fetched")
	return u, nil
}

// UpdateStatus applies an admin patch to a user's role and account status.
func (s *UserServiceImpl) UpdateStatus(ctx context.Context, id int64, params types.UpdateUserStatusParams) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateStatus", trace.WithAttributes(
		attribute.Int64("user.id", id),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateStatus"), slog.Int64("userID", id))

	if params.Role != nil && !types.ValidRole(*params.Role) {
		span.SetStatus(codes.Error, "Invalid role")
		return nil, fmt.Errorf("role %q: %w", *params.Role, types.ErrInvalidInput)
	}

	u, err := s.GetUser(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if params.Role != nil {
		u.Role = *params.Role
	}
	if params.Disabled != nil {
		if *params.Disabled {
			if u.DisabledAt == nil {
				now := time.Now().UTC()
				u.DisabledAt = &now
			}
		} else {
			u.DisabledAt = nil
		}
	}
	if params.Unlock {
		u.LockedUntil = nil
		u.LockReason = ""
	} else if params.LockedUntil != nil {
		until := params.LockedUntil.UTC()
		u.LockedUntil = &until
		if params.LockReason != nil {
			u.LockReason = *params.LockReason
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update user")
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	l.InfoContext(ctx, "User status updated", slog.String("role", u.Role), slog.Bool("disabled", u.DisabledAt != nil))
	span.SetStatus(codes.Ok, "User updated")
	return u, nil
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("UserService").Start(ctx, "DeleteUser", trace.WithAttributes(
		attribute.Int64("user.id", id),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete user", slog.Int64("userID", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete user")
		return fmt.Errorf("error deleting user: %w", err)
	}
	s.logger.InfoContext(ctx, "User deleted", slog.Int64("userID", id))
	span.SetStatus(codes.Ok, "User deleted")
	return nil
}
