package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/markbates/goth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-secure-demo/app/observability/metrics"
	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	// Login checks a username and password against the store.
	Login(ctx context.Context, username, password string) (*types.Principal, error)
	// LoginOAuth finds or provisions the local user behind a provider identity.
	LoginOAuth(ctx context.Context, providerUser goth.User) (*types.Principal, error)
	Register(ctx context.Context, req types.RegisterRequest) (*types.User, error)
	// Resolve rebuilds the principal a session was created for.
	Resolve(ctx context.Context, userID int64, kind types.PrincipalKind, attrs map[string]any) (*types.Principal, error)
}

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 4
	// bcrypt ignores input past 72 bytes.
	maxPasswordLen = 72
)

type AuthServiceImpl struct {
	logger   *slog.Logger
	repo     UserStore
	metrics  *metrics.AppMetrics
	hashCost int
	// dummyHash is compared against when the username is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

func NewAuthService(repo UserStore, m *metrics.AppMetrics, logger *slog.Logger) *AuthServiceImpl {
	return newAuthService(repo, m, logger, bcrypt.DefaultCost)
}

func newAuthService(repo UserStore, m *metrics.AppMetrics, logger *slog.Logger, cost int) *AuthServiceImpl {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		panic(fmt.Sprintf("auth: cannot hash dummy password: %v", err))
	}
	return &AuthServiceImpl{
		logger:    logger,
		repo:      repo,
		metrics:   m,
		hashCost:  cost,
		dummyHash: dummy,
	}
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*types.Principal, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login", trace.WithAttributes(
		attribute.String("user.username", username),
	))
	defer span.End()
	started := time.Now()

	l := s.logger.With(slog.String("method", "Login"), slog.String("username", username))

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		l.ErrorContext(ctx, "Failed to look up user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		s.metrics.RecordLogin(ctx, types.ProviderLocal, metrics.OutcomeError, started)
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if user == nil || !user.IsLocal() {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		l.WarnContext(ctx, "Login failed: unknown user")
		span.SetStatus(codes.Error, "bad credentials")
		s.metrics.RecordLogin(ctx, types.ProviderLocal, metrics.OutcomeBadCreds, started)
		return nil, types.ErrUnauthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		l.WarnContext(ctx, "Login failed: password mismatch")
		span.SetStatus(codes.Error, "bad credentials")
		s.metrics.RecordLogin(ctx, types.ProviderLocal, metrics.OutcomeBadCreds, started)
		return nil, types.ErrUnauthenticated
	}

	p := types.NewLocalPrincipal(*user)
	if !p.Usable() {
		l.WarnContext(ctx, "Login refused: account unavailable")
		span.SetStatus(codes.Error, "account unavailable")
		s.metrics.RecordLogin(ctx, types.ProviderLocal, metrics.OutcomeUnavailable, started)
		return nil, types.ErrAccountUnavailable
	}

	s.recordLogin(ctx, l, user.ID, types.ProviderLocal)
	s.metrics.RecordLogin(ctx, types.ProviderLocal, metrics.OutcomeSuccess, started)
	l.InfoContext(ctx, "User logged in", slog.Int64("userID", user.ID))
	span.SetStatus(codes.Ok, "logged in")
	return p, nil
}

func (s *AuthServiceImpl) LoginOAuth(ctx context.Context, gu goth.User) (*types.Principal, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "LoginOAuth", trace.WithAttributes(
		attribute.String("oauth.provider", gu.Provider),
	))
	defer span.End()
	started := time.Now()

	l := s.logger.With(slog.String("method", "LoginOAuth"), slog.String("provider", gu.Provider))

	if gu.Provider == "" || gu.UserID == "" {
		span.SetStatus(codes.Error, "incomplete provider identity")
		s.metrics.RecordLogin(ctx, gu.Provider, metrics.OutcomeBadCreds, started)
		return nil, fmt.Errorf("provider identity incomplete: %w", types.ErrUnauthenticated)
	}

	user, err := s.repo.FindByProvider(ctx, gu.Provider, gu.UserID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to look up user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		s.metrics.RecordLogin(ctx, gu.Provider, metrics.OutcomeError, started)
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if user == nil {
		user, err = s.provision(ctx, l, gu)
		if err != nil {
			l.ErrorContext(ctx, "Failed to provision OAuth user", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "provisioning failed")
			s.metrics.RecordLogin(ctx, gu.Provider, metrics.OutcomeError, started)
			return nil, err
		}
		l.InfoContext(ctx, "Provisioned user for provider identity", slog.Int64("userID", user.ID), slog.String("username", user.Username))
	}

	p := types.NewOAuthPrincipal(*user, ProviderAttributes(gu))
	if !p.Usable() {
		l.WarnContext(ctx, "Login refused: account unavailable")
		span.SetStatus(codes.Error, "account unavailable")
		s.metrics.RecordLogin(ctx, gu.Provider, metrics.OutcomeUnavailable, started)
		return nil, types.ErrAccountUnavailable
	}

	s.recordLogin(ctx, l, user.ID, gu.Provider)
	s.metrics.RecordLogin(ctx, gu.Provider, metrics.OutcomeSuccess, started)
	span.SetStatus(codes.Ok, "logged in")
	return p, nil
}

// provision creates the local account for a provider identity. The username
// is OAuthUsername unless another account already holds it.
func (s *AuthServiceImpl) provision(ctx context.Context, l *slog.Logger, gu goth.User) (*types.User, error) {
	// OAuth users never sign in locally; the password only fills the column.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &types.User{
		Username:   OAuthUsername(gu.Provider, gu.UserID),
		Password:   string(hash),
		Email:      gu.Email,
		Role:       types.RoleUser,
		Provider:   gu.Provider,
		ProviderID: gu.UserID,
	}
	err = s.repo.Create(ctx, user)
	if errors.Is(err, types.ErrConflict) {
		l.WarnContext(ctx, "Username taken, provisioning with a suffix", slog.String("username", user.Username))
		user.Username += "_" + uuid.NewString()[:8]
		err = s.repo.Create(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.username", req.Username),
	))
	defer span.End()
	started := time.Now()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", req.Username))

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRegistration(req); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		s.metrics.RecordRegister(ctx, "invalid", started)
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordRegister(ctx, metrics.OutcomeError, started)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &types.User{
		Username: req.Username,
		Password: string(hash),
		Email:    req.Email,
		Role:     types.RoleUser,
		Provider: types.ProviderLocal,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		if errors.Is(err, types.ErrConflict) {
			l.WarnContext(ctx, "Registration refused: username taken")
			s.metrics.RecordRegister(ctx, "conflict", started)
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		s.metrics.RecordRegister(ctx, metrics.OutcomeError, started)
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.Int64("userID", user.ID))
	s.metrics.RecordRegister(ctx, metrics.OutcomeSuccess, started)
	span.SetStatus(codes.Ok, "registered")
	return user, nil
}

func (s *AuthServiceImpl) Resolve(ctx context.Context, userID int64, kind types.PrincipalKind, attrs map[string]any) (*types.Principal, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading session user: %w", err)
	}
	if user == nil {
		return nil, types.ErrUnauthenticated
	}

	var p *types.Principal
	if kind == types.KindOAuth {
		p = types.NewOAuthPrincipal(*user, attrs)
	} else {
		p = types.NewLocalPrincipal(*user)
	}
	if !p.Usable() {
		return nil, types.ErrAccountUnavailable
	}
	return p, nil
}

func (s *AuthServiceImpl) recordLogin(ctx context.Context, l *slog.Logger, userID int64, provider string) {
	if err := s.repo.RecordLogin(ctx, userID, provider); err != nil {
		l.WarnContext(ctx, "Failed to record login event", slog.Any("error", err))
	}
}

// OAuthUsername is the preferred local username for a provider identity.
func OAuthUsername(provider, providerUserID string) string {
	return provider + "_" + providerUserID
}

// ProviderAttributes flattens a provider user into the principal's attribute
// map. "sub" is always the provider's user id.
func ProviderAttributes(gu goth.User) map[string]any {
	attrs := make(map[string]any, len(gu.RawData)+4)
	for k, v := range gu.RawData {
		attrs[k] = v
	}
	attrs[types.SubjectAttribute] = gu.UserID
	if gu.Email != "" {
		attrs["email"] = gu.Email
	}
	if gu.Name != "" {
		attrs["name"] = gu.Name
	}
	if gu.AvatarURL != "" {
		attrs["picture"] = gu.AvatarURL
	}
	return attrs
}

func validateRegistration(req types.RegisterRequest) error {
	switch {
	case utf8.RuneCountInString(req.Username) < minUsernameLen || utf8.RuneCountInString(req.Username) > maxUsernameLen:
		return fmt.Errorf("username must be %d-%d characters: %w", minUsernameLen, maxUsernameLen, types.ErrInvalidInput)
	case strings.ContainsAny(req.Username, " \t\r\n/"):
		return fmt.Errorf("username must not contain spaces or slashes: %w", types.ErrInvalidInput)
	case len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen:
		return fmt.Errorf("password must be %d-%d bytes: %w", minPasswordLen, maxPasswordLen, types.ErrInvalidInput)
	case req.Email != "" && !strings.Contains(req.Email, "@"):
		return fmt.Errorf("email is malformed: %w", types.ErrInvalidInput)
	}
	return nil
}
