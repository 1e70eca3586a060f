package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-secure-demo/app/observability/metrics"
	"github.com/FACorreiaa/go-secure-demo/app/session"
	"github.com/FACorreiaa/go-secure-demo/internal/api"
	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *types.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal set by Authenticate, if any.
func PrincipalFromContext(ctx context.Context) (*types.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*types.Principal)
	return p, ok && p != nil
}

// Resolver turns a stored session back into a principal.
type Resolver interface {
	Resolve(ctx context.Context, userID int64, kind types.PrincipalKind, attrs map[string]any) (*types.Principal, error)
}

// Authenticate resolves the session cookie into a principal on the request
// context. Requests without a usable session continue anonymously.
func Authenticate(sessions SessionStore, resolver Resolver, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			rec, err := sessions.Lookup(r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					l.DebugContext(ctx, "Ignoring invalid session", slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}

			p, err := resolver.Resolve(ctx, rec.UserID, rec.Kind, rec.Attributes)
			if err != nil {
				// Deleted, disabled or locked since sign-in: drop the session.
				l.InfoContext(ctx, "Session user no longer usable", slog.Int64("userID", rec.UserID), slog.Any("error", err))
				if errors.Is(err, types.ErrUnauthenticated) || errors.Is(err, types.ErrAccountUnavailable) {
					sessions.Destroy(w, r)
				}
				next.ServeHTTP(w, r)
				return
			}

			l.DebugContext(ctx, "Principal resolved", slog.String("username", p.Username()))
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, p)))
		})
	}
}

// Authorize enforces the rule table. Anonymous callers on a protected path go
// to unauthorized; callers without the required role go to forbidden.
func Authorize(rules []Rule, unauthorized, forbidden http.Handler, m *metrics.AppMetrics, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, _ := PrincipalFromContext(ctx)

			decision := Evaluate(rules, r.URL.Path, p)
			m.RecordDecision(ctx, decision.String())

			switch decision {
			case DenyUnauthenticated:
				logger.InfoContext(ctx, "Access denied: authentication required", slog.String("path", r.URL.Path))
				unauthorized.ServeHTTP(w, r)
			case DenyForbidden:
				logger.InfoContext(ctx, "Access denied: missing role",
					slog.String("path", r.URL.Path),
					slog.String("username", p.Username()),
					slog.Any("authorities", p.Authorities()))
				forbidden.ServeHTTP(w, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// UnauthorizedHandler answers 401 for anonymous access to a protected path.
func UnauthorizedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `FormBased realm="securedemo", login="`+LoginPagePath+`"`)
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
	})
}

// ForbiddenHandler answers 403 for a signed-in caller lacking the role.
func ForbiddenHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusForbidden, "Access denied")
	})
}
