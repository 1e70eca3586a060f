// Package session keeps authenticated sessions on the server.
//
// A session lives in an in-process go-cache store keyed by a random id. The
// browser only holds a signed token naming that id, so deleting the store
// entry revokes the session even if the cookie is replayed.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-secure-demo/config"
	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

var (
	ErrNoSession      = errors.New("no session cookie")
	ErrInvalidSession = errors.New("session invalid or expired")
)

// Record is what the server remembers about one signed-in browser.
type Record struct {
	ID         string
	UserID     int64
	Kind       types.PrincipalKind
	Provider   string
	Attributes map[string]any
	CreatedAt  time.Time
}

// Claims is the payload of the session cookie. ID carries the session id.
type Claims struct {
	jwt.RegisteredClaims
}

type Manager struct {
	store      *cache.Cache
	secret     []byte
	cookieName string
	issuer     string
	ttl        time.Duration
	secure     bool
	logger     *slog.Logger
}

func NewManager(cfg config.SessionConfig, logger *slog.Logger) *Manager {
	name := cfg.CookieName
	if name == "" {
		name = "SESSION"
	}
	return &Manager{
		store:      cache.New(cfg.TTL, cfg.TTL/2),
		secret:     []byte(cfg.Secret),
		cookieName: name,
		issuer:     cfg.Issuer,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		logger:     logger.With(slog.String("component", "session")),
	}
}

func (m *Manager) CookieName() string { return m.cookieName }

// Count returns the number of live sessions.
func (m *Manager) Count() int { return m.store.ItemCount() }

// Create starts a session for p and writes the cookie. Any session the
// request already carried is dropped first.
func (m *Manager) Create(w http.ResponseWriter, r *http.Request, p *types.Principal) (*Record, error) {
	if old, err := m.Lookup(r); err == nil {
		m.Revoke(old.ID)
	}

	now := time.Now()
	rec := &Record{
		ID:        uuid.NewString(),
		UserID:    p.UserID(),
		Kind:      p.Kind(),
		Provider:  p.User().Provider,
		CreatedAt: now,
	}
	if attrs, ok := p.Attributes(); ok {
		rec.Attributes = attrs
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rec.ID,
			Subject:   strconv.FormatInt(rec.UserID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	m.store.Set(rec.ID, rec, cache.DefaultExpiration)
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	m.logger.Debug("Session created", slog.String("session_id", rec.ID), slog.Int64("userID", rec.UserID))
	return rec, nil
}

// Lookup resolves the request's cookie to a live session record.
func (m *Manager) Lookup(r *http.Request) (*Record, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(c.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	v, found := m.store.Get(claims.ID)
	if !found {
		return nil, ErrInvalidSession
	}
	rec := v.(*Record)
	if strconv.FormatInt(rec.UserID, 10) != claims.Subject {
		return nil, ErrInvalidSession
	}
	return rec, nil
}

// Destroy removes the request's session, if any, and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	if rec, err := m.Lookup(r); err == nil {
		m.Revoke(rec.ID)
		m.logger.Debug("Session destroyed", slog.String("session_id", rec.ID))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Revoke drops a session by id.
func (m *Manager) Revoke(id string) {
	m.store.Delete(id)
}
