package auth

import (
	"context"
	"net/http"

	"github.com/FACorreiaa/go-secure-demo/app/session"
	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

// Form field names posted to the login processing URL.
const (
	UsernameField = "username"
	PasswordField = "password"
	EmailField    = "email"
)

// Fixed routes of the login flow.
const (
	LoginPagePath    = "/login/login"
	LoginProcessPath = "/login/login-proc"
	LogoutPath       = "/logout"
	LoginSuccessPath = "/"
	LogoutSuccessURL = "/"
)

// UserStore is the part of the user repository the auth flow needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*types.User, error)
	FindByProvider(ctx context.Context, provider, providerID string) (*types.User, error)
	GetByID(ctx context.Context, id int64) (*types.User, error)
	Create(ctx context.Context, user *types.User) error
	RecordLogin(ctx context.Context, userID int64, provider string) error
}

// SessionStore persists the principal between requests.
type SessionStore interface {
	Create(w http.ResponseWriter, r *http.Request, p *types.Principal) (*session.Record, error)
	Lookup(r *http.Request) (*session.Record, error)
	Destroy(w http.ResponseWriter, r *http.Request)
}

// LoginPage renders the login form. Status is the HTTP status to send and
// message an optional error shown above the form.
type LoginPage interface {
	RenderLogin(w http.ResponseWriter, r *http.Request, status int, message string)
}

// PrincipalResponse is the JSON view of the current principal.
type PrincipalResponse struct {
	Name        string         `json:"name" example:"johndoe"`
	Username    string         `json:"username" example:"johndoe"`
	Kind        string         `json:"kind" example:"local"`
	Authorities []string       `json:"authorities" example:"ROLE_USER"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

func NewPrincipalResponse(p *types.Principal) PrincipalResponse {
	attrs, _ := p.Attributes()
	return PrincipalResponse{
		Name:        p.Name(),
		Username:    p.Username(),
		Kind:        p.Kind().String(),
		Authorities: p.Authorities(),
		Attributes:  attrs,
	}
}
