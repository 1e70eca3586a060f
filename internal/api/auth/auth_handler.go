package auth

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"

	"github.com/FACorreiaa/go-secure-demo/internal/api"
	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

// OAuthFlow runs the provider redirect dance.
type OAuthFlow interface {
	Begin(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request) (goth.User, error)
}

// GothicFlow drives OAuth through gothic. The provider name comes from the
// {provider} route parameter.
type GothicFlow struct{}

func (GothicFlow) Begin(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, withProviderQuery(r))
}

func (GothicFlow) Complete(w http.ResponseWriter, r *http.Request) (goth.User, error) {
	return gothic.CompleteUserAuth(w, withProviderQuery(r))
}

func withProviderQuery(r *http.Request) *http.Request {
	provider := chi.URLParam(r, "provider")
	if provider == "" {
		return r
	}
	r2 := r.Clone(r.Context())
	q := r2.URL.Query()
	q.Set("provider", provider)
	r2.URL.RawQuery = q.Encode()
	return r2
}

type HandlerImpl struct {
	service  AuthService
	sessions SessionStore
	oauth    OAuthFlow
	page     LoginPage
	logger   *slog.Logger
}

func NewAuthHandlerImpl(service AuthService, sessions SessionStore, oauth OAuthFlow, page LoginPage, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service:  service,
		sessions: sessions,
		oauth:    oauth,
		page:     page,
		logger:   logger,
	}
}

// LoginPage godoc
// @Summary      Login form
// @Description  Renders the username/password login form.
// @Tags         Auth
// @Produce      html
// @Success      200 {string} string "HTML login form"
// @Router       /login/login [get]
func (h *HandlerImpl) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.page.RenderLogin(w, r, http.StatusOK, "")
}

// LoginProc godoc
// @Summary      Process login
// @Description  Checks the posted credentials. On success a session cookie is set and the client is redirected to /.
// @Tags         Auth
// @Accept       x-www-form-urlencoded
// @Produce      html
// @Param        username formData string true "Username"
// @Param        password formData string true "Password"
// @Success      302 "Redirect to /"
// @Failure      401 {string} string "Login form with error"
// @Failure      500 {object} api.ErrorBody "Internal Server Error"
// @Router       /login/login-proc [post]
func (h *HandlerImpl) LoginProc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "LoginProc"))

	if err := r.ParseForm(); err != nil {
		h.page.RenderLogin(w, r, http.StatusBadRequest, "Malformed login form")
		return
	}
	username := r.PostFormValue(UsernameField)
	password := r.PostFormValue(PasswordField)
	if username == "" || password == "" {
		h.page.RenderLogin(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	p, err := h.service.Login(ctx, username, password)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrUnauthenticated):
			h.page.RenderLogin(w, r, http.StatusUnauthorized, "Invalid username or password")
		case errors.Is(err, types.ErrAccountUnavailable):
			h.page.RenderLogin(w, r, http.StatusUnauthorized, "Account is disabled, locked or expired")
		default:
			l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	h.startSession(w, r, p)
}

// Logout godoc
// @Summary      Logout
// @Description  Destroys the current session and redirects to /.
// @Tags         Auth
// @Success      302 "Redirect to /"
// @Router       /logout [post]
// @Router       /logout [get]
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
	if err := gothic.Logout(w, r); err != nil {
		h.logger.DebugContext(r.Context(), "No OAuth state to clear", slog.Any("error", err))
	}
	http.Redirect(w, r, LogoutSuccessURL, http.StatusFound)
}

// OAuthBegin godoc
// @Summary      Start OAuth login
// @Description  Redirects to the provider's consent page.
// @Tags         Auth
// @Param        provider path string true "Provider name" example(google)
// @Success      307 "Redirect to provider"
// @Failure      400 {object} api.ErrorBody "Unknown provider"
// @Router       /oauth2/authorization/{provider} [get]
func (h *HandlerImpl) OAuthBegin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if _, err := goth.GetProvider(provider); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Unknown provider")
		return
	}
	h.oauth.Begin(w, r)
}

// OAuthCallback godoc
// @Summary      Complete OAuth login
// @Description  Exchanges the provider's code, finds or creates the local user and starts a session.
// @Tags         Auth
// @Param        provider path string true "Provider name" example(google)
// @Success      302 "Redirect to /"
// @Failure      401 {string} string "Login form with error"
// @Router       /login/oauth2/code/{provider} [get]
func (h *HandlerImpl) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "OAuthCallback"), slog.String("provider", chi.URLParam(r, "provider")))

	gu, err := h.oauth.Complete(w, r)
	if err != nil {
		l.WarnContext(ctx, "OAuth exchange failed", slog.Any("error", err))
		h.page.RenderLogin(w, r, http.StatusUnauthorized, "Sign-in with provider failed")
		return
	}

	p, err := h.service.LoginOAuth(ctx, gu)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrUnauthenticated), errors.Is(err, types.ErrConflict):
			h.page.RenderLogin(w, r, http.StatusUnauthorized, "Sign-in with provider failed")
		case errors.Is(err, types.ErrAccountUnavailable):
			h.page.RenderLogin(w, r, http.StatusUnauthorized, "Account is disabled, locked or expired")
		default:
			l.ErrorContext(ctx, "OAuth login failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	h.startSession(w, r, p)
}

// Join godoc
// @Summary      Register
// @Description  Creates a local account with role ROLE_USER. Form posts are redirected to the login page; JSON posts get the created user.
// @Tags         Auth
// @Accept       x-www-form-urlencoded,json
// @Produce      json
// @Param        username formData string true "Username"
// @Param        password formData string true "Password"
// @Param        email    formData string false "Email"
// @Success      201 {object} types.User "Created (JSON requests)"
// @Success      302 "Redirect to /login/login (form requests)"
// @Failure      400 {object} api.ErrorBody "Invalid input"
// @Failure      409 {object} api.ErrorBody "Username taken"
// @Failure      500 {object} api.ErrorBody "Internal Server Error"
// @Router       /join [post]
func (h *HandlerImpl) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Join"))

	var req types.RegisterRequest
	asJSON := isJSON(r)
	if asJSON {
		if err := api.DecodeJSONBody(w, r, &req); err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Malformed form")
			return
		}
		req = types.RegisterRequest{
			Username: r.PostFormValue(UsernameField),
			Password: r.PostFormValue(PasswordField),
			Email:    r.PostFormValue(EmailField),
		}
	}

	user, err := h.service.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidInput):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, "Username already taken")
		default:
			l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	if asJSON {
		api.WriteJSONResponse(w, r, http.StatusCreated, user)
		return
	}
	http.Redirect(w, r, LoginPagePath, http.StatusFound)
}

func (h *HandlerImpl) startSession(w http.ResponseWriter, r *http.Request, p *types.Principal) {
	if _, err := h.sessions.Create(w, r, p); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to create session", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		return
	}
	http.Redirect(w, r, LoginSuccessPath, http.StatusFound)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
