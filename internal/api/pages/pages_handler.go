// Package pages serves the demo's HTML pages and fixed text endpoints.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-secure-demo/internal/api"
	"github.com/FACorreiaa/go-secure-demo/internal/api/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

// JoinCompleted is the body of /joinProc.
const JoinCompleted = "회원가입완료됨"

var _ auth.LoginPage = (*HandlerImpl)(nil)

type HandlerImpl struct {
	tmpl      *template.Template
	providers []string
	logger    *slog.Logger
}

type indexData struct {
	Name        string
	Authorities []string
}

type loginData struct {
	Message   string
	Providers []string
}

// NewHandlerImpl parses the embedded templates. providers are the OAuth
// provider names linked from the login page.
func NewHandlerImpl(providers []string, logger *slog.Logger) (*HandlerImpl, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return &HandlerImpl{
		tmpl:      tmpl,
		providers: providers,
		logger:    logger,
	}, nil
}

// Index godoc
// @Summary      Index page
// @Description  HTML index page showing the signed-in principal, if any.
// @Tags         Pages
// @Produce      html
// @Success      200 {string} string "HTML"
// @Router       / [get]
func (h *HandlerImpl) Index(w http.ResponseWriter, r *http.Request) {
	var data indexData
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		data.Name = p.Name()
		data.Authorities = p.Authorities()
	}
	h.render(w, r, http.StatusOK, "index", data)
}

// RenderLogin writes the login form with an optional error message.
func (h *HandlerImpl) RenderLogin(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "login", loginData{Message: message, Providers: h.providers})
}

// Text returns a handler answering body as text/plain.
func Text(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteTextResponse(w, r, http.StatusOK, body)
	}
}

func (h *HandlerImpl) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render page", slog.String("template", name), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to write page", slog.Any("error", err))
	}
}
