package pages

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-secure-demo/internal/api/auth"
	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

func newHandler(t *testing.T) *HandlerImpl {
	t.Helper()
	h, err := NewHandlerImpl([]string{"google"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return h
}

func TestIndex(t *testing.T) {
	h := newHandler(t)

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), `href="/login/login"`)
	})

	t.Run("signed in", func(t *testing.T) {
		p := types.NewLocalPrincipal(types.User{Username: "<alice>", Role: types.RoleAdmin})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
		w := httptest.NewRecorder()
		h.Index(w, req)

		body := w.Body.String()
		assert.Contains(t, body, "&lt;alice&gt;")
		assert.Contains(t, body, types.RoleAdmin)
		assert.Contains(t, body, `action="/logout"`)
	})
}

func TestRenderLogin(t *testing.T) {
	h := newHandler(t)
	w := httptest.NewRecorder()
	h.RenderLogin(w, httptest.NewRequest(http.MethodPost, "/login/login-proc", nil), http.StatusUnauthorized, "Invalid username or password")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `action="/login/login-proc"`)
	assert.Contains(t, body, `name="username"`)
	assert.Contains(t, body, `name="password"`)
	assert.Contains(t, body, "Invalid username or password")
	assert.Contains(t, body, `href="/oauth2/authorization/google"`)
}

func TestText(t *testing.T) {
	w := httptest.NewRecorder()
	Text(JoinCompleted).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/joinProc", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "회원가입완료됨", w.Body.String())
}
