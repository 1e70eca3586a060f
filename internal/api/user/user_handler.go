package user

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/go-secure-demo/internal/api"
	"github.com/FACorreiaa/go-secure-demo/internal/api/auth"
	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetMe(w http.ResponseWriter, r *http.Request)
	ListUsers(w http.ResponseWriter, r *http.Request)
	GetUser(w http.ResponseWriter, r *http.Request)
	UpdateUserStatus(w http.ResponseWriter, r *http.Request)
	DeleteUser(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("PANIC: Attempting to create HandlerImpl with nil logger!")
	}
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// GetMe godoc
// @Summary      Current principal
// @Description  Returns the signed-in principal: name, username, authorities and provider attributes.
// @Tags         User
// @Produce      json
// @Success      200 {object} auth.PrincipalResponse "Principal"
// @Failure      401 {object} api.ErrorBody "Unauthorized"
// @Router       /user/me [get]
func (h *HandlerImpl) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, auth.NewPrincipalResponse(p))
}

// ListUsers godoc
// @Summary      List users
// @Description  Lists users ordered by id.
// @Tags         Admin
// @Produce      json
// @Param        limit  query int false "Page size" default(100)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {array}  types.User "Users"
// @Failure      401 {object} api.ErrorBody "Unauthorized"
// @Failure      403 {object} api.ErrorBody "Forbidden"
// @Failure      500 {object} api.ErrorBody "Internal Server Error"
// @Router       /admin/users [get]
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListUsers"))

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.userService.ListUsers(ctx, limit, offset)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list users")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, users)
}

// GetUser godoc
// @Summary      Get user
// @Tags         Admin
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} types.User "User"
// @Failure      400 {object} api.ErrorBody "Invalid ID"
// @Failure      404 {object} api.ErrorBody "User Not Found"
// @Router       /admin/users/{id} [get]
func (h *HandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	u, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "GetUser", err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, u)
}

// UpdateUserStatus godoc
// @Summary      Update role and account status
// @Description  Changes a user's role, disables or enables the account, or locks it until a given time.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id     path int                          true "User ID"
// @Param        params body types.UpdateUserStatusParams true "Status patch"
// @Success      200 {object} types.User "Updated user"
// @Failure      400 {object} api.ErrorBody "Invalid Input"
// @Failure      403 {object} api.ErrorBody "Own account"
// @Failure      404 {object} api.ErrorBody "User Not Found"
// @Router       /admin/users/{id} [patch]
func (h *HandlerImpl) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if err := notSelf(r, id); err != nil {
		h.writeServiceError(w, r, "UpdateUserStatus", err)
		return
	}
	var params types.UpdateUserStatusParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	u, err := h.userService.UpdateStatus(r.Context(), id, params)
	if err != nil {
		h.writeServiceError(w, r, "UpdateUserStatus", err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, u)
}

// DeleteUser godoc
// @Summary      Delete user
// @Tags         Admin
// @Param        id path int true "User ID"
// @Success      204 "Deleted"
// @Failure      403 {object} api.ErrorBody "Own account"
// @Failure      404 {object} api.ErrorBody "User Not Found"
// @Router       /admin/users/{id} [delete]
func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if err := notSelf(r, id); err != nil {
		h.writeServiceError(w, r, "DeleteUser", err)
		return
	}
	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "DeleteUser", err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
	case errors.Is(err, types.ErrInvalidInput):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrForbidden):
		api.ErrorResponse(w, r, http.StatusForbidden, "Admins cannot change their own account here")
	case errors.Is(err, types.ErrConflict):
		api.ErrorResponse(w, r, http.StatusConflict, "Conflict")
	default:
		h.logger.ErrorContext(r.Context(), "User operation failed", slog.String("HandlerImpl", handler), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return 0, false
	}
	return id, true
}

// notSelf stops an admin from locking themselves out through the admin API.
func notSelf(r *http.Request, id int64) error {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok && p.UserID() == id {
		return fmt.Errorf("user %d is the caller: %w", id, types.ErrForbidden)
	}
	return nil
}
