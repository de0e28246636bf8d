// Package httpapi is the HTTP transport glue: route dispatch, JSON
// decoding, and the mapping from service errors to status codes. No
// business logic lives here.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/logging"
	"github.com/memahdii/social-network/internal/server/models"
)

// SignupFlow runs the signup pipeline.
type SignupFlow interface {
	SignUp(ctx context.Context, attrs []string) (*models.User, error)
}

// TokenIssuer issues or fetches the per-user credential.
type TokenIssuer interface {
	IssueOrFetchToken(ctx context.Context, userID int64) (string, error)
}

// GroupViewer assembles group read models.
type GroupViewer interface {
	GetGroupView(ctx context.Context, userID int64) (*models.GroupView, error)
}

// UserManager covers user mutations outside signup.
type UserManager interface {
	UpdateAttributes(ctx context.Context, userID int64, attrs []string) error
	Delete(ctx context.Context, userID int64) error
}

type Handler struct {
	signup SignupFlow
	tokens TokenIssuer
	views  GroupViewer
	users  UserManager
	logger logging.Logger
}

func NewHandler(signup SignupFlow, tokens TokenIssuer, views GroupViewer, users UserManager, logger logging.Logger) *Handler {
	return &Handler{
		signup: signup,
		tokens: tokens,
		views:  views,
		users:  users,
		logger: logger.With("module", "httpapi"),
	}
}

type attributesRequest struct {
	Attributes []string `json:"attributes"`
}

func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req attributesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Attributes are required")
		return
	}

	user, err := h.signup.SignUp(r.Context(), req.Attributes)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{
		"user_id":  user.ID,
		"group_id": user.GroupID,
	})
}

func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	token, err := h.tokens.IssueOrFetchToken(r.Context(), req.UserID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Sign-in successful",
		"user_id": req.UserID,
		"token":   token,
	})
}

func (h *Handler) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	view, err := h.views.GetGroupView(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var req attributesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Attributes are required")
		return
	}

	if err := h.users.UpdateAttributes(r.Context(), userID, req.Attributes); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (h *Handler) userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "user_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		respondError(w, http.StatusBadRequest, "Attributes are required")
	case errors.Is(err, common.ErrNotFound):
		respondError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, common.ErrProvisionTimeout):
		respondError(w, http.StatusServiceUnavailable, "Group assignment timed out, please retry")
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
