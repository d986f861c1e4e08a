// Package http provides the HTTP handlers of the recognition server.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/middleware"
	"github.com/atinyakov/rollcall/internal/models"
	"github.com/atinyakov/rollcall/internal/service"
)

// AuthService defines the authentication operations required by the HTTP handlers.
type AuthService interface {
	// Register creates an account; service.ErrUserExists if the name is taken.
	Register(ctx context.Context, creds models.Credentials) error
	// Login opens a session; service.ErrInvalidCredentials on mismatch.
	Login(ctx context.Context, creds models.Credentials) (*models.Session, error)
	// Logout ends the session identified by token.
	Logout(ctx context.Context, token string) error
}

// SessionCookies issues, clears and reads session cookies.
type SessionCookies interface {
	SetCookie(w http.ResponseWriter, sess *models.Session)
	ClearCookie(w http.ResponseWriter)
	Authenticate(r *http.Request) (*models.Session, bool)
}

// AuthHandler handles HTTP requests for registration, login and logout.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Sessions    SessionCookies
	Logger      *zap.Logger
}

func (h *AuthHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// Register handles POST /api/register with a {username, password} body.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondJSON(w, http.StatusBadRequest, successResponse{Message: "invalid request"})
		return
	}

	err := h.AuthService.Register(r.Context(), creds)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, successResponse{Success: true})
	case errors.Is(err, service.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, successResponse{Message: "invalid request"})
	case errors.Is(err, service.ErrUserExists):
		respondJSON(w, http.StatusConflict, successResponse{Message: "user already exists"})
	default:
		h.logger().Error("register failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, successResponse{Message: "internal error"})
	}
}

// Login handles POST /api/login. On success the response carries the
// session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondJSON(w, http.StatusBadRequest, successResponse{Message: "invalid request"})
		return
	}

	sess, err := h.AuthService.Login(r.Context(), creds)
	if errors.Is(err, service.ErrInvalidCredentials) {
		respondJSON(w, http.StatusUnauthorized, successResponse{Message: "invalid credentials"})
		return
	}
	if err != nil {
		h.logger().Error("login failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, successResponse{Message: "internal error"})
		return
	}

	h.Sessions.SetCookie(w, sess)
	respondJSON(w, http.StatusOK, successResponse{Success: true})
}

// Logout handles POST /api/logout. The cookie is cleared even if the
// session could not be deleted.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w)

	token := middleware.GetSessionTokenFromContext(r.Context())
	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		h.logger().Error("logout failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, successResponse{Message: "internal error"})
		return
	}
	respondJSON(w, http.StatusOK, successResponse{Success: true})
}

// CheckAuth handles GET /api/check-auth.
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.Sessions.Authenticate(r); !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"status": "unauthorized"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
