// Package middleware provides HTTP middlewares for session authentication and logging.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/rollcall/internal/models"
)

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "session"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "rollcall_session"

// SessionValidator resolves a session token to a live session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*models.Session, error)
}

// Sessions signs session cookies and authenticates requests carrying them.
// The cookie value is "token.signature" with an HMAC-SHA256 signature.
type Sessions struct {
	secret    []byte
	validator SessionValidator
	// Secure marks cookies HTTPS-only.
	Secure bool
}

// NewSessions creates a Sessions signing with secret.
func NewSessions(secret string, validator SessionValidator) *Sessions {
	return &Sessions{secret: []byte(secret), validator: validator}
}

// SetCookie writes the signed cookie for sess.
func (s *Sessions) SetCookie(w http.ResponseWriter, sess *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token + "." + s.sign(sess.Token),
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
	})
}

// Token returns the session token from r if its cookie carries a valid signature.
func (s *Sessions) Token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	token, sig, ok := strings.Cut(cookie.Value, ".")
	if !ok || token == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(token))) {
		return "", false
	}
	return token, true
}

// Authenticate returns the live session referenced by r, if any.
func (s *Sessions) Authenticate(r *http.Request) (*models.Session, bool) {
	token, ok := s.Token(r)
	if !ok {
		return nil, false
	}
	sess, err := s.validator.ValidateSession(r.Context(), token)
	if err != nil {
		return nil, false
	}
	return sess, true
}

// RequireAuth rejects requests without a live session with 401 and stores
// the user ID and session token in the context of the rest.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.Authenticate(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func (s *Sessions) sign(token string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// WithSession returns ctx carrying the user ID and token of sess.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	ctx = context.WithValue(ctx, userKey, sess.UserID)
	return context.WithValue(ctx, tokenKey, sess.Token)
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}

// GetSessionTokenFromContext extracts the session token stored by RequireAuth.
func GetSessionTokenFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(tokenKey).(string); ok {
		return s
	}
	return ""
}
