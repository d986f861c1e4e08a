// Package service provides the business logic of the recognition server,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/rollcall/internal/models"
	"github.com/atinyakov/rollcall/internal/repository"
)

var (
	// ErrInvalidInput is returned for blank usernames or passwords.
	ErrInvalidInput = errors.New("username and password are required")
	// ErrUserExists is returned by Register when the username is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSession is returned for unknown or expired session tokens.
	ErrInvalidSession = errors.New("invalid session")
)

// UserRepository defines the account persistence the auth service needs.
type UserRepository interface {
	// CreateUser inserts a user; repository.ErrConflict if the username is taken.
	CreateUser(ctx context.Context, user models.User) error
	// GetUserByUsername returns repository.ErrNotFound for unknown users.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// SessionRepository defines session persistence.
type SessionRepository interface {
	CreateSession(ctx context.Context, sess models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// AuthService registers faculty accounts and manages their login sessions.
type AuthService struct {
	users    UserRepository
	sessions SessionRepository
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// NewAuthService constructs an AuthService whose sessions live for ttl.
func NewAuthService(users UserRepository, sessions SessionRepository, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// Register creates an account for creds.
func (s *AuthService) Register(ctx context.Context, creds models.Credentials) error {
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrConflict) {
		return ErrUserExists
	}
	return err
}

// Login verifies creds and opens a new session.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(creds.Username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	sess := models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Logout ends the session identified by token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// ValidateSession returns the live session for token. Expired sessions are
// deleted on sight and reported as ErrInvalidSession.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.Session, error) {
	sess, err := s.sessions.GetSession(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, ErrInvalidSession
	}
	return sess, nil
}
