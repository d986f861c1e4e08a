// Package session owns the client's authentication state and drives the
// login, registration and logout exchanges with the recognition service.
package session

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/models"
)

const (
	pathLogin     = "/login"
	pathRegister  = "/register"
	pathLogout    = "/logout"
	pathCheckAuth = "/check-auth"
)

var (
	// ErrInvalidCredentials is returned for every unsuccessful login, whether
	// the service rejected the credentials or could not be reached.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRegistrationFailed is returned for every unsuccessful registration.
	ErrRegistrationFailed = errors.New("registration failed")
)

// State is the authentication status of the client.
type State int32

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Transport is the subset of the HTTP client the Manager needs.
type Transport interface {
	PostJSON(ctx context.Context, path string, in, out any) error
	GetJSON(ctx context.Context, path string, out any) error
}

// Manager is the single owner of the client's SessionState. Only its methods
// change the state; other components read it through IsAuthenticated.
type Manager struct {
	transport Transport
	log       *zap.Logger
	state     atomic.Int32
}

// NewManager returns a Manager in the Unauthenticated state.
func NewManager(t Transport, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{transport: t, log: log}
}

type loginResponse struct {
	Success bool `json:"success"`
}

// Login sends creds to the service and moves to Authenticated when it answers
// {"success": true}. Any other outcome leaves the state untouched and returns
// ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) error {
	var resp loginResponse
	if err := m.transport.PostJSON(ctx, pathLogin, creds, &resp); err != nil {
		m.log.Info("login failed", zap.String("username", creds.Username), zap.Error(err))
		return ErrInvalidCredentials
	}
	if !resp.Success {
		m.log.Info("login rejected", zap.String("username", creds.Username))
		return ErrInvalidCredentials
	}
	m.state.Store(int32(Authenticated))
	m.log.Debug("login succeeded", zap.String("username", creds.Username))
	return nil
}

// Register creates an account. It never authenticates the session: the caller
// still has to Login afterwards.
func (m *Manager) Register(ctx context.Context, creds models.Credentials) error {
	if err := m.transport.PostJSON(ctx, pathRegister, creds, nil); err != nil {
		m.log.Info("registration failed", zap.String("username", creds.Username), zap.Error(err))
		return ErrRegistrationFailed
	}
	return nil
}

// Logout resets the state to Unauthenticated, then tells the service. The
// remote call is best effort; its failure does not affect the local state.
func (m *Manager) Logout(ctx context.Context) {
	m.state.Store(int32(Unauthenticated))
	if err := m.transport.PostJSON(ctx, pathLogout, nil, nil); err != nil {
		m.log.Debug("remote logout failed", zap.Error(err))
	}
}

// CheckAuth asks the service whether the stored session cookie is still valid
// and aligns the local state with the answer.
func (m *Manager) CheckAuth(ctx context.Context) State {
	var resp struct {
		Status string `json:"status"`
	}
	if err := m.transport.GetJSON(ctx, pathCheckAuth, &resp); err != nil || resp.Status != "ok" {
		m.state.Store(int32(Unauthenticated))
		return Unauthenticated
	}
	m.state.Store(int32(Authenticated))
	return Authenticated
}

// IsAuthenticated reports whether the last login succeeded and no logout
// happened since.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

// State returns the current state.
func (m *Manager) State() State {
	return State(m.state.Load())
}
