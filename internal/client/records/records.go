// Package records reads attendance history and enrolls known faces on behalf
// of an authenticated session.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/client/transport"
	"github.com/atinyakov/rollcall/internal/client/upload"
	"github.com/atinyakov/rollcall/internal/models"
)

const (
	pathHistory    = "/history"
	pathDashboard  = "/dashboard"
	pathKnownFace  = "/known-face"
	pathKnownFaces = "/known-faces"
)

var (
	// ErrUnauthorized is returned when the session is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRequestFailed collapses every transport or service failure.
	ErrRequestFailed = errors.New("request failed")
	// ErrNameRequired is returned by AddKnownFace for a blank name.
	ErrNameRequired = errors.New("name is required")
)

// Transport is the subset of the HTTP client Client needs.
type Transport interface {
	GetJSON(ctx context.Context, path string, out any) error
	PostMultipart(ctx context.Context, path string, parts []transport.Part, fields map[string]string, out any) error
}

// Client wraps the read-only attendance endpoints and face enrollment.
type Client struct {
	transport Transport
	gate      upload.Gate
	log       *zap.Logger
}

// New constructs a Client.
func New(t Transport, gate upload.Gate, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{transport: t, gate: gate, log: log}
}

// History returns attendance marks, newest first.
func (c *Client) History(ctx context.Context) ([]models.AttendanceRecord, error) {
	if !c.gate.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	var out []models.AttendanceRecord
	if err := c.transport.GetJSON(ctx, pathHistory, &out); err != nil {
		c.log.Warn("history request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return out, nil
}

// Dashboard returns per-student attendance counts.
func (c *Client) Dashboard(ctx context.Context) ([]models.DashboardEntry, error) {
	if !c.gate.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	var out []models.DashboardEntry
	if err := c.transport.GetJSON(ctx, pathDashboard, &out); err != nil {
		c.log.Warn("dashboard request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return out, nil
}

// KnownFaces returns the enrolled names.
func (c *Client) KnownFaces(ctx context.Context) ([]string, error) {
	if !c.gate.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	var out []string
	if err := c.transport.GetJSON(ctx, pathKnownFaces, &out); err != nil {
		c.log.Warn("known faces request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return out, nil
}

// AddKnownFace enrolls img as the reference face for name.
func (c *Client) AddKnownFace(ctx context.Context, name string, img upload.Image) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if img.Empty() {
		return upload.ErrNoImage
	}
	if !c.gate.IsAuthenticated() {
		return ErrUnauthorized
	}
	parts := []transport.Part{{Field: "image", Filename: img.Filename, ContentType: img.ContentType, Data: img.Data}}
	if err := c.transport.PostMultipart(ctx, pathKnownFace, parts, map[string]string{"name": name}, nil); err != nil {
		c.log.Warn("known face enrollment failed", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return nil
}
