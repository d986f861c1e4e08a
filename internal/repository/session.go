package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/rollcall/internal/models"
)

// PostgresSessionRepository stores login sessions.
type PostgresSessionRepository struct {
	DB *sql.DB
}

// NewPostgresSessionRepository creates a PostgresSessionRepository.
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

// CreateSession persists sess.
func (s *PostgresSessionRepository) CreateSession(ctx context.Context, sess models.Session) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)
	`, sess.Token, sess.UserID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the session for token, or ErrNotFound.
// Expiry is not checked here.
func (s *PostgresSessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	err := s.DB.QueryRowContext(ctx, `
		SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = $1
	`, token).Scan(&sess.Token, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes the session for token. Deleting a missing session is not an error.
func (s *PostgresSessionRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
