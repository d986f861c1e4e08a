package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// PostgresFaceRepository stores enrolled face embeddings in a pgvector column.
type PostgresFaceRepository struct {
	DB *sql.DB
}

// NewPostgresFaceRepository creates a PostgresFaceRepository.
func NewPostgresFaceRepository(db *sql.DB) *PostgresFaceRepository {
	return &PostgresFaceRepository{DB: db}
}

// UpsertKnownFace stores embedding as the reference face for name,
// replacing any earlier enrollment.
func (s *PostgresFaceRepository) UpsertKnownFace(ctx context.Context, name string, embedding []float32) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO known_faces (name, embedding, updated_at)
		VALUES ($1, $2::vector, now())
		ON CONFLICT (name) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_at = now()
	`, name, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("upsert known face: %w", err)
	}
	return nil
}

// NearestKnownFace returns the enrolled name closest to embedding by
// Euclidean distance. It returns ErrNotFound when nothing is enrolled.
func (s *PostgresFaceRepository) NearestKnownFace(ctx context.Context, embedding []float32) (string, float64, error) {
	var (
		name     string
		distance float64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT name, embedding <-> $1::vector AS distance
		FROM known_faces
		ORDER BY embedding <-> $1::vector
		LIMIT 1
	`, pgvector.NewVector(embedding)).Scan(&name, &distance)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("nearest known face: %w", err)
	}
	return name, distance, nil
}

// ListKnownNames returns enrolled names in alphabetical order.
func (s *PostgresFaceRepository) ListKnownNames(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT name FROM known_faces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list known faces: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
