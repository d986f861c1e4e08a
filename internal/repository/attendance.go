package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/atinyakov/rollcall/internal/models"
)

// PostgresAttendanceRepository records and reports attendance marks.
type PostgresAttendanceRepository struct {
	DB *sql.DB
}

// NewPostgresAttendanceRepository creates a PostgresAttendanceRepository.
func NewPostgresAttendanceRepository(db *sql.DB) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{DB: db}
}

// RecordAttendance marks every name present at `at` within one transaction,
// registering students seen for the first time.
func (s *PostgresAttendanceRepository) RecordAttendance(ctx context.Context, names []string, at time.Time) (err error) {
	if len(names) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	for _, name := range names {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO students (name) VALUES ($1) ON CONFLICT (name) DO NOTHING
		`, name); err != nil {
			return fmt.Errorf("upsert student: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO attendance (id, student_name, marked_at) VALUES ($1, $2, $3)
		`, uuid.NewString(), name, at); err != nil {
			return fmt.Errorf("insert attendance: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// History returns every attendance mark, newest first.
func (s *PostgresAttendanceRepository) History(ctx context.Context) ([]models.AttendanceRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, student_name, marked_at FROM attendance ORDER BY marked_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	defer rows.Close()

	records := []models.AttendanceRecord{}
	for rows.Next() {
		var rec models.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.StudentName, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Dashboard returns the number of marks per student, most present first.
func (s *PostgresAttendanceRepository) Dashboard(ctx context.Context) ([]models.DashboardEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT student_name, COUNT(*) FROM attendance
		GROUP BY student_name
		ORDER BY COUNT(*) DESC, student_name
	`)
	if err != nil {
		return nil, fmt.Errorf("Dashboard: %w", err)
	}
	defer rows.Close()

	entries := []models.DashboardEntry{}
	for rows.Next() {
		var e models.DashboardEntry
		if err := rows.Scan(&e.Name, &e.Count); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
