package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atinyakov/rollcall/internal/models"
)

func setupSessionMock(t *testing.T) (*PostgresSessionRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresSessionRepository(db), mock, func() { db.Close() }
}

func TestCreateSession(t *testing.T) {
	repo, mock, cleanup := setupSessionMock(t)
	defer cleanup()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sess := models.Session{Token: "tok", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (token, user_id, created_at, expires_at)`)).
		WithArgs("tok", "u1", now, now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetSession(t *testing.T) {
	repo, mock, cleanup := setupSessionMock(t)
	defer cleanup()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = $1`)
	mock.ExpectQuery(query).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "created_at", "expires_at"}).
			AddRow("tok", "u1", now, now.Add(time.Hour)))
	mock.ExpectQuery(query).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "created_at", "expires_at"}))
	mock.ExpectQuery(query).
		WithArgs("broken").
		WillReturnError(errors.New("conn reset"))

	sess, err := repo.GetSession(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.UserID != "u1" || !sess.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("unexpected session: %+v", sess)
	}

	if _, err := repo.GetSession(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetSession(context.Background(), "broken"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected query error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	repo, mock, cleanup := setupSessionMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE token = $1`)).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE token = $1`)).
		WithArgs("tok").
		WillReturnError(errors.New("delete failed"))

	if err := repo.DeleteSession(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.DeleteSession(context.Background(), "tok"); err == nil {
		t.Error("expected error")
	}
}
