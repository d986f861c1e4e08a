package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/rollcall/internal/models"
)

type fakeRecords struct {
	history   []models.AttendanceRecord
	dashboard []models.DashboardEntry
	known     []string
	err       error
}

func (f *fakeRecords) History(context.Context) ([]models.AttendanceRecord, error) {
	return f.history, f.err
}

func (f *fakeRecords) Dashboard(context.Context) ([]models.DashboardEntry, error) {
	return f.dashboard, f.err
}

func (f *fakeRecords) KnownFaces(context.Context) ([]string, error) {
	return f.known, f.err
}

func TestRecordsHandler_History(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	h := &RecordsHandler{Records: &fakeRecords{history: []models.AttendanceRecord{{ID: "a1", StudentName: "Alice", Timestamp: ts}}}}
	rec := httptest.NewRecorder()
	h.History(rec, httptest.NewRequest("GET", "/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := `[{"id":"a1","student_name":"Alice","timestamp":"2026-03-01T09:30:00Z"}]`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s; want %s", got, want)
	}
}

func TestRecordsHandler_Dashboard(t *testing.T) {
	h := &RecordsHandler{Records: &fakeRecords{dashboard: []models.DashboardEntry{{Name: "Alice", Count: 2}}}}
	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest("GET", "/dashboard", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != `[{"name":"Alice","count":2}]` {
		t.Errorf("body = %s", got)
	}
}

func TestRecordsHandler_KnownFaces(t *testing.T) {
	h := &RecordsHandler{Records: &fakeRecords{known: []string{"Bob", "Mary Jane"}}}
	rec := httptest.NewRecorder()
	h.KnownFaces(rec, httptest.NewRequest("GET", "/known-faces", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `["Bob","Mary Jane"]` {
		t.Errorf("body = %s", got)
	}
}

func TestRecordsHandler_Errors(t *testing.T) {
	h := &RecordsHandler{Records: &fakeRecords{err: errors.New("db down")}}

	for name, fn := range map[string]http.HandlerFunc{"history": h.History, "dashboard": h.Dashboard, "known-faces": h.KnownFaces} {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest("GET", "/"+name, nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s: expected 500, got %d", name, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "db down") {
			t.Errorf("%s: internal error leaked: %s", name, rec.Body.String())
		}
	}
}
