package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/models"
)

// RecordsService reports attendance and enrolled faces.
type RecordsService interface {
	History(ctx context.Context) ([]models.AttendanceRecord, error)
	Dashboard(ctx context.Context) ([]models.DashboardEntry, error)
	KnownFaces(ctx context.Context) ([]string, error)
}

// RecordsHandler serves the attendance history, dashboard and known face list.
type RecordsHandler struct {
	Records RecordsService
	Logger  *zap.Logger
}

func (h *RecordsHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// History handles GET /api/history.
func (h *RecordsHandler) History(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Records.History(r.Context())
	if err != nil {
		h.logger().Error("history failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// Dashboard handles GET /api/dashboard.
func (h *RecordsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Records.Dashboard(r.Context())
	if err != nil {
		h.logger().Error("dashboard failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// KnownFaces handles GET /api/known-faces and lists enrolled names.
func (h *RecordsHandler) KnownFaces(w http.ResponseWriter, r *http.Request) {
	names, err := h.Records.KnownFaces(r.Context())
	if err != nil {
		h.logger().Error("known faces failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, names)
}

// Health handles GET /api/healthz.
func Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
