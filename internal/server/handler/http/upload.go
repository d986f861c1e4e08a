package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/middleware"
	"github.com/atinyakov/rollcall/internal/models"
	"github.com/atinyakov/rollcall/internal/service"
)

// DefaultMaxUploadSize caps multipart bodies when UploadHandler.MaxUploadSize is unset.
const DefaultMaxUploadSize = 16 << 20

// RecognitionService reconciles photos and enrolls known faces.
type RecognitionService interface {
	Recognize(ctx context.Context, data []byte) (*models.ReconciliationResult, error)
	Enroll(ctx context.Context, name string, data []byte) error
}

// UploadHandler handles photo uploads.
type UploadHandler struct {
	Recognition   RecognitionService
	MaxUploadSize int64
	Logger        *zap.Logger
}

func (h *UploadHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// readImage parses the multipart form and returns the "image" part. On
// failure it has already written the response.
func (h *UploadHandler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := h.MaxUploadSize
	if limit <= 0 {
		limit = DefaultMaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, false
		}
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no image uploaded")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		respondError(w, http.StatusBadRequest, "no image uploaded")
		return nil, false
	}
	return data, true
}

// Upload handles POST /api/upload and responds with {total, unknown, present}.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readImage(w, r)
	if !ok {
		return
	}

	result, err := h.Recognition.Recognize(r.Context(), data)
	if errors.Is(err, service.ErrInvalidImage) {
		respondError(w, http.StatusBadRequest, "invalid image")
		return
	}
	if err != nil {
		h.logger().Error("upload failed", userField(r), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	h.logger().Info("attendance taken",
		userField(r),
		zap.Int("total", result.Total),
		zap.Int("unknown", result.Unknown),
		zap.Int("present", len(result.Present)),
	)
	respondJSON(w, http.StatusOK, result)
}

// KnownFace handles POST /api/known-face with "name" and "image" fields.
func (h *UploadHandler) KnownFace(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readImage(w, r)
	if !ok {
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		respondError(w, http.StatusBadRequest, "missing name or image")
		return
	}

	err := h.Recognition.Enroll(r.Context(), name, data)
	switch {
	case err == nil:
		h.logger().Info("known face enrolled", userField(r), zap.String("name", name))
		respondJSON(w, http.StatusOK, successResponse{Success: true})
	case errors.Is(err, service.ErrNoFaceFound):
		respondError(w, http.StatusBadRequest, "no face found")
	case errors.Is(err, service.ErrInvalidImage):
		respondError(w, http.StatusBadRequest, "invalid image")
	case errors.Is(err, service.ErrNameRequired):
		respondError(w, http.StatusBadRequest, "missing name or image")
	default:
		h.logger().Error("known face enrollment failed", userField(r), zap.String("name", name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to add face")
	}
}

// userField names the session's user in log lines.
func userField(r *http.Request) zap.Field {
	return zap.String("user_id", middleware.GetUserIDFromContext(r.Context()))
}
