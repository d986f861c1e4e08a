package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/rollcall/internal/middleware"
	"github.com/atinyakov/rollcall/internal/models"
	"github.com/atinyakov/rollcall/internal/service"
)

type fakeRecognition struct {
	result    *models.ReconciliationResult
	err       error
	enrollErr error
	gotName   string
	gotData   []byte
}

func (f *fakeRecognition) Recognize(_ context.Context, data []byte) (*models.ReconciliationResult, error) {
	f.gotData = data
	return f.result, f.err
}

func (f *fakeRecognition) Enroll(_ context.Context, name string, data []byte) error {
	f.gotName = name
	f.gotData = data
	return f.enrollErr
}

// multipartRequest builds a POST with an optional "image" file and form fields.
func multipartRequest(t *testing.T, path string, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if image != nil {
		fw, err := mw.CreateFormFile("image", "class.jpg")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(image)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler_Upload(t *testing.T) {
	ok := &models.ReconciliationResult{Total: 3, Unknown: 1, Present: []string{"Alice", "Bob"}}
	tests := []struct {
		name         string
		req          func(t *testing.T) *http.Request
		recognition  *fakeRecognition
		expectedCode int
		expectedBody string
	}{
		{
			name:         "success",
			req:          func(t *testing.T) *http.Request { return multipartRequest(t, "/upload", []byte("img"), nil) },
			recognition:  &fakeRecognition{result: ok},
			expectedCode: http.StatusOK,
			expectedBody: `{"total":3,"unknown":1,"present":["Alice","Bob"]}`,
		},
		{
			name:         "no image",
			req:          func(t *testing.T) *http.Request { return multipartRequest(t, "/upload", nil, nil) },
			recognition:  &fakeRecognition{},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"no image uploaded"}`,
		},
		{
			name:         "empty image",
			req:          func(t *testing.T) *http.Request { return multipartRequest(t, "/upload", []byte{}, nil) },
			recognition:  &fakeRecognition{},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"no image uploaded"}`,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest("POST", "/upload", strings.NewReader("{}"))
			},
			recognition:  &fakeRecognition{},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"invalid multipart form"}`,
		},
		{
			name:         "undecodable image",
			req:          func(t *testing.T) *http.Request { return multipartRequest(t, "/upload", []byte("txt"), nil) },
			recognition:  &fakeRecognition{err: service.ErrInvalidImage},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"invalid image"}`,
		},
		{
			name:         "recognition failure",
			req:          func(t *testing.T) *http.Request { return multipartRequest(t, "/upload", []byte("img"), nil) },
			recognition:  &fakeRecognition{err: errors.New("detector down")},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"upload failed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h := &UploadHandler{Recognition: tt.recognition}
			h.Upload(rec, tt.req(t))

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedCode, rec.Code, rec.Body.String())
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.expectedBody {
				t.Errorf("body = %s; want %s", got, tt.expectedBody)
			}
		})
	}
}

func TestUploadHandler_LogsUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := &UploadHandler{
		Recognition: &fakeRecognition{result: &models.ReconciliationResult{Total: 2, Unknown: 1, Present: []string{"Alice"}}},
		Logger:      zap.New(core),
	}
	req := multipartRequest(t, "/upload", []byte("img"), nil)
	req = req.WithContext(middleware.WithSession(req.Context(), &models.Session{Token: "tok", UserID: "user-7"}))

	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	entries := logs.FilterMessage("attendance taken").All()
	if len(entries) != 1 {
		t.Fatalf("expected one attendance log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["user_id"] != "user-7" {
		t.Errorf("user_id = %v; want user-7", fields["user_id"])
	}
	if fields["present"] != int64(1) {
		t.Errorf("present = %v; want 1", fields["present"])
	}
}

func TestUploadHandler_Upload_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	h := &UploadHandler{Recognition: &fakeRecognition{}, MaxUploadSize: 64}
	h.Upload(rec, multipartRequest(t, "/upload", bytes.Repeat([]byte("x"), 1024), nil))

	if rec.Code != http.StatusRequestEntityTooLarge && rec.Code != http.StatusBadRequest {
		t.Errorf("expected 413 or 400 for an oversized body, got %d", rec.Code)
	}
}

func TestUploadHandler_KnownFace(t *testing.T) {
	tests := []struct {
		name         string
		image        []byte
		fields       map[string]string
		enrollErr    error
		expectedCode int
		expectedMsg  string
	}{
		{"success", []byte("img"), map[string]string{"name": " Alice "}, nil, http.StatusOK, ""},
		{"missing name", []byte("img"), nil, nil, http.StatusBadRequest, "missing name or image"},
		{"missing image", nil, map[string]string{"name": "Alice"}, nil, http.StatusBadRequest, "no image uploaded"},
		{"no face", []byte("img"), map[string]string{"name": "Alice"}, service.ErrNoFaceFound, http.StatusBadRequest, "no face found"},
		{"invalid image", []byte("img"), map[string]string{"name": "Alice"}, service.ErrInvalidImage, http.StatusBadRequest, "invalid image"},
		{"storage error", []byte("img"), map[string]string{"name": "Alice"}, errors.New("db"), http.StatusInternalServerError, "failed to add face"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recog := &fakeRecognition{enrollErr: tt.enrollErr}
			rec := httptest.NewRecorder()
			(&UploadHandler{Recognition: recog}).KnownFace(rec, multipartRequest(t, "/known-face", tt.image, tt.fields))

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedCode, rec.Code, rec.Body.String())
			}
			var payload map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			if tt.expectedMsg == "" {
				if payload["success"] != true {
					t.Errorf("expected success, got %v", payload)
				}
				if recog.gotName != "Alice" {
					t.Errorf("enrolled name = %q; want trimmed Alice", recog.gotName)
				}
				return
			}
			if payload["error"] != tt.expectedMsg {
				t.Errorf("error = %v; want %q", payload["error"], tt.expectedMsg)
			}
		})
	}
}
