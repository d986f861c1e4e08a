package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/detector"
	"github.com/atinyakov/rollcall/internal/imaging"
	"github.com/atinyakov/rollcall/internal/models"
	"github.com/atinyakov/rollcall/internal/repository"
)

// DefaultMatchThreshold is the largest embedding distance counted as a match.
const DefaultMatchThreshold = 0.45

var (
	// ErrInvalidImage is returned when an upload cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNoFaceFound is returned by Enroll when the photo has no face.
	ErrNoFaceFound = errors.New("no face found")
	// ErrNameRequired is returned by Enroll for a blank name.
	ErrNameRequired = errors.New("name is required")
)

// Detector finds faces and their embeddings in a JPEG image.
type Detector interface {
	DetectFaces(ctx context.Context, jpeg []byte) ([]detector.Face, error)
}

// FaceRepository stores enrolled reference embeddings.
type FaceRepository interface {
	UpsertKnownFace(ctx context.Context, name string, embedding []float32) error
	// NearestKnownFace returns repository.ErrNotFound when nothing is enrolled.
	NearestKnownFace(ctx context.Context, embedding []float32) (string, float64, error)
	ListKnownNames(ctx context.Context) ([]string, error)
}

// AttendanceRepository records and reports attendance.
type AttendanceRepository interface {
	RecordAttendance(ctx context.Context, names []string, at time.Time) error
	History(ctx context.Context) ([]models.AttendanceRecord, error)
	Dashboard(ctx context.Context) ([]models.DashboardEntry, error)
}

// RecognitionOptions tunes a RecognitionService.
type RecognitionOptions struct {
	// UploadDir keeps a normalized copy of every upload; empty disables it.
	UploadDir string
	// Threshold defaults to DefaultMatchThreshold.
	Threshold float64
	// MaxSide defaults to imaging.DefaultMaxSide.
	MaxSide int
}

// RecognitionService reconciles group photos against enrolled faces.
type RecognitionService struct {
	faces      FaceRepository
	attendance AttendanceRepository
	detector   Detector
	opts       RecognitionOptions
	now        func() time.Time
	log        *zap.Logger
}

// NewRecognitionService constructs a RecognitionService.
func NewRecognitionService(
	faces FaceRepository,
	attendance AttendanceRepository,
	det Detector,
	opts RecognitionOptions,
	log *zap.Logger,
) *RecognitionService {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultMatchThreshold
	}
	if opts.MaxSide <= 0 {
		opts.MaxSide = imaging.DefaultMaxSide
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RecognitionService{
		faces:      faces,
		attendance: attendance,
		detector:   det,
		opts:       opts,
		now:        time.Now,
		log:        log,
	}
}

// Recognize detects every face in data, matches each against the enrolled
// faces and records attendance for the matched names.
func (s *RecognitionService) Recognize(ctx context.Context, data []byte) (*models.ReconciliationResult, error) {
	jpeg, err := s.prepare(data)
	if err != nil {
		return nil, err
	}

	faces, err := s.detector.DetectFaces(ctx, jpeg)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	result := &models.ReconciliationResult{Total: len(faces), Present: []string{}}
	seen := make(map[string]struct{})
	enrolled := true
	for _, f := range faces {
		if !enrolled {
			result.Unknown++
			continue
		}
		name, dist, err := s.faces.NearestKnownFace(ctx, f.Embedding)
		if errors.Is(err, repository.ErrNotFound) {
			enrolled = false
			result.Unknown++
			continue
		}
		if err != nil {
			return nil, err
		}
		if dist >= s.opts.Threshold {
			result.Unknown++
			continue
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			result.Present = append(result.Present, name)
		}
	}

	if err := s.attendance.RecordAttendance(ctx, result.Present, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}

	s.log.Info("photo reconciled",
		zap.Int("total", result.Total),
		zap.Int("unknown", result.Unknown),
		zap.Int("present", len(result.Present)),
	)
	return result, nil
}

// Enroll stores the first face found in data as the reference for name.
func (s *RecognitionService) Enroll(ctx context.Context, name string, data []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}

	jpeg, err := s.prepare(data)
	if err != nil {
		return err
	}

	faces, err := s.detector.DetectFaces(ctx, jpeg)
	if err != nil {
		return fmt.Errorf("detect faces: %w", err)
	}
	if len(faces) == 0 {
		return ErrNoFaceFound
	}

	if err := s.faces.UpsertKnownFace(ctx, name, faces[0].Embedding); err != nil {
		return err
	}
	s.log.Info("known face enrolled", zap.String("name", name))
	return nil
}

// History returns attendance marks, newest first.
func (s *RecognitionService) History(ctx context.Context) ([]models.AttendanceRecord, error) {
	return s.attendance.History(ctx)
}

// Dashboard returns per-student attendance counts.
func (s *RecognitionService) Dashboard(ctx context.Context) ([]models.DashboardEntry, error) {
	return s.attendance.Dashboard(ctx)
}

// KnownFaces lists enrolled names alphabetically.
func (s *RecognitionService) KnownFaces(ctx context.Context) ([]string, error) {
	return s.faces.ListKnownNames(ctx)
}

// prepare normalizes data to JPEG and keeps a copy in the upload dir.
func (s *RecognitionService) prepare(data []byte) ([]byte, error) {
	jpeg, err := imaging.Normalize(data, s.opts.MaxSide)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if s.opts.UploadDir == "" {
		return jpeg, nil
	}
	path := filepath.Join(s.opts.UploadDir, uuid.NewString()+".jpg")
	if err := os.WriteFile(path, jpeg, 0o600); err != nil {
		// the copy is for auditing only
		s.log.Warn("failed to store upload", zap.String("path", path), zap.Error(err))
	}
	return jpeg, nil
}
