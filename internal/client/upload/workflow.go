// Package upload drives a single group photo from selection through
// submission to a reconciled attendance result.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/client/transport"
	"github.com/atinyakov/rollcall/internal/models"
)

const (
	pathUpload = "/upload"
	imageField = "image"
)

var (
	// ErrNoImage is returned by SelectImage for an absent or empty payload.
	ErrNoImage = errors.New("no image selected")
	// ErrNothingSelected is returned by Submit when no image is selected.
	ErrNothingSelected = errors.New("nothing selected")
	// ErrUnauthorized is returned by Submit when the session is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAlreadySubmitting is returned while a submission is in flight.
	ErrAlreadySubmitting = errors.New("submission already in progress")
	// ErrUploadFailed covers transport failures and unusable responses.
	ErrUploadFailed = errors.New("upload failed")
)

// State is the workflow's position in the submission lifecycle.
type State int

const (
	Idle State = iota
	Selecting
	Submitting
	Reconciled
	Failed
)

var stateNames = [...]string{"idle", "selecting", "submitting", "reconciled", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Gate reports whether the session may reach the upload surface.
type Gate interface {
	IsAuthenticated() bool
}

// Transport is the subset of the HTTP client the workflow needs.
type Transport interface {
	PostMultipart(ctx context.Context, path string, parts []transport.Part, fields map[string]string, out any) error
}

// Workflow owns the active ImageSelection and the current ReconciliationResult.
// The mutex only guards state transitions; it is never held across network I/O.
type Workflow struct {
	transport Transport
	gate      Gate
	log       *zap.Logger

	mu        sync.Mutex
	state     State
	selection *Image
	result    *models.ReconciliationResult
	// epoch changes on every submission start and reset so that a response
	// arriving after a reset cannot overwrite newer state.
	epoch uint64
}

// NewWorkflow returns an Idle workflow.
func NewWorkflow(t Transport, gate Gate, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{transport: t, gate: gate, log: log}
}

// SelectImage makes img the active selection and discards any previous result.
// It returns ErrNoImage for an empty payload and ErrAlreadySubmitting while a
// submission is in flight; in both cases the workflow is left unchanged.
func (w *Workflow) SelectImage(img Image) error {
	if img.Empty() {
		return ErrNoImage
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == Submitting {
		return ErrAlreadySubmitting
	}
	sel := img
	sel.Data = append([]byte(nil), img.Data...)
	w.selection = &sel
	w.result = nil
	w.state = Selecting
	return nil
}

// Submit uploads the active selection and returns the parsed result. It fails
// fast, without a network call, when a submission is in flight, nothing is
// selected, or the session is not authenticated.
func (w *Workflow) Submit(ctx context.Context) (models.ReconciliationResult, error) {
	w.mu.Lock()
	if w.state == Submitting {
		w.mu.Unlock()
		return models.ReconciliationResult{}, ErrAlreadySubmitting
	}
	if w.selection == nil {
		w.mu.Unlock()
		return models.ReconciliationResult{}, ErrNothingSelected
	}
	if w.gate == nil || !w.gate.IsAuthenticated() {
		w.mu.Unlock()
		return models.ReconciliationResult{}, ErrUnauthorized
	}
	img := *w.selection
	w.selection = nil
	w.result = nil
	w.state = Submitting
	w.epoch++
	epoch := w.epoch
	w.mu.Unlock()

	result, err := w.send(ctx, img)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.epoch != epoch {
		w.log.Debug("dropping submission outcome after reset", zap.Error(err))
		if err != nil {
			return models.ReconciliationResult{}, err
		}
		return result, nil
	}
	if err != nil {
		w.state = Failed
		w.log.Warn("upload failed", zap.String("file", img.Filename), zap.Error(err))
		return models.ReconciliationResult{}, err
	}
	w.result = &result
	w.state = Reconciled
	w.log.Info("upload reconciled",
		zap.String("file", img.Filename),
		zap.Int("total", result.Total),
		zap.Int("unknown", result.Unknown),
		zap.Int("present", len(result.Present)),
	)
	return cloneResult(result), nil
}

func (w *Workflow) send(ctx context.Context, img Image) (models.ReconciliationResult, error) {
	filename := img.Filename
	if filename == "" {
		filename = "image"
	}
	parts := []transport.Part{{
		Field:       imageField,
		Filename:    filename,
		ContentType: img.ContentType,
		Data:        img.Data,
	}}

	var resp uploadResponse
	if err := w.transport.PostMultipart(ctx, pathUpload, parts, nil, &resp); err != nil {
		return models.ReconciliationResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	result, err := resp.toResult()
	if err != nil {
		return models.ReconciliationResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return result, nil
}

// Reset clears the selection and the current result and returns to Idle.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selection = nil
	w.result = nil
	w.state = Idle
	w.epoch++
}

// State returns the current lifecycle state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Result returns a copy of the current result, if the workflow is Reconciled.
func (w *Workflow) Result() (models.ReconciliationResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return models.ReconciliationResult{}, false
	}
	return cloneResult(*w.result), true
}

// Selection returns the active selection, if any.
func (w *Workflow) Selection() (Image, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selection == nil {
		return Image{}, false
	}
	return *w.selection, true
}

func cloneResult(r models.ReconciliationResult) models.ReconciliationResult {
	r.Present = append([]string(nil), r.Present...)
	return r
}
