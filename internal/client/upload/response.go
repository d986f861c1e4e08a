package upload

import (
	"errors"
	"fmt"

	"github.com/atinyakov/rollcall/internal/models"
)

// uploadResponse is the wire shape of a /upload answer. Pointers tell a
// missing field apart from a zero one.
type uploadResponse struct {
	Total   *int      `json:"total"`
	Unknown *int      `json:"unknown"`
	Present *[]string `json:"present"`
}

func (r uploadResponse) toResult() (models.ReconciliationResult, error) {
	if r.Total == nil || r.Unknown == nil || r.Present == nil {
		return models.ReconciliationResult{}, errors.New("response is missing total, unknown or present")
	}
	result := models.ReconciliationResult{
		Total:   *r.Total,
		Unknown: *r.Unknown,
		Present: append([]string{}, (*r.Present)...),
	}
	if err := Validate(result); err != nil {
		return models.ReconciliationResult{}, err
	}
	return result, nil
}

// Validate checks the invariants every ReconciliationResult must satisfy.
func Validate(r models.ReconciliationResult) error {
	switch {
	case r.Total < 0 || r.Unknown < 0:
		return fmt.Errorf("negative face count (total=%d, unknown=%d)", r.Total, r.Unknown)
	case r.Unknown > r.Total:
		return fmt.Errorf("unknown faces %d exceed total %d", r.Unknown, r.Total)
	case len(r.Present) > r.Total:
		return fmt.Errorf("%d present names exceed total %d", len(r.Present), r.Total)
	}
	return nil
}
