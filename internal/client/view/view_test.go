package view

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/rollcall/internal/models"
)

func TestProject_WithRoster(t *testing.T) {
	result := models.ReconciliationResult{Total: 3, Unknown: 1, Present: []string{"Alice", "Bob"}}

	r := Project(result)

	assert.Equal(t, "Total Faces Detected: 3", r.TotalLine())
	assert.Equal(t, "Unknown Faces: 1", r.UnknownLine())
	assert.Equal(t, []string{"Alice", "Bob"}, r.Present)
	assert.False(t, r.Placeholder)

	out := Render(r)
	assert.Contains(t, out, "Total Faces Detected: 3")
	assert.Contains(t, out, "Unknown Faces: 1")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Bob")
	assert.NotContains(t, out, NoKnownFaces)
}

func TestProject_EmptyRosterShowsPlaceholder(t *testing.T) {
	result := models.ReconciliationResult{Total: 0, Unknown: 0, Present: []string{}}

	r := Project(result)

	assert.True(t, r.Placeholder)
	assert.Equal(t, []string{NoKnownFaces}, r.Present)
	assert.Empty(t, result.Present, "projection must not touch the result")
	assert.Contains(t, Render(r), NoKnownFaces)
}

func TestProject_NilRoster(t *testing.T) {
	r := Project(models.ReconciliationResult{Total: 2, Unknown: 2})
	assert.True(t, r.Placeholder)
	assert.Equal(t, "Unknown Faces: 2", r.UnknownLine())
}

func TestProject_DoesNotAlias(t *testing.T) {
	result := models.ReconciliationResult{Total: 1, Present: []string{"Alice"}}
	r := Project(result)
	r.Present[0] = "Eve"
	assert.Equal(t, "Alice", result.Present[0])
}

func TestRenderHistory(t *testing.T) {
	assert.Equal(t, "No attendance recorded yet", RenderHistory(nil))

	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	out := RenderHistory([]models.AttendanceRecord{{ID: "1", StudentName: "Alice", Timestamp: ts}})
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "2026-03-01 09:30:00")
}

func TestRenderDashboard(t *testing.T) {
	assert.Equal(t, "No attendance recorded yet", RenderDashboard(nil))

	out := RenderDashboard([]models.DashboardEntry{{Name: "Alice", Count: 4}, {Name: "Bob", Count: 1}})
	lines := strings.Split(out, "\n")
	assert.Greater(t, len(lines), 3)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "4")
}

func TestRenderKnownFaces(t *testing.T) {
	out := RenderKnownFaces([]string{"Bob", "Mary Jane"})
	assert.Contains(t, out, "Known face")
	assert.Contains(t, out, "Mary Jane")
	assert.Less(t, strings.Index(out, "Bob"), strings.Index(out, "Mary Jane"))

	assert.Equal(t, "No known faces enrolled yet", RenderKnownFaces(nil))
}
