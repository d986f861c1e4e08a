// Package view turns reconciliation results and attendance records into
// displayable text. Nothing here touches the network or mutates its input.
package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/atinyakov/rollcall/internal/models"
)

const (
	// NoKnownFaces replaces an empty roster in the display.
	NoKnownFaces = "No known faces found"

	totalLabel   = "Total Faces Detected"
	unknownLabel = "Unknown Faces"
	presentTitle = "Present Students"
)

// Roster is the display structure for one ReconciliationResult.
type Roster struct {
	Total   int
	Unknown int
	// Present holds the roster lines to show. It contains exactly the
	// NoKnownFaces placeholder when nobody was recognised.
	Present []string
	// Placeholder is set when Present holds the placeholder rather than names.
	Placeholder bool
}

// Project builds the Roster for r. The placeholder is a display decision only:
// r itself is never modified.
func Project(r models.ReconciliationResult) Roster {
	roster := Roster{Total: r.Total, Unknown: r.Unknown}
	if len(r.Present) == 0 {
		roster.Present = []string{NoKnownFaces}
		roster.Placeholder = true
		return roster
	}
	roster.Present = append([]string(nil), r.Present...)
	return roster
}

// TotalLine is the "Total Faces Detected: N" line.
func (r Roster) TotalLine() string {
	return fmt.Sprintf("%s: %d", totalLabel, r.Total)
}

// UnknownLine is the "Unknown Faces: N" line.
func (r Roster) UnknownLine() string {
	return fmt.Sprintf("%s: %d", unknownLabel, r.Unknown)
}

// Render lays the roster out as text.
func Render(r Roster) string {
	var b strings.Builder
	b.WriteString(r.TotalLine())
	b.WriteByte('\n')
	b.WriteString(r.UnknownLine())
	b.WriteByte('\n')

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(presentTitle)
	if r.Placeholder {
		tw.AppendRow(table.Row{r.Present[0]})
	} else {
		tw.AppendHeader(table.Row{"#", "Name"})
		for i, name := range r.Present {
			tw.AppendRow(table.Row{i + 1, name})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		})
	}
	b.WriteString(tw.Render())
	return b.String()
}

// RenderHistory lays attendance marks out as a table, newest first as given.
func RenderHistory(records []models.AttendanceRecord) string {
	if len(records) == 0 {
		return "No attendance recorded yet"
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"When", "Student"})
	for _, rec := range records {
		tw.AppendRow(table.Row{rec.Timestamp.Local().Format(time.DateTime), rec.StudentName})
	}
	return tw.Render()
}

// RenderDashboard lays per-student attendance counts out as a table.
func RenderDashboard(entries []models.DashboardEntry) string {
	if len(entries) == 0 {
		return "No attendance recorded yet"
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Student", "Present"})
	for _, e := range entries {
		tw.AppendRow(table.Row{e.Name, strconv.Itoa(e.Count)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// RenderKnownFaces lists enrolled names as a numbered table.
func RenderKnownFaces(names []string) string {
	if len(names) == 0 {
		return "No known faces enrolled yet"
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Known face"})
	for i, name := range names {
		tw.AppendRow(table.Row{i + 1, name})
	}
	return tw.Render()
}
