package api

import (
	"time"

	"sheetbridge/pkg/contracts/domain"
)

// SessionResponse is returned on session creation and reset.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadResponse describes one accepted file upload.
type UploadResponse struct {
	Role      string     `json:"role"`
	SheetUsed string     `json:"sheet_used"`
	Columns   []string   `json:"columns"`
	RowCount  int        `json:"row_count"`
	Preview   [][]string `json:"preview"`
}

// MappingEntryDTO is one target→source assignment with its score.
// Source is null for an unmapped target.
type MappingEntryDTO struct {
	Target     string  `json:"target"`
	Source     *string `json:"source"`
	Confidence int     `json:"confidence"`
}

// ConflictDTO reports one source column referenced by several targets.
type ConflictDTO struct {
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
}

// MappingResponse is the stored correspondence plus its fan-out warnings.
type MappingResponse struct {
	Entries   []MappingEntryDTO `json:"entries"`
	Conflicts []ConflictDTO     `json:"conflicts,omitempty"`
}

// MappingFromDomain flattens a correspondence into the wire shape.
func MappingFromDomain(corr *domain.Correspondence) MappingResponse {
	resp := MappingResponse{}
	for _, e := range corr.Entries() {
		dto := MappingEntryDTO{Target: e.Target, Confidence: e.Confidence}
		if e.Mapped() {
			src := e.Source
			dto.Source = &src
		}
		resp.Entries = append(resp.Entries, dto)
	}
	for _, c := range corr.Conflicts() {
		resp.Conflicts = append(resp.Conflicts, ConflictDTO{Source: c.Source, Targets: c.Targets})
	}
	return resp
}

// ProjectResponse previews the projected table.
type ProjectResponse struct {
	Columns  []string   `json:"columns"`
	RowCount int        `json:"row_count"`
	Preview  [][]string `json:"preview"`
}

// SummaryRowDTO is one group's aggregate line.
type SummaryRowDTO struct {
	Group         string             `json:"group"`
	TotalStudents int                `json:"total_students"`
	WorkingDays   int                `json:"working_days"`
	Averages      map[string]float64 `json:"averages"`
}

// AttendanceReportResponse is the grouping outcome: which strategy
// applied, what was excluded, and the per-group summaries.
type AttendanceReportResponse struct {
	Strategy     string          `json:"strategy"`
	ExcludedRows int             `json:"excluded_rows"`
	Warnings     []string        `json:"warnings,omitempty"`
	Summaries    []SummaryRowDTO `json:"summaries"`
}

// TablePreview renders the first n rows of a table as display strings.
func TablePreview(t *domain.Table, n int) [][]string {
	if t == nil {
		return nil
	}
	if t.NumRows() < n {
		n = t.NumRows()
	}
	preview := make([][]string, n)
	for i := 0; i < n; i++ {
		row := t.Row(i)
		out := make([]string, len(row))
		for j, cell := range row {
			out[j] = cell.DisplayString()
		}
		preview[i] = out
	}
	return preview
}
