// Package api contains the v1 API contract: request and response DTOs
// for the schema-reconciliation workflow.
package api

import (
	"sheetbridge/pkg/contracts/domain"
)

// Request DTOs. Validation tags are enforced by go-playground/validator
// in the transport layer.

// MappingSuggestRequest asks for an auto-proposed correspondence between
// the reference and source schemas.
type MappingSuggestRequest struct {
	// Threshold overrides the configured default when non-nil.
	Threshold     *int `json:"threshold,omitempty" validate:"omitempty,min=0,max=100"`
	CaseSensitive bool `json:"case_sensitive"`
}

// MappingEdit sets or clears one target's source column. A nil source
// unmaps the target.
type MappingEdit struct {
	Target string  `json:"target" validate:"required"`
	Source *string `json:"source"`
}

// MappingUpdateRequest applies user edits on top of the stored
// correspondence.
type MappingUpdateRequest struct {
	Edits []MappingEdit `json:"edits" validate:"required,min=1,dive"`
}

// ProjectRequest reshapes the source table onto the reference schema.
type ProjectRequest struct {
	DropBlankRows  bool   `json:"drop_blank_rows"`
	TrimWhitespace bool   `json:"trim_whitespace"`
	FillMode       string `json:"fill_mode" validate:"omitempty,oneof=blank zero empty carry"`
}

// GroupRangeDTO is an inclusive numeric range over the identifier column.
type GroupRangeDTO struct {
	Min float64 `json:"min"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

// GroupSpecDTO declares the partitioning inputs.
type GroupSpecDTO struct {
	Keys             []string                 `json:"keys" validate:"required,min=1,dive,required"`
	CategoryColumn   string                   `json:"category_column,omitempty"`
	Aliases          map[string]string        `json:"aliases,omitempty"`
	IdentifierColumn string                   `json:"identifier_column,omitempty"`
	Ranges           map[string]GroupRangeDTO `json:"ranges,omitempty" validate:"omitempty,dive"`
}

// ToDomain converts the DTO into the engine's group spec.
func (g GroupSpecDTO) ToDomain() domain.GroupSpec {
	spec := domain.GroupSpec{
		Keys:             g.Keys,
		CategoryColumn:   g.CategoryColumn,
		Aliases:          g.Aliases,
		IdentifierColumn: g.IdentifierColumn,
	}
	if len(g.Ranges) > 0 {
		spec.Ranges = make(map[string]domain.GroupRange, len(g.Ranges))
		for k, r := range g.Ranges {
			spec.Ranges[k] = domain.GroupRange{Min: r.Min, Max: r.Max}
		}
	}
	return spec
}

// AttendanceReportRequest runs the grouping and aggregation workflow over
// the session's source upload.
type AttendanceReportRequest struct {
	WorkingDays int          `json:"working_days" validate:"required,min=1"`
	Groups      GroupSpecDTO `json:"groups" validate:"required"`
	// Threshold overrides the configured canonical alignment threshold.
	Threshold *int   `json:"threshold,omitempty" validate:"omitempty,min=0,max=100"`
	Title     string `json:"title,omitempty"`
}
