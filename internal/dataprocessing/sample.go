package dataprocessing

import (
	"fmt"
	"math/rand"

	"sheetbridge/pkg/contracts/domain"
)

// SampleConfig describes the synthetic attendance table to generate for
// demos. Names and numbering are operator-supplied; the generator carries
// no institution-specific defaults.
type SampleConfig struct {
	Names          []string
	AdmissionStart int
	WorkingDays    int
	Seed           int64
}

// GenerateSample builds a deterministic attendance table: one row per name,
// sequential admission numbers, and per-day counts that always sum to the
// working-days total.
func GenerateSample(cfg SampleConfig) *domain.Table {
	if cfg.WorkingDays <= 0 {
		cfg.WorkingDays = 20
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	n := len(cfg.Names)
	admission := make([]domain.Cell, n)
	names := make([]domain.Cell, n)
	present := make([]domain.Cell, n)
	absent := make([]domain.Cell, n)
	late := make([]domain.Cell, n)
	veryLate := make([]domain.Cell, n)

	for i, name := range cfg.Names {
		admission[i] = domain.TextCell(fmt.Sprintf("%d", cfg.AdmissionStart+i))
		names[i] = domain.TextCell(name)

		away := 0
		if n := cfg.WorkingDays / 4; n > 0 {
			away = rng.Intn(n)
		}
		lateDays := rng.Intn(3)
		veryLateDays := rng.Intn(2)
		present[i] = domain.NumberCell(float64(cfg.WorkingDays - away))
		absent[i] = domain.NumberCell(float64(away))
		late[i] = domain.NumberCell(float64(lateDays))
		veryLate[i] = domain.NumberCell(float64(veryLateDays))
	}

	return domain.MustNewTable([]domain.Column{
		{Name: domain.FieldAdmissionNo, Cells: admission},
		{Name: domain.FieldStudentName, Cells: names},
		{Name: domain.FieldPresent, Cells: present},
		{Name: domain.FieldAbsent, Cells: absent},
		{Name: domain.FieldLate, Cells: late},
		{Name: domain.FieldVeryLate, Cells: veryLate},
	})
}
