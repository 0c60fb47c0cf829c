package domain

// SummaryRow is the per-group aggregate record. Averages hold the
// arithmetic mean of Number cells only, rounded to two decimals; blanks and
// non-numeric cells are excluded from both sum and count.
type SummaryRow struct {
	GroupKey      string             `json:"group_key"`
	TotalStudents int                `json:"total_students"`
	WorkingDays   int                `json:"working_days"`
	Averages      map[string]float64 `json:"averages"`
}

// Average returns the mean for field, or 0 when the field never produced a
// numeric cell.
func (s SummaryRow) Average(field string) float64 { return s.Averages[field] }

// Canonical attendance vocabulary. These are the target labels the fuzzy
// aligner matches against an uploaded file's column names; an unmatched
// field keeps its literal name as a stand-in and projects to blanks.
const (
	FieldAdmissionNo = "Admission No"
	FieldStudentName = "Student Name"
	FieldPresent     = "Present"
	FieldAbsent      = "Absent"
	FieldLate        = "Late"
	FieldVeryLate    = "Very Late"
	FieldAttendance  = "Attendance %"
)

// CanonicalAttendanceFields lists the vocabulary in report column order.
func CanonicalAttendanceFields() []string {
	return []string{
		FieldAdmissionNo,
		FieldStudentName,
		FieldPresent,
		FieldAbsent,
		FieldLate,
		FieldVeryLate,
	}
}

// AttendanceStatFields lists the numeric fields averaged per group.
func AttendanceStatFields() []string {
	return []string{
		FieldPresent,
		FieldAbsent,
		FieldLate,
		FieldVeryLate,
		FieldAttendance,
	}
}
