// Package report renders the grouped attendance report as a paginated PDF:
// one page of summary table followed by one page per group, each a bordered
// grid with a header row. Rendering goes through an HTML template printed
// to PDF by a headless browser.
package report

import (
	"bytes"
	"fmt"
	"html/template"

	"sheetbridge/pkg/contracts/domain"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; font-size: 11px; }
  h1 { font-size: 16px; }
  h2 { font-size: 14px; }
  table { border-collapse: collapse; table-layout: fixed; width: 100%; }
  th, td { border: 1px solid #444; padding: 4px 6px; text-align: left;
           overflow: hidden; }
  th { background: #d9e1f2; font-weight: bold; }
  .page { page-break-after: always; }
  .page:last-child { page-break-after: auto; }
</style>
</head>
<body>
<div class="page">
  <h1>{{.Title}}</h1>
  <table>
    <tr>{{range .SummaryHeaders}}<th>{{.}}</th>{{end}}</tr>
    {{range .SummaryRows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
    {{end}}
  </table>
</div>
{{range .Groups}}
<div class="page">
  <h2>{{.Key}}</h2>
  <table>
    <tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
    {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
    {{end}}
  </table>
</div>
{{end}}
</body>
</html>`

var reportTemplate = template.Must(template.New("report").Parse(pageTemplate))

type groupPage struct {
	Key     string
	Headers []string
	Rows    [][]string
}

type reportData struct {
	Title          string
	SummaryHeaders []string
	SummaryRows    [][]string
	Groups         []groupPage
}

// renderHTML builds the printable HTML document for the report.
func renderHTML(title string, groups []domain.Group, summaries []domain.SummaryRow) (string, error) {
	data := reportData{
		Title: title,
		SummaryHeaders: []string{
			"Group", "Total_Students", "Avg_Present", "Avg_Absent",
			"Avg_Late", "Avg_Very_Late", "Avg_Attendance_Percentage", "Working_Days",
		},
	}
	for _, row := range summaries {
		data.SummaryRows = append(data.SummaryRows, []string{
			row.GroupKey,
			fmt.Sprintf("%d", row.TotalStudents),
			fmt.Sprintf("%.2f", row.Average(domain.FieldPresent)),
			fmt.Sprintf("%.2f", row.Average(domain.FieldAbsent)),
			fmt.Sprintf("%.2f", row.Average(domain.FieldLate)),
			fmt.Sprintf("%.2f", row.Average(domain.FieldVeryLate)),
			fmt.Sprintf("%.2f", row.Average(domain.FieldAttendance)),
			fmt.Sprintf("%d", row.WorkingDays),
		})
	}
	for _, grp := range groups {
		page := groupPage{Key: grp.Key, Headers: grp.Rows.ColumnNames()}
		for i := 0; i < grp.Rows.NumRows(); i++ {
			cells := make([]string, grp.Rows.NumColumns())
			for j, c := range grp.Rows.Row(i) {
				cells[j] = c.DisplayString()
			}
			page.Rows = append(page.Rows, cells)
		}
		data.Groups = append(data.Groups, page)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report template: %w", err)
	}
	return buf.String(), nil
}
