package exporter

import (
	"fmt"
	"strings"
)

// formatFloat formats a float64 with exactly 2 decimal places, so values
// like 13.4 appear as 13.40 in reports.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int for CSV output.
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}

// SheetNameLimit is the spreadsheet format's hard cap on sheet name length.
const SheetNameLimit = 31

// illegalSheetChars are rejected by the spreadsheet format in sheet names.
const illegalSheetChars = `:\/?*[]`

// sanitizeSheetName maps a group key onto a legal sheet name,
// deterministically: illegal characters become underscores and the result
// is truncated to the length cap.
func sanitizeSheetName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(illegalSheetChars, r) {
			r = '_'
		}
		b.WriteRune(r)
	}
	runes := []rune(b.String())
	if len(runes) > SheetNameLimit {
		runes = runes[:SheetNameLimit]
	}
	return string(runes)
}

// uniqueSheetName reserves name in used, disambiguating truncation
// collisions (or a group key colliding with the Summary sheet) with a
// numeric suffix that still respects the length cap.
func uniqueSheetName(name string, used map[string]bool) string {
	if !used[name] {
		used[name] = true
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		runes := []rune(name)
		if len(runes)+len(suffix) > SheetNameLimit {
			runes = runes[:SheetNameLimit-len(suffix)]
		}
		candidate := string(runes) + suffix
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}
