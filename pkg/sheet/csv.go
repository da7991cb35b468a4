// Package sheet polls a published spreadsheet's CSV export and raises
// pill-detection events when the latest entry reports a zero count.
package sheet

import "strings"

// ParseCSV splits raw CSV text into rows of fields.
//
// The parser is deliberately lenient: the export endpoint is a
// semi-trusted external source, so malformed input degrades to
// best-effort field splitting instead of an error. Quoting follows the
// usual convention: a field may be wrapped in double quotes, a doubled
// quote inside a quoted field is a literal quote, and commas or
// newlines inside quotes are literal. A bare quote simply toggles
// quote mode.
func ParseCSV(raw string) [][]string {
	var rows [][]string
	var row []string
	var field strings.Builder
	inQuotes := false

	for i := 0; i < len(raw); i++ {
		ch := raw[i]

		if inQuotes {
			if ch == '"' {
				if i+1 < len(raw) && raw[i+1] == '"' {
					field.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				field.WriteByte(ch)
			}
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case ',':
			row = append(row, field.String())
			field.Reset()
		case '\n', '\r':
			// Only flush when something accumulated, so \r\n pairs
			// do not produce spurious empty rows.
			if field.Len() > 0 || len(row) > 0 {
				row = append(row, field.String())
				field.Reset()
				rows = append(rows, row)
				row = nil
			}
		default:
			field.WriteByte(ch)
		}
	}

	if field.Len() > 0 || len(row) > 0 {
		row = append(row, field.String())
		rows = append(rows, row)
	}

	return rows
}
