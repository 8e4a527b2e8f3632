// Package table turns spreadsheet-exported CSV text into rows of trimmed string fields.
//
// The format is deliberately narrower than RFC 4180: fields never span lines, and a double
// quote only toggles whether commas are literal. A doubled quote ("") inside a quoted field
// is not unescaped into a literal quote; it toggles twice and contributes nothing.
package table

import "strings"

// MinFields is the smallest field count a parsed line needs to be kept.
const MinFields = 2

// Row is the ordered field list of one parsed line.
type Row []string

// Field returns the field at index i, or "" when the row is shorter.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Key returns the trimmed first field.
func (r Row) Key() string {
	return strings.TrimSpace(r.Field(0))
}

// Table is an ordered list of rows. Row 0 is conventionally the header.
type Table []Row

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t) == 0 }

// DataRows returns every row after the header.
func (t Table) DataRows() []Row {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// ParseLine splits one line into fields, keeping commas that appear inside double quotes.
func ParseLine(line string) Row {
	var (
		row     Row
		inQuote bool
		current strings.Builder
	)
	flush := func() {
		row = append(row, cleanField(current.String()))
		current.Reset()
	}
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuote = !inQuote
		case ch == ',' && !inQuote:
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	flush()
	return row
}

// Parse splits text on newlines and parses every line, dropping rows with fewer than
// MinFields fields. Line order is preserved.
func Parse(text string) Table {
	lines := strings.Split(text, "\n")
	out := make(Table, 0, len(lines))
	for _, line := range lines {
		row := ParseLine(line)
		if len(row) < MinFields {
			continue
		}
		out = append(out, row)
	}
	return out
}

func cleanField(raw string) string {
	raw = strings.TrimPrefix(raw, `"`)
	raw = strings.TrimSuffix(raw, `"`)
	return strings.TrimSpace(raw)
}
