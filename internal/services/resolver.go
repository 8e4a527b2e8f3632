package services

import (
	"strings"

	"github.com/shamrozr/luxury-affairs/internal/domain"
	"github.com/shamrozr/luxury-affairs/internal/table"
)

// Resolution sources name the precedence step that selected a brand row.
const (
	SourcePath     = "path"
	SourceDefault  = "default"
	SourceFirstRow = "first_row"
	SourceNone     = "none"
)

// Resolution is a resolved brand together with how it was found.
type Resolution struct {
	Brand  domain.BrandRecord `json:"brand"`
	Source string             `json:"source"`
}

// BrandIDFromPath strips leading and trailing slashes from a request path.
func BrandIDFromPath(path string) string {
	return strings.Trim(path, "/")
}

// ResolveBrand picks exactly one brand row for candidate: the row whose first field equals the
// candidate, then the "default" row, then the first data row. It reports false when the table
// has no data rows.
func ResolveBrand(brands table.Table, candidate string) (Resolution, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate != "" {
		if row, ok := findRow(brands, candidate); ok {
			return Resolution{Brand: domain.BrandFromRow(row), Source: SourcePath}, true
		}
	}
	if row, ok := findRow(brands, domain.DefaultBrandID); ok {
		return Resolution{Brand: domain.BrandFromRow(row), Source: SourceDefault}, true
	}
	if len(brands) > 1 {
		return Resolution{Brand: domain.BrandFromRow(brands[1]), Source: SourceFirstRow}, true
	}
	return Resolution{}, false
}

// ResolveTheme returns the first theme row whose id numerically equals index.
func ResolveTheme(themes table.Table, index int) (domain.ThemeRecord, bool) {
	for _, row := range themes {
		if domain.KeyMatchesIndex(row.Key(), index) {
			return domain.ThemeFromRow(row), true
		}
	}
	return domain.ThemeRecord{}, false
}

func findRow(t table.Table, id string) (table.Row, bool) {
	for _, row := range t {
		if row.Key() == id {
			return row, true
		}
	}
	return nil, false
}
