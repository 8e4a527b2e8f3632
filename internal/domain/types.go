package domain

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shamrozr/luxury-affairs/internal/table"
)

// Brand table columns.
const (
	brandColID = iota
	brandColName
	brandColTagline
	brandColAbout
	brandColProfileImage
	brandColThemeIndex
	brandColMessaging
	brandColSocialA
	brandColSocialB
	brandColVendor
)

// Theme table columns.
const (
	themeColID = iota
	themeColBackground
	themeColGradient
	themeColAccent
	themeColLightAccent
)

// Collection table columns.
const (
	collectionColName = iota
	collectionColImage
	collectionColLink
)

// DefaultThemeIndex applies when a brand's theme column is empty, non-numeric, or zero.
const DefaultThemeIndex = 1

// DefaultBrandID names the fallback brand row.
const DefaultBrandID = "default"

// BrandRecord is one storefront configuration taken from the brand table.
type BrandRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Tagline      string `json:"tagline"`
	About        string `json:"about"`
	ProfileImage string `json:"profileImage"`
	ThemeIndex   int    `json:"themeIndex"`
	MessagingURL string `json:"messagingUrl"`
	InstagramURL string `json:"instagramUrl"`
	TikTokURL    string `json:"tiktokUrl"`
	VendorURL    string `json:"vendorUrl"`
}

// ThemeRecord is one color palette taken from the theme table.
type ThemeRecord struct {
	ID          string `json:"id"`
	Background  string `json:"background"`
	Gradient    string `json:"gradient"`
	Accent      string `json:"accent"`
	LightAccent string `json:"lightAccent,omitempty"`
}

// CollectionItem is one product collection card.
type CollectionItem struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Link  string `json:"link"`
}

// CSSVar is a single custom property assignment.
type CSSVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BrandFromRow maps a brand table row. Missing trailing columns become empty strings.
func BrandFromRow(row table.Row) BrandRecord {
	return BrandRecord{
		ID:           row.Field(brandColID),
		Name:         row.Field(brandColName),
		Tagline:      row.Field(brandColTagline),
		About:        row.Field(brandColAbout),
		ProfileImage: row.Field(brandColProfileImage),
		ThemeIndex:   ParseThemeIndex(row.Field(brandColThemeIndex)),
		MessagingURL: row.Field(brandColMessaging),
		InstagramURL: row.Field(brandColSocialA),
		TikTokURL:    row.Field(brandColSocialB),
		VendorURL:    row.Field(brandColVendor),
	}
}

// ThemeFromRow maps a theme table row. The light accent column may be absent.
func ThemeFromRow(row table.Row) ThemeRecord {
	return ThemeRecord{
		ID:          row.Field(themeColID),
		Background:  strings.TrimSpace(row.Field(themeColBackground)),
		Gradient:    strings.TrimSpace(row.Field(themeColGradient)),
		Accent:      strings.TrimSpace(row.Field(themeColAccent)),
		LightAccent: strings.TrimSpace(row.Field(themeColLightAccent)),
	}
}

// CollectionsFromTable maps every data row after the header, dropping unnamed items.
func CollectionsFromTable(t table.Table) []CollectionItem {
	rows := t.DataRows()
	items := make([]CollectionItem, 0, len(rows))
	for _, row := range rows {
		item := CollectionItem{
			Name:  row.Field(collectionColName),
			Image: strings.TrimSpace(row.Field(collectionColImage)),
			Link:  row.Field(collectionColLink),
		}
		if item.Name == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// ParseThemeIndex reads the leading integer of raw. Empty, non-numeric, and zero values
// yield DefaultThemeIndex.
func ParseThemeIndex(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return DefaultThemeIndex
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n == 0 {
		return DefaultThemeIndex
	}
	return n
}

// MatchesIndex compares the theme id with index numerically, so "2", " 2 " and "2.0" all
// match 2.
func (t ThemeRecord) MatchesIndex(index int) bool {
	return KeyMatchesIndex(t.ID, index)
}

// KeyMatchesIndex reports whether key, read as a number, equals index.
func KeyMatchesIndex(key string, index int) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	v, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return false
	}
	return v == float64(index)
}

// CSSVariables lists the custom properties this theme sets, skipping empty or unsafe values.
func (t ThemeRecord) CSSVariables() []CSSVar {
	candidates := []CSSVar{
		{Name: "--bg-dark", Value: t.Background},
		{Name: "--bg-gradient", Value: t.Gradient},
		{Name: "--gold", Value: t.Accent},
		{Name: "--gold-light", Value: t.LightAccent},
	}
	out := make([]CSSVar, 0, len(candidates))
	for _, c := range candidates {
		if c.Value == "" || !safeCSSValue(c.Value) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func safeCSSValue(v string) bool {
	for _, r := range v {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '#', '(', ')', ',', '.', '%', '-', ' ':
			continue
		}
		return false
	}
	return true
}
