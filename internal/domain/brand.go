package domain

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minSocialURLLength    = 5
	minProfileImageLength = 5

	profileAssetsPath    = "assets/profile"
	collectionAssetsPath = "assets/collections"
	placeholderImagePath = "assets/placeholder.jpg"

	// FallbackBrandName and FallbackTagline are shown when a brand row leaves them empty.
	FallbackBrandName = "Luxury Store"
	FallbackTagline   = "Welcome"
	FallbackAbout     = "Welcome to our luxury collection."
)

// SocialLink is a rendered outbound profile link.
type SocialLink struct {
	Kind  string
	Label string
	URL   string
}

// DisplayName returns the name or the storefront fallback.
func (b BrandRecord) DisplayName() string {
	if b.Name == "" {
		return FallbackBrandName
	}
	return b.Name
}

// DisplayTagline returns the tagline or the storefront fallback.
func (b BrandRecord) DisplayTagline() string {
	if b.Tagline == "" {
		return FallbackTagline
	}
	return b.Tagline
}

// DisplayAbout returns the about text or the storefront fallback.
func (b BrandRecord) DisplayAbout() string {
	if b.About == "" {
		return FallbackAbout
	}
	return b.About
}

// ProfileImagePath returns the asset path of the profile image, or "" when the brand has none
// and an initials badge should be shown instead.
func (b BrandRecord) ProfileImagePath() string {
	img := strings.TrimSpace(b.ProfileImage)
	if utf8.RuneCountInString(img) < minProfileImageLength {
		return ""
	}
	return path.Join(profileAssetsPath, img)
}

// Initials returns up to two upper-cased leading letters of the brand name's words.
func (b BrandRecord) Initials() string {
	var out []rune
	for _, word := range strings.Fields(b.Name) {
		r, _ := utf8.DecodeRuneInString(word)
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// SocialLinks lists the brand's outbound links in display order. Instagram and WhatsApp values
// too short to be URLs are skipped; a TikTok value only has to be present.
func (b BrandRecord) SocialLinks() []SocialLink {
	candidates := []struct {
		link   SocialLink
		minLen int
	}{
		{SocialLink{Kind: "instagram", Label: "Instagram", URL: b.InstagramURL}, minSocialURLLength},
		{SocialLink{Kind: "tiktok", Label: "TikTok", URL: b.TikTokURL}, 1},
		{SocialLink{Kind: "message-circle", Label: "WhatsApp", URL: b.MessagingURL}, minSocialURLLength},
	}
	out := make([]SocialLink, 0, len(candidates))
	for _, c := range candidates {
		if len(strings.TrimSpace(c.link.URL)) < c.minLen {
			continue
		}
		out = append(out, c.link)
	}
	return out
}

// ImagePath returns the collection card image path, or the placeholder.
func (c CollectionItem) ImagePath() string {
	if c.Image == "" {
		return placeholderImagePath
	}
	return path.Join(collectionAssetsPath, c.Image)
}

// LinkOrAnchor returns the item link, or "#" when it has none.
func (c CollectionItem) LinkOrAnchor() string {
	if strings.TrimSpace(c.Link) == "" {
		return "#"
	}
	return c.Link
}
