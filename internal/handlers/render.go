package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/shamrozr/luxury-affairs/internal/domain"
	"github.com/shamrozr/luxury-affairs/internal/services"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	aboutMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithUnsafe()),
	)
	aboutHTMLPolicy = newAboutHTMLPolicy()
)

func newAboutHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"assetPath": func(base, name string) string { return path.Join(base, name) },
	}
	tmpl, err := template.New("_root").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("handlers: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the base layout into a buffer so a failed render never writes a partial page.
func (r *Renderer) Render(view PageView) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "base", view); err != nil {
		return nil, fmt.Errorf("handlers: render page: %w", err)
	}
	return buf.Bytes(), nil
}

// PageView is the template model of the storefront page.
type PageView struct {
	Resolved     bool
	BrandID      string
	Source       string
	Name         string
	Tagline      string
	AboutTitle   string
	AboutHTML    template.HTML
	ProfileImage string
	Initials     string
	Socials      []domain.SocialLink
	VendorURL    string
	ThemeCSS     template.CSS
	Featured     []domain.CollectionItem
	Collections  []domain.CollectionItem
	Gallery      []services.GallerySection
	Videos       []string
}

// NewPageView maps a page context onto the template model.
func NewPageView(page services.PageContext) PageView {
	view := PageView{
		Resolved:    page.Resolved,
		BrandID:     page.BrandID,
		Name:        domain.FallbackBrandName,
		Tagline:     domain.FallbackTagline,
		Featured:    page.Featured,
		Collections: page.Collections,
		Gallery:     page.Gallery,
		Videos:      page.Videos,
	}
	if !page.Resolved {
		return view
	}

	brand := page.Brand()
	view.Source = page.Resolution.Source
	view.Name = brand.DisplayName()
	view.Tagline = brand.DisplayTagline()
	view.AboutTitle = "About " + brand.Name
	view.AboutHTML = renderAbout(brand.DisplayAbout())
	view.ProfileImage = brand.ProfileImagePath()
	view.Initials = brand.Initials()
	view.Socials = brand.SocialLinks()
	view.VendorURL = strings.TrimSpace(brand.VendorURL)
	view.ThemeCSS = themeCSS(page.CSSVariables())
	return view
}

// renderAbout converts about text from markdown and sanitises the result.
func renderAbout(text string) template.HTML {
	var buf bytes.Buffer
	if err := aboutMarkdown.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(strings.TrimSpace(aboutHTMLPolicy.Sanitize(buf.String())))
}

// themeCSS renders custom property declarations. Values are already restricted to a safe
// character set by the theme record.
func themeCSS(vars []domain.CSSVar) template.CSS {
	if len(vars) == 0 {
		return ""
	}
	var b strings.Builder
	for _, v := range vars {
		b.WriteString(v.Name)
		b.WriteString(": ")
		b.WriteString(v.Value)
		b.WriteString("; ")
	}
	return template.CSS(strings.TrimSpace(b.String()))
}
