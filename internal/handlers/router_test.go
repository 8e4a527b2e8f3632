package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shamrozr/luxury-affairs/internal/domain"
	"github.com/shamrozr/luxury-affairs/internal/manifest"
	"github.com/shamrozr/luxury-affairs/internal/services"
	"github.com/shamrozr/luxury-affairs/internal/snapshot"
	"github.com/shamrozr/luxury-affairs/internal/table"
	"github.com/shamrozr/luxury-affairs/internal/testutil"
)

func fixtureSnapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		Brands: table.Table{
			{"id", "name", "tagline", "about", "img", "theme", "wa", "ig", "tt", "vendor"},
			{"default", "Acme Co", "Welcome", "", "", "1", "", "", "", ""},
			{"acme", "Acme Special", "Hi", "**Hand picked** pieces<script>alert(1)</script>", "acme-logo.png", "2",
				"https://wa.me/15550100", "x", "https://tiktok.com/@acme", "https://vendors.example.com/acme"},
		},
		Themes: table.Table{
			{"1", "#000", "#111", "#d4af37"},
			{"2", "#fff", "linear-gradient(#fff, #eee)", "#c0c0c0", "#e5e4e2"},
		},
		Collections: table.Table{
			{"name", "image", "link"},
			{"Bags", "bags.jpg", "https://shop.example.com/bags"},
			{"Shoes", "", ""},
		},
	}
}

func newTestRouter(t *testing.T, snap snapshot.Snapshot, m manifest.Manifest, opts ...Option) http.Handler {
	t.Helper()

	site, err := services.NewSite(snap, m, snapshot.SiteConfig{LinksCSV: "https://docs.example.com/links.csv"})
	require.NoError(t, err)
	pages, err := services.NewPageService(services.PageServiceDeps{Site: site})
	require.NoError(t, err)
	renderer, err := NewRenderer()
	require.NoError(t, err)
	siteHandlers, err := NewSiteHandlers(pages, renderer)
	require.NoError(t, err)

	base := []Option{
		WithSiteHandlers(siteHandlers),
		WithHealthHandlers(NewHealthHandlers(WithReadiness(site.Ready))),
	}
	return NewRouter(append(base, opts...)...)
}

func get(t *testing.T, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzOK(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestRouter(t, fixtureSnapshot(), nil), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestReadyzReflectsBrandData(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestRouter(t, fixtureSnapshot(), nil), "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, newTestRouter(t, snapshot.Snapshot{}, nil), "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":"not_ready"`)
}

func TestPageRendersPathBrandWithTheme(t *testing.T) {
	t.Parallel()

	m := manifest.Manifest{
		manifest.CategoryTestimonials:  {"t1.jpg", "t2.jpg"},
		manifest.CategoryPaymentProofs: {},
	}
	rec := get(t, newTestRouter(t, fixtureSnapshot(), m), "/acme")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, []string{"Acme Special"}, testutil.Texts(doc, ".brand-name"))
	require.Equal(t, []string{"Hi"}, testutil.Texts(doc, ".tagline"))
	require.Equal(t, "path", doc.Find("body").AttrOr("data-resolution", ""))

	style := doc.Find("#brand-theme").Text()
	require.Contains(t, style, "--bg-dark: #fff;")
	require.Contains(t, style, "--bg-gradient: linear-gradient(#fff, #eee);")
	require.Contains(t, style, "--gold-light: #e5e4e2")

	require.Equal(t, []string{"/assets/profile/acme-logo.png"}, testutil.Attrs(doc, "img.profile-img", "src"))

	about := doc.Find("#about-section .text-content")
	require.Equal(t, "Hand picked", strings.TrimSpace(about.Find("strong").Text()))
	require.Zero(t, about.Find("script").Length())
	require.NotContains(t, rec.Body.String(), "alert(1)")
	require.Equal(t, []string{"About Acme Special"}, testutil.Texts(doc, "#about-section .card-title"))

	// The instagram value is too short to be a link.
	require.Equal(t, []string{"https://tiktok.com/@acme", "https://wa.me/15550100"}, testutil.Attrs(doc, ".social-row a", "href"))
	require.Equal(t, []string{"https://vendors.example.com/acme"}, testutil.Attrs(doc, "#vendor_access-section a", "href"))

	require.Equal(t, []string{"/assets/collections/bags.jpg", "/assets/placeholder.jpg"}, testutil.Attrs(doc, ".carousel-container img", "src"))
	require.Equal(t, []string{"https://shop.example.com/bags", "#"}, testutil.Attrs(doc, "#modal-grid-container a", "href"))

	require.Equal(t, 1, doc.Find("#testimonials-track").Length())
	require.Equal(t, []string{"/assets/testimonials/t1.jpg", "/assets/testimonials/t2.jpg"}, testutil.Attrs(doc, "#testimonials-track img", "src"))
	require.Zero(t, doc.Find("#payment_proof-track").Length())
}

func TestPageFallsBackToDefaultBrand(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestRouter(t, fixtureSnapshot(), nil), "/nope/")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, []string{"Acme Co"}, testutil.Texts(doc, ".brand-name"))
	require.Equal(t, "default", doc.Find("body").AttrOr("data-resolution", ""))
	require.Contains(t, doc.Find("#brand-theme").Text(), "--bg-dark: #000;")
	require.Equal(t, []string{"AC"}, testutil.Texts(doc, ".profile-initials"))
	require.Zero(t, doc.Find(".social-row").Length())
	require.Zero(t, doc.Find("#vendor_access-section").Length())
	require.Contains(t, doc.Find("#about-section").Text(), "Welcome to our luxury collection.")
}

func TestPageWithoutBrandDataKeepsDefaults(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestRouter(t, snapshot.Snapshot{Brands: table.Table{{"id", "name"}}}, nil), "/acme")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, []string{"Luxury Store"}, testutil.Texts(doc, ".brand-name"))
	require.Equal(t, []string{"Welcome"}, testutil.Texts(doc, ".tagline"))
	require.Zero(t, doc.Find("#brand-theme").Length())
	require.Zero(t, doc.Find("#about-section").Length())
	require.Zero(t, doc.Find(".profile-img").Length())
	_, hasSource := doc.Find("body").Attr("data-resolution")
	require.False(t, hasSource)
}

func TestBrandAPI(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, fixtureSnapshot(), nil)

	rec := get(t, router, "/api/v1/brands/acme")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Brand struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			ThemeIndex int    `json:"themeIndex"`
		} `json:"brand"`
		Source string `json:"source"`
		Theme  *struct {
			Background string `json:"background"`
		} `json:"theme"`
		CSSVariables []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"cssVariables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Acme Special", got.Brand.Name)
	require.Equal(t, 2, got.Brand.ThemeIndex)
	require.Equal(t, "path", got.Source)
	require.NotNil(t, got.Theme)
	require.Equal(t, "#fff", got.Theme.Background)
	require.Len(t, got.CSSVariables, 4)

	rec = get(t, router, "/api/v1/brands/nope")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"source":"default"`)

	rec = get(t, router, "/api/v1/brands")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Brands []struct {
			ID string `json:"id"`
		} `json:"brands"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Brands, 2)
}

func TestBrandAPINotFoundWithoutData(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestRouter(t, snapshot.Snapshot{}, nil), "/api/v1/brands/acme")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "brand_not_found", body["error"])
}

func TestArtifactsServedWithETag(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, fixtureSnapshot(), manifest.Manifest{manifest.CategoryVideos: {}})

	rec := get(t, router, "/data.json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	var snap snapshot.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Brands, 3)

	et := rec.Header().Get("ETag")
	require.NotEmpty(t, et)
	rec = get(t, router, "/data.json", "If-None-Match", et)
	require.Equal(t, http.StatusNotModified, rec.Code)

	rec = get(t, router, "/manifest.json")
	require.JSONEq(t, `{"videos":[]}`, rec.Body.String())

	rec = get(t, router, "/config.json")
	require.JSONEq(t, `{"theme_csv":"","links_csv":"https://docs.example.com/links.csv","collections_csv":""}`, rec.Body.String())
}

func TestAssetsServedWithCacheHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SECRET=1"), 0o644))
	router := newTestRouter(t, fixtureSnapshot(), nil, WithAssetsDir(dir))

	rec := get(t, router, "/assets/style.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	require.Equal(t, assetsCacheControl, rec.Header().Get("Cache-Control"))
	et := rec.Header().Get("ETag")
	require.True(t, strings.HasPrefix(et, `W/"`))

	rec = get(t, router, "/assets/style.css", "If-None-Match", et)
	require.Equal(t, http.StatusNotModified, rec.Code)

	rec = get(t, router, "/assets/.env")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestRouter(t, fixtureSnapshot(), nil), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "microsite_theme_misses_total")
}

func TestUnknownMethodUsesErrorEnvelope(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()
	newTestRouter(t, fixtureSnapshot(), nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":"method_not_allowed"`)
}

func TestShadowedBrandIDs(t *testing.T) {
	t.Parallel()

	brands := []domain.BrandRecord{
		{ID: "acme"},
		{ID: "healthz"},
		{ID: "data.json"},
		{ID: "assets/logo"},
		{ID: "assetsy"},
		{ID: "api/v1/brands"},
		{ID: "api"},
		{ID: " metrics "},
		{ID: ""},
	}
	require.Equal(t, []string{"healthz", "data.json", "assets/logo", "api/v1/brands", "metrics"}, ShadowedBrandIDs(brands))

	router := newTestRouter(t, snapshot.Snapshot{Brands: table.Table{
		{"id", "name"},
		{"default", "Acme Co"},
		{"healthz", "Hidden Brand"},
	}}, nil)
	rec := get(t, router, "/healthz")
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.NotContains(t, rec.Body.String(), "Hidden Brand")
}
