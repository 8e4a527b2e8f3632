package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shamrozr/luxury-affairs/internal/domain"
	"github.com/shamrozr/luxury-affairs/internal/platform/httpx"
	"github.com/shamrozr/luxury-affairs/internal/platform/requestctx"
	"github.com/shamrozr/luxury-affairs/internal/services"
	"github.com/shamrozr/luxury-affairs/internal/snapshot"
)

const artifactCacheControl = "no-cache"

// SiteHandlers serve the storefront page, the build artifacts, and the brand API.
type SiteHandlers struct {
	pages    services.PageService
	renderer *Renderer
}

// NewSiteHandlers constructs site handlers.
func NewSiteHandlers(pages services.PageService, renderer *Renderer) (*SiteHandlers, error) {
	if pages == nil {
		return nil, errors.New("site handlers: page service is required")
	}
	if renderer == nil {
		return nil, errors.New("site handlers: renderer is required")
	}
	return &SiteHandlers{pages: pages, renderer: renderer}, nil
}

// Routes registers the brand API under the router's API prefix.
func (h *SiteHandlers) Routes(r chi.Router) {
	r.Get("/brands", h.listBrands)
	r.Get("/brands/{brandID}", h.getBrand)
}

// Artifact serves one build artifact.
func (h *SiteHandlers) Artifact(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := h.pages.Site().Artifact(name)
		if !ok {
			httpx.WriteError(r.Context(), w, httpx.NewError("artifact_not_found", "unknown artifact "+name, http.StatusNotFound))
			return
		}
		et := bodyETag(body)
		w.Header().Set("Cache-Control", artifactCacheControl)
		w.Header().Set("ETag", et)
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == et {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// Page renders the storefront for the brand named by the request path.
func (h *SiteHandlers) Page(w http.ResponseWriter, r *http.Request) {
	page := h.pages.Page(r.Context(), r.URL.Path)
	body, err := h.renderer.Render(NewPageView(page))
	if err != nil {
		requestctx.Logger(r.Context()).Error("page render failed", zap.Error(err))
		httpx.WriteError(r.Context(), w, httpx.NewError("render_failed", "page could not be rendered", http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", artifactCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type brandListResponse struct {
	Brands []domain.BrandRecord `json:"brands"`
}

type brandResponse struct {
	Brand        domain.BrandRecord  `json:"brand"`
	Source       string              `json:"source"`
	Theme        *domain.ThemeRecord `json:"theme,omitempty"`
	CSSVariables []domain.CSSVar     `json:"cssVariables"`
}

func (h *SiteHandlers) listBrands(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, brandListResponse{Brands: h.pages.Brands(r.Context())})
}

func (h *SiteHandlers) getBrand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "brandID")
	page := h.pages.Page(r.Context(), id)
	if !page.Resolved {
		httpx.WriteError(r.Context(), w, httpx.NewError("brand_not_found", "no brand data available", http.StatusNotFound).
			WithDetails(map[string]any{"brand_id": id}))
		return
	}
	resp := brandResponse{
		Brand:        page.Brand(),
		Source:       page.Resolution.Source,
		CSSVariables: page.CSSVariables(),
	}
	if resp.CSSVariables == nil {
		resp.CSSVariables = []domain.CSSVar{}
	}
	if page.HasTheme {
		theme := page.Theme
		resp.Theme = &theme
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

var artifactNames = []string{snapshot.DataFile, snapshot.ManifestFile, snapshot.SiteConfigFile}
