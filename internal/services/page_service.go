package services

import (
	"context"
	"errors"
	"path"

	"go.uber.org/zap"

	"github.com/shamrozr/luxury-affairs/internal/domain"
	"github.com/shamrozr/luxury-affairs/internal/manifest"
	"github.com/shamrozr/luxury-affairs/internal/platform/metrics"
	"github.com/shamrozr/luxury-affairs/internal/platform/requestctx"
)

// FeaturedCollectionLimit caps how many collections the carousel shows.
const FeaturedCollectionLimit = 6

// GallerySection is one proof gallery rendered from a manifest category.
type GallerySection struct {
	Key      string
	Title    string
	BasePath string
	Images   []string
}

// PageContext holds everything derived for one page request. It is built fresh per request.
type PageContext struct {
	BrandID     string
	Resolution  Resolution
	Resolved    bool
	Theme       domain.ThemeRecord
	HasTheme    bool
	Featured    []domain.CollectionItem
	Collections []domain.CollectionItem
	Gallery     []GallerySection
	Videos      []string
}

// Brand returns the resolved brand, or the zero record when resolution failed.
func (p PageContext) Brand() domain.BrandRecord {
	return p.Resolution.Brand
}

// CSSVariables lists the theme custom properties; empty when no theme applies.
func (p PageContext) CSSVariables() []domain.CSSVar {
	if !p.HasTheme {
		return nil
	}
	return p.Theme.CSSVariables()
}

// PageService resolves brands and pages against a loaded site.
type PageService interface {
	Page(ctx context.Context, requestPath string) PageContext
	Brand(ctx context.Context, id string) (Resolution, bool)
	Brands(ctx context.Context) []domain.BrandRecord
	Site() *Site
}

// PageServiceDeps bundles collaborators required to construct a page service.
type PageServiceDeps struct {
	Site   *Site
	Logger *zap.Logger
}

type pageService struct {
	site   *Site
	logger *zap.Logger
}

var _ PageService = (*pageService)(nil)

type galleryDef struct {
	key      string
	category string
	title    string
	dir      string
}

var galleryDefs = []galleryDef{
	{"testimonials", manifest.CategoryTestimonials, "Testimonials", "assets/testimonials"},
	{"delivery_proof", manifest.CategoryDeliveryProofs, "Delivery Proofs", "assets/delivery_proofs"},
	{"payment_proof", manifest.CategoryPaymentProofs, "Payment Proofs", "assets/payment_proofs"},
}

const videoAssetsPath = "assets/videos"

// NewPageService constructs the page service.
func NewPageService(deps PageServiceDeps) (PageService, error) {
	if deps.Site == nil {
		return nil, errors.New("page service: site is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &pageService{site: deps.Site, logger: logger.Named("pages")}, nil
}

func (s *pageService) Site() *Site { return s.site }

func (s *pageService) Page(ctx context.Context, requestPath string) PageContext {
	id := BrandIDFromPath(requestPath)
	page := PageContext{
		BrandID:     id,
		Collections: s.site.Collections(),
	}
	page.Featured = page.Collections
	if len(page.Featured) > FeaturedCollectionLimit {
		page.Featured = page.Featured[:FeaturedCollectionLimit]
	}
	for _, def := range galleryDefs {
		images := s.site.Manifest.Files(def.category)
		if len(images) == 0 {
			continue
		}
		page.Gallery = append(page.Gallery, GallerySection{
			Key:      def.key,
			Title:    def.title,
			BasePath: def.dir,
			Images:   images,
		})
	}
	for _, name := range s.site.Manifest.Files(manifest.CategoryVideos) {
		page.Videos = append(page.Videos, path.Join(videoAssetsPath, name))
	}

	res, ok := s.Brand(ctx, id)
	if !ok {
		return page
	}
	page.Resolution = res
	page.Resolved = true

	theme, ok := ResolveTheme(s.site.Snapshot.Themes, res.Brand.ThemeIndex)
	if !ok {
		metrics.ThemeMissesTotal.Inc()
		s.log(ctx).Debug("theme not found", zap.String("brand", res.Brand.ID), zap.Int("theme_index", res.Brand.ThemeIndex))
		return page
	}
	page.Theme = theme
	page.HasTheme = true
	return page
}

func (s *pageService) Brand(ctx context.Context, id string) (Resolution, bool) {
	res, ok := ResolveBrand(s.site.Snapshot.Brands, id)
	if !ok {
		metrics.ResolutionsTotal.WithLabelValues(SourceNone).Inc()
		s.log(ctx).Warn("no brand available", zap.String("candidate", id))
		return Resolution{}, false
	}
	metrics.ResolutionsTotal.WithLabelValues(res.Source).Inc()
	return res, true
}

func (s *pageService) Brands(context.Context) []domain.BrandRecord {
	rows := s.site.Snapshot.Brands.DataRows()
	out := make([]domain.BrandRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.BrandFromRow(row))
	}
	return out
}

func (s *pageService) log(ctx context.Context) *zap.Logger {
	if logger := requestctx.Logger(ctx); logger != requestctx.NoopLogger() {
		return logger.Named("pages")
	}
	return s.logger
}
