package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shamrozr/luxury-affairs/internal/domain"
	"github.com/shamrozr/luxury-affairs/internal/platform/httpx"
	"github.com/shamrozr/luxury-affairs/internal/services"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	apiPrefix   string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	site        *SiteHandlers
	assetsDir   string
	metrics     http.Handler
	additional  []RouteRegistrar
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix  = "/api/v1"
	defaultTimeout    = 30 * time.Second
	errorNotFoundCode = "route_not_found"
)

// NewRouter constructs the chi router with shared middleware, probes, metrics, assets, the
// brand API and the catch-all storefront page. Fixed routes take precedence over brand ids, so
// a brand whose id is a reserved path (see ShadowedBrandIDs) is never reached by its page URL.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		apiPrefix: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
		metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)
	if cfg.metrics != nil {
		r.Handle("/metrics", cfg.metrics)
	}
	if cfg.assetsDir != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets", AssetsWithCache(cfg.assetsDir)))
	}

	for _, reg := range cfg.additional {
		if reg != nil {
			reg(r)
		}
	}

	if cfg.site != nil {
		r.Group(func(g chi.Router) {
			g.Use(middleware.Compress(5))
			for _, name := range artifactNames {
				g.Get("/"+name, cfg.site.Artifact(name))
			}
			g.Route(cfg.apiPrefix, cfg.site.Routes)
			g.Get("/", cfg.site.Page)
			g.Get("/*", cfg.site.Page)
		})
	}

	return r
}

var reservedPaths = []string{"healthz", "readyz", "metrics"}

// ShadowedBrandIDs returns the ids of brands whose page path is taken by a fixed route.
func ShadowedBrandIDs(brands []domain.BrandRecord) []string {
	var out []string
	for _, b := range brands {
		id := services.BrandIDFromPath(strings.TrimSpace(b.ID))
		if id != "" && reservedPath(id) {
			out = append(out, id)
		}
	}
	return out
}

func reservedPath(id string) bool {
	if slices.Contains(reservedPaths, id) || slices.Contains(artifactNames, id) {
		return true
	}
	for _, prefix := range []string{"assets", strings.TrimPrefix(defaultAPIPrefix, "/")} {
		if id == prefix || strings.HasPrefix(id, prefix+"/") {
			return true
		}
	}
	return false
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithSiteHandlers mounts the storefront page, artifacts and brand API.
func WithSiteHandlers(h *SiteHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.site = h
	}
}

// WithAssetsDir serves static assets from dir under /assets/.
func WithAssetsDir(dir string) Option {
	return func(cfg *routerConfig) {
		cfg.assetsDir = dir
	}
}

// WithMetricsHandler overrides the /metrics handler. A nil handler disables the endpoint.
func WithMetricsHandler(h http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.metrics = h
	}
}

// WithAdditionalRoutes registers extra routes ahead of the storefront catch-all.
func WithAdditionalRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.additional = append(cfg.additional, reg)
	}
}
