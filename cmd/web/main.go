package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/shamrozr/luxury-affairs/internal/handlers"
	"github.com/shamrozr/luxury-affairs/internal/platform/config"
	"github.com/shamrozr/luxury-affairs/internal/platform/observability"
	"github.com/shamrozr/luxury-affairs/internal/services"
)

func main() {
	var (
		envFile string
		dataDir string
		addr    string
	)
	flag.StringVar(&envFile, "env", ".env", "dotenv file with local overrides (empty disables)")
	flag.StringVar(&dataDir, "data", "", "directory holding the build artifacts (overrides SITE_DATA_DIR)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (defaults to :SITE_SERVER_PORT)")
	flag.Parse()

	overrides := map[string]string{}
	if dataDir != "" {
		overrides["SITE_DATA_DIR"] = dataDir
	}
	cfg, err := config.Load(config.WithEnvFile(envFile), config.WithEnvMap(overrides))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("web")

	site, err := services.LoadSite(cfg.Server.DataDir, logger.Named("site"))
	if err != nil {
		logger.Fatal("failed to load site artifacts", zap.Error(err))
	}
	if !site.Ready() {
		logger.Warn("no brand rows loaded; pages will render unbranded", zap.String("data_dir", cfg.Server.DataDir))
	}

	pages, err := services.NewPageService(services.PageServiceDeps{Site: site, Logger: logger})
	if err != nil {
		logger.Fatal("failed to initialise page service", zap.Error(err))
	}
	if shadowed := handlers.ShadowedBrandIDs(pages.Brands(context.Background())); len(shadowed) > 0 {
		logger.Warn("brand ids collide with fixed routes and cannot be reached by path", zap.Strings("brand_ids", shadowed))
	}
	renderer, err := handlers.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}
	siteHandlers, err := handlers.NewSiteHandlers(pages, renderer)
	if err != nil {
		logger.Fatal("failed to initialise site handlers", zap.Error(err))
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware,
			observability.RecoveryMiddleware(logger),
			observability.RequestLoggerMiddleware,
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(handlers.WithReadiness(site.Ready))),
		handlers.WithAssetsDir(cfg.Server.AssetsDir),
		handlers.WithSiteHandlers(siteHandlers),
	)

	if addr == "" {
		addr = ":" + cfg.Server.Port
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("microsite listening", zap.String("assets_dir", cfg.Server.AssetsDir))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
