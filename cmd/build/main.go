package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/shamrozr/luxury-affairs/internal/feed"
	"github.com/shamrozr/luxury-affairs/internal/manifest"
	"github.com/shamrozr/luxury-affairs/internal/platform/config"
	"github.com/shamrozr/luxury-affairs/internal/platform/observability"
	"github.com/shamrozr/luxury-affairs/internal/platform/storage"
	"github.com/shamrozr/luxury-affairs/internal/services"
)

func main() {
	var (
		envFile   string
		outputDir string
		assetsDir string
	)
	flag.StringVar(&envFile, "env", ".env", "dotenv file with local overrides (empty disables)")
	flag.StringVar(&outputDir, "out", "", "artifact output directory (overrides SITE_OUTPUT_DIR)")
	flag.StringVar(&assetsDir, "assets", "", "asset directory to scan (overrides SITE_ASSETS_DIR)")
	flag.Parse()

	overrides := map[string]string{}
	if outputDir != "" {
		overrides["SITE_OUTPUT_DIR"] = outputDir
	}
	if assetsDir != "" {
		overrides["SITE_ASSETS_DIR"] = assetsDir
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
	logger := baseLogger.Named("build")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithLogger(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("build failed", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	categories, err := manifest.LoadCategories(cfg.Build.CategoriesFile)
	if err != nil {
		return err
	}

	publisher, err := storage.NewPublisher(ctx, cfg.Publish)
	if err != nil {
		return fmt.Errorf("initialise publisher: %w", err)
	}
	if publisher != nil {
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("publisher close error", zap.Error(err))
			}
		}()
	}

	fetcher := feed.NewFetcher(
		feed.WithTimeout(cfg.Feeds.Timeout),
		feed.WithMaxBytes(cfg.Feeds.MaxBytes),
		feed.WithLogger(logger),
	)

	svc, err := services.NewBuildService(services.BuildServiceDeps{
		Feeds: fetcher,
		URLs: feed.URLs{
			Themes:      cfg.Feeds.ThemeURL,
			Brands:      cfg.Feeds.LinksURL,
			Collections: cfg.Feeds.CollectionsURL,
		},
		Manifest:  manifest.NewBuilder(cfg.Build.AssetsDir, categories, logger),
		OutputDir: cfg.Build.OutputDir,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	report, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("build complete",
		zap.String("build_id", report.BuildID),
		zap.Strings("written", report.Written),
		zap.Strings("published", report.Published),
	)
	return nil
}
