package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/shamrozr/luxury-affairs/internal/feed"
	"github.com/shamrozr/luxury-affairs/internal/manifest"
	"github.com/shamrozr/luxury-affairs/internal/platform/metrics"
	"github.com/shamrozr/luxury-affairs/internal/platform/storage"
	"github.com/shamrozr/luxury-affairs/internal/snapshot"
)

const artifactContentType = "application/json; charset=utf-8"

// FeedFetcher downloads the three feeds of a site.
type FeedFetcher interface {
	FetchAll(ctx context.Context, urls feed.URLs) snapshot.Snapshot
}

// ManifestBuilder lists the asset files of a site.
type ManifestBuilder interface {
	Build() (manifest.Manifest, error)
}

// BuildReport summarises one build run.
type BuildReport struct {
	BuildID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       map[string]int
	Files      map[string]int
	Written    []string
	Published  []string
}

// BuildService produces the static artifacts of a site.
type BuildService interface {
	Run(ctx context.Context) (BuildReport, error)
}

// BuildServiceDeps bundles collaborators required to construct a build service.
type BuildServiceDeps struct {
	Feeds     FeedFetcher
	URLs      feed.URLs
	Manifest  ManifestBuilder
	OutputDir string
	Publisher storage.Publisher
	Logger    *zap.Logger
	Clock     func() time.Time
	Entropy   io.Reader
}

type buildService struct {
	feeds     FeedFetcher
	urls      feed.URLs
	manifest  ManifestBuilder
	outputDir string
	publisher storage.Publisher
	logger    *zap.Logger
	clock     func() time.Time
	entropy   io.Reader
}

var _ BuildService = (*buildService)(nil)

// NewBuildService assembles the build service.
func NewBuildService(deps BuildServiceDeps) (BuildService, error) {
	if deps.Feeds == nil {
		return nil, errors.New("build service: feed fetcher is required")
	}
	if deps.Manifest == nil {
		return nil, errors.New("build service: manifest builder is required")
	}
	if deps.OutputDir == "" {
		return nil, errors.New("build service: output dir is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	entropy := deps.Entropy
	if entropy == nil {
		entropy = ulid.DefaultEntropy()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &buildService{
		feeds:     deps.Feeds,
		urls:      deps.URLs,
		manifest:  deps.Manifest,
		outputDir: deps.OutputDir,
		publisher: deps.Publisher,
		logger:    logger.Named("build"),
		clock: func() time.Time {
			return clock().UTC()
		},
		entropy: entropy,
	}, nil
}

// Run fetches the feeds, scans the assets, writes every artifact to the output directory and
// publishes them when a publisher is configured. Unavailable feeds degrade to empty tables;
// only write and publish failures fail the run.
func (s *buildService) Run(ctx context.Context) (BuildReport, error) {
	started := s.clock()
	id, err := ulid.New(ulid.Timestamp(started), s.entropy)
	if err != nil {
		return BuildReport{}, fmt.Errorf("build service: build id: %w", err)
	}
	report := BuildReport{
		BuildID:   id.String(),
		StartedAt: started,
		Rows:      make(map[string]int, 3),
		Files:     make(map[string]int),
	}
	logger := s.logger.With(zap.String("build_id", report.BuildID))
	logger.Info("build started", zap.String("output_dir", s.outputDir))

	snap := s.feeds.FetchAll(ctx, s.urls).Normalized()
	report.Rows[feed.NameBrands] = len(snap.Brands)
	report.Rows[feed.NameThemes] = len(snap.Themes)
	report.Rows[feed.NameCollections] = len(snap.Collections)
	if snap.Brands.Empty() {
		logger.Warn("brand feed is empty, pages will render unbranded")
	}

	m, err := s.manifest.Build()
	if err != nil {
		return report, fmt.Errorf("build service: manifest: %w", err)
	}
	for key, files := range m {
		report.Files[key] = len(files)
	}

	siteCfg := snapshot.SiteConfig{
		ThemeCSV:       s.urls.Themes,
		LinksCSV:       s.urls.Brands,
		CollectionsCSV: s.urls.Collections,
	}
	artifacts := []struct {
		name  string
		value any
	}{
		{snapshot.DataFile, snap},
		{snapshot.ManifestFile, m},
		{snapshot.SiteConfigFile, siteCfg},
	}
	bodies := make(map[string][]byte, len(artifacts))
	for _, a := range artifacts {
		data, err := snapshot.MarshalJSON(a.value)
		if err != nil {
			return report, fmt.Errorf("build service: encode %s: %w", a.name, err)
		}
		path := filepath.Join(s.outputDir, a.name)
		if err := snapshot.WriteFile(path, data); err != nil {
			return report, fmt.Errorf("build service: %w", err)
		}
		bodies[a.name] = data
		report.Written = append(report.Written, path)
		logger.Info("artifact written", zap.String("path", path), zap.Int("bytes", len(data)))
	}

	if s.publisher != nil {
		for _, a := range artifacts {
			err := s.publisher.Publish(ctx, a.name, bodies[a.name], artifactContentType)
			metrics.RecordPublish(s.publisher.Provider(), a.name, err)
			if err != nil {
				return report, fmt.Errorf("build service: publish %s: %w", a.name, err)
			}
			report.Published = append(report.Published, a.name)
		}
		logger.Info("artifacts published", zap.String("provider", s.publisher.Provider()), zap.Int("count", len(report.Published)))
	}

	report.FinishedAt = s.clock()
	logger.Info("build finished",
		zap.Int("brand_rows", report.Rows[feed.NameBrands]),
		zap.Int("theme_rows", report.Rows[feed.NameThemes]),
		zap.Int("collection_rows", report.Rows[feed.NameCollections]),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}
