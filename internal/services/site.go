package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/shamrozr/luxury-affairs/internal/domain"
	"github.com/shamrozr/luxury-affairs/internal/manifest"
	"github.com/shamrozr/luxury-affairs/internal/snapshot"
)

// Site is the immutable set of build artifacts served by the web process.
type Site struct {
	Snapshot   snapshot.Snapshot
	Manifest   manifest.Manifest
	Config     snapshot.SiteConfig
	LoadedAt   time.Time
	artifacts  map[string][]byte
	collection []domain.CollectionItem
}

// NewSite assembles a Site from in-memory values, encoding the artifact bodies.
func NewSite(snap snapshot.Snapshot, m manifest.Manifest, cfg snapshot.SiteConfig) (*Site, error) {
	site := &Site{
		Snapshot:  snap.Normalized(),
		Manifest:  m,
		Config:    cfg,
		LoadedAt:  time.Now().UTC(),
		artifacts: make(map[string][]byte, 3),
	}
	if site.Manifest == nil {
		site.Manifest = manifest.Manifest{}
	}
	bodies := []struct {
		name  string
		value any
	}{
		{snapshot.DataFile, site.Snapshot},
		{snapshot.ManifestFile, site.Manifest},
		{snapshot.SiteConfigFile, site.Config},
	}
	for _, b := range bodies {
		data, err := snapshot.MarshalJSON(b.value)
		if err != nil {
			return nil, fmt.Errorf("site: encode %s: %w", b.name, err)
		}
		site.artifacts[b.name] = data
	}
	site.collection = domain.CollectionsFromTable(site.Snapshot.Collections)
	return site, nil
}

// LoadSite reads the artifacts written by the build step from dir. A missing artifact is
// logged and replaced by its empty value; a corrupt one is an error.
func LoadSite(dir string, logger *zap.Logger) (*Site, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		snap snapshot.Snapshot
		m    manifest.Manifest
		cfg  snapshot.SiteConfig
	)
	targets := []struct {
		name string
		dst  any
	}{
		{snapshot.DataFile, &snap},
		{snapshot.ManifestFile, &m},
		{snapshot.SiteConfigFile, &cfg},
	}
	for _, target := range targets {
		path := filepath.Join(dir, target.name)
		raw, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("artifact not found, serving empty value", zap.String("path", path))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("site: read %s: %w", path, err)
		}
		if err := json.Unmarshal(raw, target.dst); err != nil {
			return nil, fmt.Errorf("site: decode %s: %w", path, err)
		}
	}

	site, err := NewSite(snap, m, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("site loaded",
		zap.String("dir", dir),
		zap.Int("brand_rows", len(site.Snapshot.Brands)),
		zap.Int("theme_rows", len(site.Snapshot.Themes)),
		zap.Int("collections", len(site.collection)),
	)
	return site, nil
}

// Artifact returns the encoded body of a named artifact.
func (s *Site) Artifact(name string) ([]byte, bool) {
	data, ok := s.artifacts[name]
	return data, ok
}

// Ready reports whether some request path can resolve to a brand.
func (s *Site) Ready() bool {
	_, ok := ResolveBrand(s.Snapshot.Brands, "")
	return ok
}

// Collections returns every named collection item.
func (s *Site) Collections() []domain.CollectionItem {
	return s.collection
}
