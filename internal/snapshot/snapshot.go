// Package snapshot reads and writes the static JSON artifacts produced by the build step.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shamrozr/luxury-affairs/internal/table"
)

// Default artifact file names.
const (
	DataFile       = "data.json"
	ManifestFile   = "manifest.json"
	SiteConfigFile = "config.json"
)

// Snapshot captures the three parsed feeds.
type Snapshot struct {
	Brands      table.Table `json:"brands"`
	Themes      table.Table `json:"themes"`
	Collections table.Table `json:"collections"`
}

// SiteConfig records the feed URLs the site was built from.
type SiteConfig struct {
	ThemeCSV       string `json:"theme_csv"`
	LinksCSV       string `json:"links_csv"`
	CollectionsCSV string `json:"collections_csv"`
}

// Normalized replaces nil tables with empty ones so they serialise as [].
func (s Snapshot) Normalized() Snapshot {
	return Snapshot{
		Brands:      nonNil(s.Brands),
		Themes:      nonNil(s.Themes),
		Collections: nonNil(s.Collections),
	}
}

// Marshal encodes the snapshot with two-space indentation.
func (s Snapshot) Marshal() ([]byte, error) {
	return MarshalJSON(s.Normalized())
}

// MarshalJSON encodes any artifact the way every artifact file is written.
func MarshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Load reads a snapshot file. Missing files yield an error wrapping fs.ErrNotExist.
func Load(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	return s.Normalized(), nil
}

// Write encodes s and writes it to path.
func Write(path string, s Snapshot) error {
	data, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", path, err)
	}
	return WriteFile(path, data)
}

// WriteSiteConfig encodes cfg and writes it to path.
func WriteSiteConfig(path string, cfg SiteConfig) error {
	data, err := MarshalJSON(cfg)
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", path, err)
	}
	return WriteFile(path, data)
}

// LoadSiteConfig reads a site config file.
func LoadSiteConfig(path string) (SiteConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	var cfg SiteConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	return cfg, nil
}

// WriteFile atomically writes data to path, creating the parent directory.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("snapshot: temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("snapshot: chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("snapshot: rename %s: %w", path, err)
	}
	return nil
}

func nonNil(t table.Table) table.Table {
	if t == nil {
		return table.Table{}
	}
	return t
}
