// Package manifest lists the asset files available to a site, grouped by category.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/shamrozr/luxury-affairs/internal/platform/metrics"
)

// Kind selects the extension filter applied to a category directory.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAny   Kind = "any"
)

var extensions = map[Kind]map[string]struct{}{
	KindImage: set(".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif"),
	KindVideo: set(".mp4", ".webm", ".mov", ".m4v", ".ogv"),
}

// Standard category keys.
const (
	CategoryProfileImages    = "profile_images"
	CategoryTestimonials     = "testimonials"
	CategoryDeliveryProofs   = "delivery_proofs"
	CategoryPaymentProofs    = "payment_proofs"
	CategoryCollectionImages = "collection_images"
	CategoryVideos           = "videos"
)

// Category maps a manifest key to a directory under the assets root.
type Category struct {
	Key  string `yaml:"key"`
	Dir  string `yaml:"dir"`
	Kind Kind   `yaml:"kind"`
}

// Manifest maps category keys to file names.
type Manifest map[string][]string

// Files returns the file names of a category, never nil.
func (m Manifest) Files(key string) []string {
	if files := m[key]; files != nil {
		return files
	}
	return []string{}
}

// DefaultCategories returns the categories scanned when no categories file is configured.
func DefaultCategories() []Category {
	return []Category{
		{Key: CategoryProfileImages, Dir: "profile", Kind: KindImage},
		{Key: CategoryTestimonials, Dir: "testimonials", Kind: KindImage},
		{Key: CategoryDeliveryProofs, Dir: "delivery_proofs", Kind: KindImage},
		{Key: CategoryPaymentProofs, Dir: "payment_proofs", Kind: KindImage},
		{Key: CategoryCollectionImages, Dir: "collections", Kind: KindImage},
		{Key: CategoryVideos, Dir: "videos", Kind: KindVideo},
	}
}

type categoriesFile struct {
	Categories []Category `yaml:"categories"`
}

// LoadCategories reads a YAML categories file. An empty path yields DefaultCategories.
func LoadCategories(path string) ([]Category, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCategories(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read categories %s: %w", path, err)
	}
	var doc categoriesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("manifest: decode categories %s: %w", path, err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("manifest: %s defines no categories", path)
	}
	seen := make(map[string]struct{}, len(doc.Categories))
	for i, c := range doc.Categories {
		c.Key = strings.TrimSpace(c.Key)
		c.Dir = strings.TrimSpace(c.Dir)
		if c.Key == "" || c.Dir == "" {
			return nil, fmt.Errorf("manifest: category %d needs key and dir", i)
		}
		if _, dup := seen[c.Key]; dup {
			return nil, fmt.Errorf("manifest: duplicate category %q", c.Key)
		}
		seen[c.Key] = struct{}{}
		switch c.Kind {
		case "":
			c.Kind = KindImage
		case KindImage, KindVideo, KindAny:
		default:
			return nil, fmt.Errorf("manifest: category %q has unknown kind %q", c.Key, c.Kind)
		}
		doc.Categories[i] = c
	}
	return doc.Categories, nil
}

// Builder scans category directories under an assets root.
type Builder struct {
	root       string
	categories []Category
	logger     *zap.Logger
}

// NewBuilder constructs a Builder. A nil categories slice selects DefaultCategories.
func NewBuilder(root string, categories []Category, logger *zap.Logger) *Builder {
	if categories == nil {
		categories = DefaultCategories()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{root: root, categories: categories, logger: logger}
}

// Build lists every category. A missing directory is logged and leaves its list empty; any
// other read error aborts the build.
func (b *Builder) Build() (Manifest, error) {
	out := make(Manifest, len(b.categories))
	for _, c := range b.categories {
		dir := filepath.Join(b.root, c.Dir)
		files, err := listFiles(dir, c.Kind)
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("asset directory not found", zap.String("category", c.Key), zap.String("dir", dir))
			files = []string{}
		} else if err != nil {
			return nil, fmt.Errorf("manifest: scan %s: %w", dir, err)
		} else {
			b.logger.Info("asset directory scanned", zap.String("category", c.Key), zap.Int("files", len(files)))
		}
		metrics.ManifestFiles.WithLabelValues(c.Key).Set(float64(len(files)))
		out[c.Key] = files
	}
	return out, nil
}

func listFiles(dir string, kind Kind) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	allowed := extensions[kind]
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.Type().IsRegular() {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[strings.ToLower(filepath.Ext(name))]; !ok {
				continue
			}
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func set(values ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
