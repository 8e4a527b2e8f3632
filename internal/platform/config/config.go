package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultFeedTimeout   = 15 * time.Second
	defaultFeedMaxBytes  = 2 << 20
	defaultAssetsDir     = "assets"
	defaultOutputDir     = "dist"
	defaultCacheControl  = "public, max-age=300"
	defaultLogLevel      = "info"
	defaultShutdownGrace = 10 * time.Second
)

// Publish providers.
const (
	ProviderNone = ""
	ProviderGCS  = "gcs"
	ProviderS3   = "s3"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Feeds    FeedConfig
	Build    BuildConfig
	Server   ServerConfig
	Publish  PublishConfig
	LogLevel string
}

// FeedConfig addresses the three spreadsheet feeds.
type FeedConfig struct {
	ThemeURL       string
	LinksURL       string
	CollectionsURL string
	Timeout        time.Duration
	MaxBytes       int64
}

// BuildConfig controls where the build step reads assets and writes artifacts.
type BuildConfig struct {
	AssetsDir      string
	OutputDir      string
	CategoriesFile string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	ShutdownGrace time.Duration
	DataDir       string
	AssetsDir     string
}

// PublishConfig selects the object store that receives build artifacts.
type PublishConfig struct {
	Provider        string
	Bucket          string
	Prefix          string
	CredentialsFile string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	CacheControl    string
}

// Enabled reports whether artifacts should be uploaded.
func (p PublishConfig) Enabled() bool { return p.Provider != ProviderNone }

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides, the process environment and
// any explicit map, in increasing order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	cfg := Config{
		Feeds: FeedConfig{
			ThemeURL:       stringWithDefault(lookup, "THEME_CSV_URL", ""),
			LinksURL:       stringWithDefault(lookup, "LINKS_CSV_URL", ""),
			CollectionsURL: stringWithDefault(lookup, "COLLECTIONS_CSV_URL", ""),
			Timeout:        durationWithDefault(lookup, "SITE_FEED_TIMEOUT", defaultFeedTimeout),
			MaxBytes:       int64(intWithDefault(lookup, "SITE_FEED_MAX_BYTES", defaultFeedMaxBytes)),
		},
		Build: BuildConfig{
			AssetsDir:      stringWithDefault(lookup, "SITE_ASSETS_DIR", defaultAssetsDir),
			OutputDir:      stringWithDefault(lookup, "SITE_OUTPUT_DIR", defaultOutputDir),
			CategoriesFile: stringWithDefault(lookup, "SITE_CATEGORIES_FILE", ""),
		},
		Server: ServerConfig{
			Port:          stringWithDefault(lookup, "SITE_SERVER_PORT", defaultPort),
			ReadTimeout:   durationWithDefault(lookup, "SITE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:  durationWithDefault(lookup, "SITE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:   durationWithDefault(lookup, "SITE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownGrace: durationWithDefault(lookup, "SITE_SERVER_SHUTDOWN_GRACE", defaultShutdownGrace),
		},
		Publish: PublishConfig{
			Provider:        strings.ToLower(stringWithDefault(lookup, "SITE_PUBLISH_PROVIDER", ProviderNone)),
			Bucket:          stringWithDefault(lookup, "SITE_PUBLISH_BUCKET", ""),
			Prefix:          strings.Trim(stringWithDefault(lookup, "SITE_PUBLISH_PREFIX", ""), "/"),
			CredentialsFile: stringWithDefault(lookup, "SITE_PUBLISH_CREDENTIALS_FILE", ""),
			Region:          stringWithDefault(lookup, "SITE_PUBLISH_REGION", ""),
			Endpoint:        stringWithDefault(lookup, "SITE_PUBLISH_ENDPOINT", ""),
			AccessKeyID:     stringWithDefault(lookup, "SITE_PUBLISH_ACCESS_KEY_ID", ""),
			SecretAccessKey: stringWithDefault(lookup, "SITE_PUBLISH_SECRET_ACCESS_KEY", ""),
			CacheControl:    stringWithDefault(lookup, "SITE_PUBLISH_CACHE_CONTROL", defaultCacheControl),
		},
		LogLevel: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
	}

	// The server reads what the build writes unless told otherwise.
	cfg.Server.DataDir = stringWithDefault(lookup, "SITE_DATA_DIR", cfg.Build.OutputDir)
	cfg.Server.AssetsDir = stringWithDefault(lookup, "SITE_SERVER_ASSETS_DIR", cfg.Build.AssetsDir)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	feeds := []struct {
		name  string
		value string
	}{
		{"Feeds.ThemeURL", cfg.Feeds.ThemeURL},
		{"Feeds.LinksURL", cfg.Feeds.LinksURL},
		{"Feeds.CollectionsURL", cfg.Feeds.CollectionsURL},
	}
	for _, feed := range feeds {
		if feed.value != "" && !isHTTPURL(feed.value) {
			missing = append(missing, feed.name)
		}
	}
	if cfg.Feeds.Timeout <= 0 {
		missing = append(missing, "Feeds.Timeout")
	}
	if cfg.Feeds.MaxBytes <= 0 {
		missing = append(missing, "Feeds.MaxBytes")
	}
	if strings.TrimSpace(cfg.Build.AssetsDir) == "" {
		missing = append(missing, "Build.AssetsDir")
	}
	if strings.TrimSpace(cfg.Build.OutputDir) == "" {
		missing = append(missing, "Build.OutputDir")
	}
	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}

	switch cfg.Publish.Provider {
	case ProviderNone:
	case ProviderGCS, ProviderS3:
		if cfg.Publish.Bucket == "" {
			missing = append(missing, "Publish.Bucket")
		}
		if cfg.Publish.Provider == ProviderS3 && cfg.Publish.Region == "" {
			missing = append(missing, "Publish.Region")
		}
		if cfg.Publish.Endpoint != "" && !isHTTPURL(cfg.Publish.Endpoint) {
			missing = append(missing, "Publish.Endpoint")
		}
		if (cfg.Publish.AccessKeyID == "") != (cfg.Publish.SecretAccessKey == "") {
			missing = append(missing, "Publish.AccessKeyID")
		}
	default:
		missing = append(missing, "Publish.Provider")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
