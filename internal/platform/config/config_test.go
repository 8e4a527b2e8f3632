package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Feeds.Timeout != defaultFeedTimeout {
		t.Errorf("unexpected feed timeout: %s", cfg.Feeds.Timeout)
	}
	if cfg.Feeds.MaxBytes != defaultFeedMaxBytes {
		t.Errorf("unexpected feed max bytes: %d", cfg.Feeds.MaxBytes)
	}
	if cfg.Feeds.ThemeURL != "" || cfg.Feeds.LinksURL != "" || cfg.Feeds.CollectionsURL != "" {
		t.Errorf("expected unset feeds, got %+v", cfg.Feeds)
	}
	if cfg.Build.AssetsDir != "assets" || cfg.Build.OutputDir != "dist" {
		t.Errorf("unexpected build dirs: %+v", cfg.Build)
	}
	if cfg.Server.DataDir != cfg.Build.OutputDir {
		t.Errorf("expected data dir to follow output dir, got %s", cfg.Server.DataDir)
	}
	if cfg.Server.AssetsDir != cfg.Build.AssetsDir {
		t.Errorf("expected server assets dir to follow build assets dir, got %s", cfg.Server.AssetsDir)
	}
	if cfg.Publish.Enabled() {
		t.Errorf("expected publishing disabled by default")
	}
	if cfg.Publish.CacheControl != defaultCacheControl {
		t.Errorf("unexpected cache control: %s", cfg.Publish.CacheControl)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"THEME_CSV_URL":              "https://docs.example.com/theme.csv",
		"LINKS_CSV_URL":              " https://docs.example.com/links.csv ",
		"COLLECTIONS_CSV_URL":        "https://docs.example.com/collections.csv",
		"SITE_FEED_TIMEOUT":          "5s",
		"SITE_FEED_MAX_BYTES":        "1024",
		"SITE_OUTPUT_DIR":            "public",
		"SITE_DATA_DIR":              "/srv/data",
		"SITE_SERVER_PORT":           "9090",
		"SITE_SERVER_WRITE_TIMEOUT":  "not-a-duration",
		"SITE_PUBLISH_PROVIDER":      "S3",
		"SITE_PUBLISH_BUCKET":        "microsite",
		"SITE_PUBLISH_PREFIX":        "/sites/acme/",
		"SITE_PUBLISH_REGION":        "eu-west-1",
		"SITE_PUBLISH_ENDPOINT":      "http://localhost:9000",
		"SITE_PUBLISH_CACHE_CONTROL": "no-cache",
		"LOG_LEVEL":                  "DEBUG",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Feeds.LinksURL != "https://docs.example.com/links.csv" {
		t.Errorf("expected trimmed links url, got %q", cfg.Feeds.LinksURL)
	}
	if cfg.Feeds.Timeout != 5*time.Second || cfg.Feeds.MaxBytes != 1024 {
		t.Errorf("unexpected feed limits: %+v", cfg.Feeds)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("invalid duration should fall back to default, got %s", cfg.Server.WriteTimeout)
	}
	if cfg.Server.DataDir != "/srv/data" {
		t.Errorf("unexpected data dir: %s", cfg.Server.DataDir)
	}
	if cfg.Publish.Provider != ProviderS3 || cfg.Publish.Prefix != "sites/acme" {
		t.Errorf("unexpected publish config: %+v", cfg.Publish)
	}
	if cfg.Publish.CacheControl != "no-cache" {
		t.Errorf("unexpected cache control: %s", cfg.Publish.CacheControl)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"THEME_CSV_URL":         "ftp://example.com/theme.csv",
		"SITE_FEED_TIMEOUT":     "-1s",
		"SITE_PUBLISH_PROVIDER": "s3",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := []string{"Feeds.ThemeURL", "Feeds.Timeout", "Publish.Bucket", "Publish.Region"}
	got := vErr.Fields()
	if len(got) != len(want) {
		t.Fatalf("expected fields %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected fields %v, got %v", want, got)
		}
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	_, err := Load(WithEnvMap(map[string]string{"SITE_PUBLISH_PROVIDER": "azure"}), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if fields := vErr.Fields(); len(fields) != 1 || fields[0] != "Publish.Provider" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestLoadFromDotEnvWithPrecedence(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := []byte(`# local overrides
THEME_CSV_URL="https://docs.example.com/from-file.csv"
export SITE_SERVER_PORT=7000
SITE_ASSETS_DIR=static
`)
	if err := os.WriteFile(envPath, content, 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(
		WithEnvFile(envPath),
		WithEnvMap(map[string]string{"SITE_SERVER_PORT": "7100"}),
		WithoutSystemEnv(),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Feeds.ThemeURL != "https://docs.example.com/from-file.csv" {
		t.Errorf("expected theme url from .env, got %s", cfg.Feeds.ThemeURL)
	}
	if cfg.Server.Port != "7100" {
		t.Errorf("expected env map to override .env, got %s", cfg.Server.Port)
	}
	if cfg.Build.AssetsDir != "static" || cfg.Server.AssetsDir != "static" {
		t.Errorf("expected assets dir from .env, got %s / %s", cfg.Build.AssetsDir, cfg.Server.AssetsDir)
	}
}

func TestLoadSystemEnvOverridesDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SITE_SERVER_PORT=7000\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("SITE_SERVER_PORT", "7200")

	cfg, err := Load(WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7200" {
		t.Errorf("expected process env to override .env, got %s", cfg.Server.Port)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}
