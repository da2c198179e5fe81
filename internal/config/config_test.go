package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/udownload/udownload/internal/model"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("Expected max concurrent %d, got %d", DefaultMaxConcurrent, cfg.MaxConcurrent)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("Expected retries %d, got %d", DefaultMaxRetries, cfg.MaxRetries)
	}
	if cfg.VideoQuality != model.QualityBest {
		t.Errorf("Expected video quality best, got %s", cfg.VideoQuality)
	}
	if cfg.Format != model.FormatMP4 {
		t.Errorf("Expected format mp4, got %s", cfg.Format)
	}
	if filepath.Base(cfg.OutputDir) != DefaultOutputDirName {
		t.Errorf("Expected output dir ending in %s, got %s", DefaultOutputDirName, cfg.OutputDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	content := `
output_dir: /tmp/media
audio_only: true
video_quality: 720p
max_concurrent_downloads: 4
retries: 5
retry:
  backoff: 500ms
  max_backoff: 10s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.OutputDir != "/tmp/media" {
		t.Errorf("Expected output dir /tmp/media, got %s", cfg.OutputDir)
	}
	if !cfg.AudioOnly {
		t.Error("Expected audio_only to be true")
	}
	if cfg.VideoQuality != "720p" {
		t.Errorf("Expected video quality 720p, got %s", cfg.VideoQuality)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("Expected max concurrent 4, got %d", cfg.MaxConcurrent)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("Expected retries 5, got %d", cfg.MaxRetries)
	}
	if cfg.Retry.Backoff != 500*time.Millisecond {
		t.Errorf("Expected backoff 500ms, got %v", cfg.Retry.Backoff)
	}
	if cfg.Retry.MaxBackoff != 10*time.Second {
		t.Errorf("Expected max backoff 10s, got %v", cfg.Retry.MaxBackoff)
	}

	// Unset fields keep defaults
	if cfg.AudioQuality != DefaultAudioQuality {
		t.Errorf("Expected default audio quality, got %s", cfg.AudioQuality)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadFromFile_ZeroRetries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	if err := os.WriteFile(path, []byte("retries: 0\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("Expected explicit retries 0 to override the default, got %d", cfg.MaxRetries)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("UDOWNLOAD_OUTPUT_DIR", "/tmp/env")
	t.Setenv("UDOWNLOAD_MAX_CONCURRENT", "3")
	t.Setenv("UDOWNLOAD_RETRY_BACKOFF", "1s")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.OutputDir != "/tmp/env" {
		t.Errorf("Expected output dir /tmp/env, got %s", cfg.OutputDir)
	}
	if cfg.MaxConcurrent != 3 {
		t.Errorf("Expected max concurrent 3, got %d", cfg.MaxConcurrent)
	}
	if cfg.Retry.Backoff != time.Second {
		t.Errorf("Expected backoff 1s, got %v", cfg.Retry.Backoff)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	t.Setenv("UDOWNLOAD_MAX_CONCURRENT", "lots")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("Expected error for invalid UDOWNLOAD_MAX_CONCURRENT")
	}
}

func TestMerge(t *testing.T) {
	base := Default()

	merged := base.Merge(Config{
		OutputDir:     "/tmp/override",
		VideoQuality:  model.Quality480p,
		MaxConcurrent: 3,
		Retry:         RetryConfig{Backoff: time.Second},
	})

	if merged.OutputDir != "/tmp/override" {
		t.Errorf("Expected output dir /tmp/override, got %s", merged.OutputDir)
	}
	if merged.VideoQuality != model.Quality480p {
		t.Errorf("Expected video quality 480p, got %s", merged.VideoQuality)
	}
	if merged.MaxConcurrent != 3 {
		t.Errorf("Expected max concurrent 3, got %d", merged.MaxConcurrent)
	}
	if merged.Retry.Backoff != time.Second {
		t.Errorf("Expected backoff 1s, got %v", merged.Retry.Backoff)
	}

	// Zero values leave the base untouched.
	if merged.Format != base.Format {
		t.Errorf("Expected format %s to survive merge, got %s", base.Format, merged.Format)
	}
	if merged.Retry.MaxBackoff != base.Retry.MaxBackoff {
		t.Errorf("Expected max backoff %v to survive merge, got %v", base.Retry.MaxBackoff, merged.Retry.MaxBackoff)
	}

	unchanged := base.Merge(Config{})
	if unchanged != base {
		t.Errorf("Expected empty merge to be a no-op")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default ok", func(c *Config) {}, false},
		{"concurrency upper bound", func(c *Config) { c.MaxConcurrent = 10 }, false},
		{"concurrency too low", func(c *Config) { c.MaxConcurrent = 0 }, true},
		{"concurrency too high", func(c *Config) { c.MaxConcurrent = 11 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, true},
		{"unknown quality", func(c *Config) { c.VideoQuality = "4k" }, true},
		{"unknown format", func(c *Config) { c.Format = "avi" }, true},
	}

	for _, test := range tests {
		cfg := Default()
		test.mutate(&cfg)
		err := cfg.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", test.name, err, test.wantErr)
		}
	}
}
