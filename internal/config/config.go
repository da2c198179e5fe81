package config

// Package config loads application configuration from the YAML config file
// and environment variables, with defaults matching the shipped behavior.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udownload/udownload/internal/model"
	"github.com/udownload/udownload/internal/platform"
)

// Parallelism bounds. Values outside the range are rejected by Validate,
// not clamped.
const (
	MinConcurrent = 1
	MaxConcurrent = 10
)

// Default values
const (
	DefaultOutputDirName = "uDownload"
	DefaultVideoQuality  = model.QualityBest
	DefaultAudioQuality  = "192"
	DefaultFormat        = model.FormatMP4
	DefaultMaxConcurrent = 1
	DefaultMaxRetries    = 2
)

// AppDirName is the dot directory under the user home holding config and
// history.
const AppDirName = ".udownload"

// Config defines configuration for the downloader.
type Config struct {
	OutputDir      string      `yaml:"output_dir"`
	AudioOnly      bool        `yaml:"audio_only"`
	VideoQuality   string      `yaml:"video_quality"` // best, 1080p, 720p, 480p, 360p
	AudioQuality   string      `yaml:"audio_quality"` // in kbps
	Format         string      `yaml:"format"`        // mp4, mkv, webm, original
	CookiesBrowser string      `yaml:"cookies_browser"`
	MaxConcurrent  int         `yaml:"max_concurrent_downloads"`
	MaxRetries     int         `yaml:"retries"`
	HistoryFile    string      `yaml:"history_file"`
	Retry          RetryConfig `yaml:"retry"`
}

// RetryConfig defines backoff behavior between attempts.
type RetryConfig struct {
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults. Downloads land under
// the user's Downloads directory when it can be resolved.
func Default() Config {
	outputDir := DefaultOutputDirName
	if downloads, err := platform.GetHomeDownloadsDir(); err == nil {
		outputDir = filepath.Join(downloads, DefaultOutputDirName)
	}
	return Config{
		OutputDir:     outputDir,
		VideoQuality:  DefaultVideoQuality,
		AudioQuality:  DefaultAudioQuality,
		Format:        DefaultFormat,
		MaxConcurrent: DefaultMaxConcurrent,
		MaxRetries:    DefaultMaxRetries,
		HistoryFile:   DefaultHistoryPath(),
		Retry: RetryConfig{
			Backoff:    2 * time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(AppDirName, "config.yml")
	}
	return filepath.Join(home, AppDirName, "config.yml")
}

// DefaultHistoryPath returns the default history file location.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(AppDirName, "history.jsonl")
	}
	return filepath.Join(home, AppDirName, "history.jsonl")
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	OutputDir      string          `yaml:"output_dir"`
	AudioOnly      *bool           `yaml:"audio_only"`
	VideoQuality   string          `yaml:"video_quality"`
	AudioQuality   string          `yaml:"audio_quality"`
	Format         string          `yaml:"format"`
	CookiesBrowser string          `yaml:"cookies_browser"`
	MaxConcurrent  int             `yaml:"max_concurrent_downloads"`
	MaxRetries     *int            `yaml:"retries"`
	HistoryFile    string          `yaml:"history_file"`
	Retry          yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.OutputDir != "" {
		cfg.OutputDir = yc.OutputDir
	}
	if yc.AudioOnly != nil {
		cfg.AudioOnly = *yc.AudioOnly
	}
	if yc.VideoQuality != "" {
		cfg.VideoQuality = yc.VideoQuality
	}
	if yc.AudioQuality != "" {
		cfg.AudioQuality = yc.AudioQuality
	}
	if yc.Format != "" {
		cfg.Format = yc.Format
	}
	if yc.CookiesBrowser != "" {
		cfg.CookiesBrowser = yc.CookiesBrowser
	}
	if yc.MaxConcurrent != 0 {
		cfg.MaxConcurrent = yc.MaxConcurrent
	}
	if yc.MaxRetries != nil {
		cfg.MaxRetries = *yc.MaxRetries
	}
	if yc.HistoryFile != "" {
		cfg.HistoryFile = yc.HistoryFile
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the UDOWNLOAD_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("UDOWNLOAD_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("UDOWNLOAD_AUDIO_ONLY"); v != "" {
		c.AudioOnly = v == "true" || v == "1"
	}
	if v := os.Getenv("UDOWNLOAD_VIDEO_QUALITY"); v != "" {
		c.VideoQuality = v
	}
	if v := os.Getenv("UDOWNLOAD_AUDIO_QUALITY"); v != "" {
		c.AudioQuality = v
	}
	if v := os.Getenv("UDOWNLOAD_FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv("UDOWNLOAD_COOKIES_BROWSER"); v != "" {
		c.CookiesBrowser = v
	}
	if v := os.Getenv("UDOWNLOAD_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse UDOWNLOAD_MAX_CONCURRENT: %w", err)
		}
		c.MaxConcurrent = n
	}
	if v := os.Getenv("UDOWNLOAD_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse UDOWNLOAD_RETRIES: %w", err)
		}
		c.MaxRetries = n
	}
	if v := os.Getenv("UDOWNLOAD_HISTORY_FILE"); v != "" {
		c.HistoryFile = v
	}
	if v := os.Getenv("UDOWNLOAD_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse UDOWNLOAD_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("UDOWNLOAD_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse UDOWNLOAD_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}

	return nil
}

// Merge overlays the non-zero fields of other onto c and returns the
// result. Zero values in other mean "no override"; AudioOnly can only be
// switched on this way, not off. MaxRetries is not merged because zero
// retries is a meaningful setting; assign it directly.
func (c Config) Merge(other Config) Config {
	if other.OutputDir != "" {
		c.OutputDir = other.OutputDir
	}
	if other.AudioOnly {
		c.AudioOnly = true
	}
	if other.VideoQuality != "" {
		c.VideoQuality = other.VideoQuality
	}
	if other.AudioQuality != "" {
		c.AudioQuality = other.AudioQuality
	}
	if other.Format != "" {
		c.Format = other.Format
	}
	if other.CookiesBrowser != "" {
		c.CookiesBrowser = other.CookiesBrowser
	}
	if other.MaxConcurrent != 0 {
		c.MaxConcurrent = other.MaxConcurrent
	}
	if other.HistoryFile != "" {
		c.HistoryFile = other.HistoryFile
	}
	if other.Retry.Backoff != 0 {
		c.Retry.Backoff = other.Retry.Backoff
	}
	if other.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = other.Retry.MaxBackoff
	}
	return c
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("config: output_dir is required")
	}
	if c.MaxConcurrent < MinConcurrent || c.MaxConcurrent > MaxConcurrent {
		return fmt.Errorf("config: max_concurrent_downloads must be between %d and %d, got %d",
			MinConcurrent, MaxConcurrent, c.MaxConcurrent)
	}
	if c.MaxRetries < 0 {
		return errors.New("config: retries must be non-negative")
	}
	switch c.VideoQuality {
	case model.QualityBest, model.Quality1080p, model.Quality720p, model.Quality480p, model.Quality360p:
	default:
		return fmt.Errorf("config: unknown video_quality %q", c.VideoQuality)
	}
	switch c.Format {
	case model.FormatMP4, model.FormatMKV, model.FormatWebM, model.FormatOriginal:
	default:
		return fmt.Errorf("config: unknown format %q", c.Format)
	}
	return nil
}

// Options builds the per-request output options from the configuration.
func (c *Config) Options() model.OutputOptions {
	return model.OutputOptions{
		VideoQuality:   c.VideoQuality,
		AudioQuality:   c.AudioQuality,
		AudioOnly:      c.AudioOnly,
		Format:         c.Format,
		OutputDir:      c.OutputDir,
		CookiesBrowser: c.CookiesBrowser,
	}
}
