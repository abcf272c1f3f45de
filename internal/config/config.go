package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// EnvPrefix prefixes environment overrides, e.g. LECTUREDECK_SEGMENTS_MAX_SEGMENTS
const EnvPrefix = "LECTUREDECK"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir     string `yaml:"work_dir" mapstructure:"work_dir"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg" mapstructure:"ffmpeg"`

	// Slide change detection
	Segments SegmentsConfig `yaml:"segments" mapstructure:"segments"`

	// Page bundle export
	Pages PagesConfig `yaml:"pages" mapstructure:"pages"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path" mapstructure:"binary_path"`
	ProbePath  string `yaml:"probe_path" mapstructure:"probe_path"`
	Threads    int    `yaml:"threads" mapstructure:"threads"`
}

type SegmentsConfig struct {
	PixelDiffThreshold int           `yaml:"pixel_diff_threshold" mapstructure:"pixel_diff_threshold"`
	MinChangedPixels   int           `yaml:"min_changed_pixels" mapstructure:"min_changed_pixels"`
	MinSegmentDuration time.Duration `yaml:"min_segment_duration" mapstructure:"min_segment_duration"` // "15s" or milliseconds
	MaxSegments        int           `yaml:"max_segments" mapstructure:"max_segments"`
}

type PagesConfig struct {
	MaxWidth    int `yaml:"max_width" mapstructure:"max_width"` // 0 keeps the source width
	JPEGQuality int `yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
}

type LoggingConfig struct {
	File       string `yaml:"file" mapstructure:"file"` // empty disables the file sink
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// Load reads configuration from path, or from the first config file found in
// the default locations, layering LECTUREDECK_* environment variables on top
// of file values and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHooks()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// YAML renders the configuration as a config file
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		WorkDir:     "./work",
		Concurrency: 4,
		FFmpeg: FFmpegConfig{
			Threads: 0,
		},
		Segments: SegmentsConfig{
			PixelDiffThreshold: 50,
			MinChangedPixels:   200000,
			MinSegmentDuration: 15 * time.Second,
			MaxSegments:        10,
		},
		Pages: PagesConfig{
			MaxWidth:    1280,
			JPEGQuality: 85,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("concurrency", d.Concurrency)

	// FFmpeg defaults
	v.SetDefault("ffmpeg.binary_path", d.FFmpeg.BinaryPath)
	v.SetDefault("ffmpeg.probe_path", d.FFmpeg.ProbePath)
	v.SetDefault("ffmpeg.threads", d.FFmpeg.Threads)

	// Detection defaults
	v.SetDefault("segments.pixel_diff_threshold", d.Segments.PixelDiffThreshold)
	v.SetDefault("segments.min_changed_pixels", d.Segments.MinChangedPixels)
	v.SetDefault("segments.min_segment_duration", d.Segments.MinSegmentDuration)
	v.SetDefault("segments.max_segments", d.Segments.MaxSegments)

	// Page export defaults
	v.SetDefault("pages.max_width", d.Pages.MaxWidth)
	v.SetDefault("pages.jpeg_quality", d.Pages.JPEGQuality)

	// Logging defaults
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".lecturedeck", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
