package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty dir so no ./config.yaml is picked up
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 50, cfg.Segments.PixelDiffThreshold)
	assert.Equal(t, 200000, cfg.Segments.MinChangedPixels)
	assert.Equal(t, 15*time.Second, cfg.Segments.MinSegmentDuration)
	assert.Equal(t, 10, cfg.Segments.MaxSegments)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
concurrency: 2
segments:
  min_changed_pixels: 5000
  min_segment_duration: 30s
pages:
  jpeg_quality: 70
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 5000, cfg.Segments.MinChangedPixels)
	assert.Equal(t, 30*time.Second, cfg.Segments.MinSegmentDuration)
	assert.Equal(t, 70, cfg.Pages.JPEGQuality)

	// untouched keys keep their defaults
	assert.Equal(t, 50, cfg.Segments.PixelDiffThreshold)
	assert.Equal(t, 1280, cfg.Pages.MaxWidth)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segments:\n  max_segments: 6\n"), 0644))

	t.Setenv("LECTUREDECK_SEGMENTS_MAX_SEGMENTS", "12")
	t.Setenv("LECTUREDECK_FFMPEG_THREADS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Segments.MaxSegments)
	assert.Equal(t, 3, cfg.FFmpeg.Threads)
}

func TestLoadMillisecondDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segments:\n  min_segment_duration: 20000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Segments.MinSegmentDuration)

	t.Setenv("LECTUREDECK_SEGMENTS_MIN_SEGMENT_DURATION", "15000")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Segments.MinSegmentDuration)

	t.Setenv("LECTUREDECK_SEGMENTS_MIN_SEGMENT_DURATION", "1m")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Segments.MinSegmentDuration)

	t.Setenv("LECTUREDECK_SEGMENTS_MIN_SEGMENT_DURATION", "soon")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestMillisDurationHook(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"string millis", "1500", 1500 * time.Millisecond},
		{"int millis", 250, 250 * time.Millisecond},
		{"float millis", 2.5, 2500 * time.Microsecond},
		{"go syntax untouched", "15s", "15s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := millisDurationHook(reflect.TypeOf(tt.in), durationType, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// Values that are already durations, and other targets, pass through
	got, err := millisDurationHook(durationType, durationType, 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, got)

	got, err = millisDurationHook(reflect.TypeOf(""), reflect.TypeOf(0), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Segments.MaxSegments)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segments:\n  max_segments: 1\n  pixel_diff_threshold: 300\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "max_segments")
	assert.ErrorContains(t, err, "pixel_diff_threshold")
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Segments.MinSegmentDuration = 20 * time.Second
	cfg.Logging.File = "lecturedeck.log"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "min_segment_duration: 20s")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"threads", func(c *Config) { c.FFmpeg.Threads = -1 }, "ffmpeg.threads"},
		{"threshold", func(c *Config) { c.Segments.PixelDiffThreshold = 256 }, "pixel_diff_threshold"},
		{"pixels", func(c *Config) { c.Segments.MinChangedPixels = -1 }, "min_changed_pixels"},
		{"zero pixels", func(c *Config) { c.Segments.MinChangedPixels = 0 }, ""},
		{"duration", func(c *Config) { c.Segments.MinSegmentDuration = -time.Second }, "min_segment_duration"},
		{"max segments", func(c *Config) { c.Segments.MaxSegments = 1 }, "max_segments"},
		{"width", func(c *Config) { c.Pages.MaxWidth = -1 }, "max_width"},
		{"quality", func(c *Config) { c.Pages.JPEGQuality = 101 }, "jpeg_quality"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestContext(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))

	cfg := Default()
	cfg.Concurrency = 9
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
