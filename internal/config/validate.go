package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.FFmpeg.Threads < 0 {
		errs = append(errs, fmt.Errorf("ffmpeg.threads must not be negative, got %d", c.FFmpeg.Threads))
	}

	s := c.Segments
	if s.PixelDiffThreshold < 0 || s.PixelDiffThreshold > 255 {
		errs = append(errs, fmt.Errorf("segments.pixel_diff_threshold must be within 0-255, got %d", s.PixelDiffThreshold))
	}
	if s.MinChangedPixels < 0 {
		errs = append(errs, fmt.Errorf("segments.min_changed_pixels must not be negative, got %d", s.MinChangedPixels))
	}
	if s.MinSegmentDuration < 0 {
		errs = append(errs, fmt.Errorf("segments.min_segment_duration must not be negative, got %s", s.MinSegmentDuration))
	}
	if s.MaxSegments < 2 {
		errs = append(errs, fmt.Errorf("segments.max_segments must be at least 2, got %d", s.MaxSegments))
	}

	if c.Pages.MaxWidth < 0 {
		errs = append(errs, fmt.Errorf("pages.max_width must not be negative, got %d", c.Pages.MaxWidth))
	}
	if c.Pages.JPEGQuality < 1 || c.Pages.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("pages.jpeg_quality must be within 1-100, got %d", c.Pages.JPEGQuality))
	}

	return errors.Join(errs...)
}
