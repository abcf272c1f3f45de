package segment

import (
	"time"

	"github.com/kikiluvv/lecturedeck/internal/metrics"
)

// postProcess applies glitch filtering, blank-lead removal and downsampling
// to the raw detections, in that order.
func (f *Finder) postProcess(raw []Boundary) []Boundary {
	filtered := filterGlitches(raw, f.config.MinSegmentDuration)
	metrics.AddFiltered("glitch", len(raw)-len(filtered))
	if dropped := len(raw) - len(filtered); dropped > 0 {
		f.logger.Debug().
			Int("dropped", dropped).
			Dur("min_duration", f.config.MinSegmentDuration).
			Msg("removed short segments")
	}

	// The first boundary closes the synthetic blank frame
	if len(filtered) > 0 {
		filtered = filtered[1:]
		metrics.AddFiltered("lead", 1)
	}

	if len(filtered) > f.config.MaxSegments {
		before := len(filtered)
		filtered = downsample(filtered, f.config.MaxSegments)
		metrics.AddFiltered("downsample", before-len(filtered))
		f.logger.Info().
			Int("before", before).
			Int("after", len(filtered)).
			Msg("reduced segment count")
	}

	return filtered
}

// filterGlitches drops every boundary that follows the previously detected one
// by less than minGap. Comparisons use the unfiltered list, so a run of rapid
// changes is removed entirely apart from its first entry.
func filterGlitches(boundaries []Boundary, minGap time.Duration) []Boundary {
	if len(boundaries) == 0 {
		return nil
	}

	out := make([]Boundary, 0, len(boundaries))
	out = append(out, boundaries[0])
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i].Timestamp-boundaries[i-1].Timestamp < minGap {
			continue
		}
		out = append(out, boundaries[i])
	}
	return out
}

// downsample keeps limit boundaries: an evenly strided subset of limit-1 entries
// plus the final boundary.
func downsample(boundaries []Boundary, limit int) []Boundary {
	if len(boundaries) <= limit {
		return boundaries
	}

	stride := len(boundaries) / limit
	last := len(boundaries) - 1

	out := make([]Boundary, 0, limit)
	for i := 0; i < last && len(out) < limit-1; i += stride {
		out = append(out, boundaries[i])
	}
	return append(out, boundaries[last])
}
