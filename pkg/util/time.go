package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatDuration converts time.Duration to a HH:MM:SS.mmm timestamp
func FormatDuration(d time.Duration) string {
	return formatClock(d, '.')
}

// FormatSRTTimestamp converts time.Duration to the SRT HH:MM:SS,mmm form
func FormatSRTTimestamp(d time.Duration) string {
	return formatClock(d, ',')
}

func formatClock(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	secs := (ms % 60_000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}

// ParseTimestamp parses a timestamp string (HH:MM:SS.mmm, MM:SS.mmm or SS.mmm).
// A comma is accepted as the millisecond separator, as used by SRT.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ":")

	var hours, minutes, seconds float64
	var err error

	switch len(parts) {
	case 1:
		seconds, err = strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}

	case 2:
		minutes, err = strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		seconds, err = strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}

	case 3:
		hours, err = strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		minutes, err = strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		seconds, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}

	default:
		return 0, fmt.Errorf("invalid timestamp format: %s", s)
	}

	if hours < 0 || minutes < 0 || seconds < 0 {
		return 0, fmt.Errorf("negative timestamp: %s", s)
	}

	// Round to the millisecond so "00:00:01.001" does not become 1.000999s.
	totalMillis := (hours*3600+minutes*60+seconds)*1000 + 0.5
	return time.Duration(int64(totalMillis)) * time.Millisecond, nil
}

// ParseMillis parses a comma separated list of millisecond values ("14000,130000")
func ParseMillis(s string) ([]time.Duration, error) {
	var out []time.Duration
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid millisecond value %q: %w", field, err)
		}
		out = append(out, time.Duration(v*float64(time.Millisecond)))
	}
	return out, nil
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
