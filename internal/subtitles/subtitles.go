package subtitles

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kikiluvv/lecturedeck/pkg/util"
)

// Part is one timed transcript fragment covering [Start, End)
type Part struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration returns the time covered by the part
func (p Part) Duration() time.Duration {
	return p.End - p.Start
}

// Format identifies a subtitle file format
type Format string

const (
	FormatSRT     Format = "srt"
	FormatVTT     Format = "vtt"
	FormatUnknown Format = ""
)

var ErrUnsupportedFormat = errors.New("unsupported subtitle format")

// Detect guesses the format from the file extension
func Detect(path string) Format {
	switch util.GetExtension(path) {
	case "srt":
		return FormatSRT
	case "vtt", "webvtt":
		return FormatVTT
	default:
		return FormatUnknown
	}
}

// ParseFile reads a subtitle file. Files without a known extension are
// sniffed for a WEBVTT header.
func ParseFile(path string) ([]Part, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("open subtitles: %w", err)
	}
	defer f.Close()

	format := Detect(path)
	if format == FormatUnknown {
		head := make([]byte, 16)
		n, _ := f.Read(head)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, FormatUnknown, fmt.Errorf("rewind subtitles: %w", err)
		}
		format = FormatSRT
		if isWebVTTHeader(string(head[:n])) {
			format = FormatVTT
		}
	}

	var parts []Part
	switch format {
	case FormatVTT:
		parts, err = ParseVTT(f)
	default:
		parts, err = ParseSRT(f)
	}
	if err != nil {
		return nil, format, fmt.Errorf("parse %s: %w", path, err)
	}
	return parts, format, nil
}

// Validate checks that parts are ordered, non-empty in time and do not
// overlap. Gaps are allowed.
func Validate(parts []Part) error {
	var errs []error
	for i, p := range parts {
		if p.Start < 0 {
			errs = append(errs, fmt.Errorf("part %d starts before zero", i))
		}
		if p.Duration() <= 0 {
			errs = append(errs, fmt.Errorf("part %d ends at %s, not after its start %s",
				i, util.FormatDuration(p.End), util.FormatDuration(p.Start)))
		}
		if i > 0 && p.Start < parts[i-1].End {
			errs = append(errs, fmt.Errorf("part %d starts at %s, before part %d ends at %s",
				i, util.FormatDuration(p.Start), i-1, util.FormatDuration(parts[i-1].End)))
		}
	}
	return errors.Join(errs...)
}

// TotalDuration returns the end of the last part
func TotalDuration(parts []Part) time.Duration {
	if len(parts) == 0 {
		return 0
	}
	return parts[len(parts)-1].End
}
