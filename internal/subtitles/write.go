package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kikiluvv/lecturedeck/pkg/util"
)

// WriteSRT writes parts as numbered SRT cues
func WriteSRT(w io.Writer, parts []Part) error {
	bw := bufio.NewWriter(w)
	for i, p := range parts {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%d\n", i+1)
		fmt.Fprintf(bw, "%s --> %s\n", util.FormatSRTTimestamp(p.Start), util.FormatSRTTimestamp(p.End))
		bw.WriteString(p.Text)
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// WriteVTT writes parts as a WebVTT document
func WriteVTT(w io.Writer, parts []Part) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("WEBVTT\n")
	for _, p := range parts {
		bw.WriteString("\n")
		fmt.Fprintf(bw, "%s --> %s\n", util.FormatDuration(p.Start), util.FormatDuration(p.End))
		bw.WriteString(p.Text)
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// Write encodes parts in the given format
func Write(w io.Writer, parts []Part, format Format) error {
	switch format {
	case FormatSRT:
		return WriteSRT(w, parts)
	case FormatVTT:
		return WriteVTT(w, parts)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteFile writes parts to path, choosing the format from its extension
func WriteFile(path string, parts []Part) error {
	format := Detect(path)
	if format == FormatUnknown {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, parts, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ConvertSRTToVTT rewrites an SRT file as WebVTT
func ConvertSRTToVTT(srtPath, vttPath string) (int, error) {
	parts, format, err := ParseFile(srtPath)
	if err != nil {
		return 0, err
	}
	if format != FormatSRT {
		return 0, fmt.Errorf("%s is not an SRT file", srtPath)
	}
	if Detect(vttPath) != FormatVTT {
		return 0, fmt.Errorf("%w: output %s must end in .vtt", ErrUnsupportedFormat, filepath.Base(vttPath))
	}
	if err := WriteFile(vttPath, parts); err != nil {
		return 0, err
	}
	return len(parts), nil
}
