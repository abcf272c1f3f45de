package subtitles

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kikiluvv/lecturedeck/pkg/util"
)

var markupRe = regexp.MustCompile(`<[^>]*>`)

// ParseSRT reads SRT cues. Index lines are optional and multi-line cue text
// is joined with single spaces.
func ParseSRT(r io.Reader) ([]Part, error) {
	return parseCues(r, false)
}

// ParseVTT reads WebVTT cues, skipping NOTE, STYLE and REGION blocks and
// stripping voice and styling tags from cue text.
func ParseVTT(r io.Reader) ([]Part, error) {
	return parseCues(r, true)
}

func isWebVTTHeader(s string) bool {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.HasPrefix(s, "WEBVTT")
}

func parseCues(r io.Reader, webvtt bool) ([]Part, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		parts   []Part
		current *Part
		text    []string
		skip    bool
		lineNo  int
	)

	flush := func() {
		if current != nil {
			current.Text = cleanText(strings.Join(text, " "))
			parts = append(parts, *current)
		}
		current = nil
		text = text[:0]
		skip = false
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
			if webvtt {
				if !isWebVTTHeader(line) {
					return nil, fmt.Errorf("line 1: missing WEBVTT header")
				}
				skip = true
				continue
			}
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if skip {
			continue
		}

		if current == nil {
			if webvtt && (strings.HasPrefix(trimmed, "NOTE") ||
				strings.HasPrefix(trimmed, "STYLE") ||
				strings.HasPrefix(trimmed, "REGION")) {
				skip = true
				continue
			}
			if !strings.Contains(trimmed, "-->") {
				// cue index or identifier
				continue
			}
			start, end, err := parseTiming(trimmed)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current = &Part{Start: start, End: end}
			continue
		}

		text = append(text, trimmed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	flush()

	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Start < parts[j].Start
	})
	return parts, nil
}

// parseTiming parses "start --> end [settings]"
func parseTiming(line string) (time.Duration, time.Duration, error) {
	startText, rest, ok := strings.Cut(line, "-->")
	if !ok {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("timing line %q has no end time", line)
	}

	start, err := util.ParseTimestamp(startText)
	if err != nil {
		return 0, 0, fmt.Errorf("start time: %w", err)
	}
	end, err := util.ParseTimestamp(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("end time: %w", err)
	}
	return start, end, nil
}

func cleanText(s string) string {
	s = markupRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
