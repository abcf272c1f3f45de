package align

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/kikiluvv/lecturedeck/internal/metrics"
	"github.com/kikiluvv/lecturedeck/internal/subtitles"
	"github.com/rs/zerolog"
)

// ErrInvalidBreakOrder is returned when break times are not strictly ascending
var ErrInvalidBreakOrder = errors.New("break times must be strictly ascending")

const noBreak = time.Duration(math.MaxInt64)

// How a cut position was found
const (
	snapBounded   = "bounded"
	snapUnbounded = "unbounded"
	snapEstimate  = "estimate"
	snapEnd       = "end"
	snapFallback  = "fallback"
)

// Aligner slices a transcript into one chunk per page break
type Aligner struct {
	logger zerolog.Logger
	parts  []subtitles.Part
	texts  [][]rune
}

// New creates an aligner over parts, which must be sorted by start time
func New(logger zerolog.Logger, parts []subtitles.Part) *Aligner {
	texts := make([][]rune, len(parts))
	for i, p := range parts {
		texts[i] = []rune(p.Text)
	}
	return &Aligner{
		logger: logger.With().Str("component", "aligner").Logger(),
		parts:  parts,
		texts:  texts,
	}
}

// Align returns the transcript text that ends at each break, snapped to the
// nearest sentence end. The result has one entry per break.
func (a *Aligner) Align(breaks []time.Duration) ([]string, error) {
	if err := validateBreaks(breaks); err != nil {
		return nil, err
	}

	segments := make([]string, len(breaks))
	if len(a.parts) == 0 {
		a.logger.Warn().Int("breaks", len(breaks)).Msg("no transcript parts, all segments empty")
		return segments, nil
	}

	start := Position{}
	for i, t := range breaks {
		prev := time.Duration(0)
		if i > 0 {
			prev = breaks[i-1]
		}
		next := noBreak
		if i < len(breaks)-1 {
			next = breaks[i+1]
		}

		end, snap := a.locate(t, prev, next)
		segments[i] = completeWords(a.slice(start, end))
		metrics.IncrementSegmentAligned(snap)

		a.logger.Debug().
			Int("segment", i).
			Dur("break", t).
			Stringer("start", start).
			Stringer("end", end).
			Str("snap", snap).
			Int("chars", utf8.RuneCountInString(segments[i])).
			Msg("aligned segment")

		if adv := (Position{Part: end.Part, Char: end.Char + 1}); start.Before(adv) {
			start = adv
		}
	}

	return segments, nil
}

func validateBreaks(breaks []time.Duration) error {
	for i := 1; i < len(breaks); i++ {
		if breaks[i] <= breaks[i-1] {
			return fmt.Errorf("%w: break %d at %s follows %s", ErrInvalidBreakOrder, i, breaks[i], breaks[i-1])
		}
	}
	return nil
}

// findPart returns the index of the part covering t, or -1
func (a *Aligner) findPart(t time.Duration) int {
	i := sort.Search(len(a.parts), func(i int) bool {
		return a.parts[i].End > t
	})
	if i < len(a.parts) && a.parts[i].Start <= t {
		return i
	}
	return -1
}

// locate finds the cut position for the break at t. prev and next are the
// neighbouring breaks and bound the first search.
func (a *Aligner) locate(t, prev, next time.Duration) (Position, string) {
	last := len(a.parts) - 1
	if t >= a.parts[last].End {
		return Position{Part: last, Char: len(a.texts[last]) - 1}, snapEnd
	}

	idx := a.findPart(t)
	if idx < 0 {
		a.logger.Debug().Dur("break", t).Msg("break falls outside every part")
		return Position{Part: 0, Char: -1}, snapFallback
	}

	part := a.parts[idx]
	ratio := float64(t-part.Start) / float64(part.Duration())
	estimate := Position{Part: idx, Char: int(ratio * float64(len(a.texts[idx])))}

	lower := a.findPart(prev)
	if lower < 0 {
		lower = 0
	}
	upper := a.findPart(next)
	if upper < 0 {
		upper = last
	}

	leftStart, rightStart := estimate, estimate
	if !a.valid(estimate) {
		leftStart = a.prevPos(Position{Part: idx, Char: 0})
		rightStart = a.nextPos(Position{Part: idx, Char: -1})
	}

	// Alternate outward, left first, inside the neighbouring breaks' parts
	l, r := leftStart, rightStart
	for {
		lIn := l.Part >= lower && l.Part >= 0
		rIn := r.Part <= upper && r.Part <= last
		if !lIn && !rIn {
			break
		}
		if lIn {
			if a.isSentenceEnd(l) {
				return l, snapBounded
			}
			l = a.prevPos(l)
		}
		if rIn {
			if a.isSentenceEnd(r) {
				return r, snapBounded
			}
			r = a.nextPos(r)
		}
	}

	for l = leftStart; l.Part >= 0; l = a.prevPos(l) {
		if a.isSentenceEnd(l) {
			return l, snapUnbounded
		}
	}
	for r = rightStart; r.Part <= last; r = a.nextPos(r) {
		if a.isSentenceEnd(r) {
			return r, snapUnbounded
		}
	}

	return estimate, snapEstimate
}

// slice returns the text from start to end inclusive
func (a *Aligner) slice(start, end Position) string {
	if end.Before(start) {
		return ""
	}

	if start.Part == end.Part {
		text := a.texts[start.Part]
		from := clamp(start.Char, 0, len(text))
		to := clamp(end.Char+1, from, len(text))
		return string(text[from:to])
	}

	pieces := make([]string, 0, end.Part-start.Part+1)
	head := a.texts[start.Part]
	pieces = append(pieces, string(head[clamp(start.Char, 0, len(head)):]))
	for i := start.Part + 1; i < end.Part; i++ {
		pieces = append(pieces, a.parts[i].Text)
	}
	tail := a.texts[end.Part]
	pieces = append(pieces, string(tail[:clamp(end.Char+1, 0, len(tail))]))

	kept := pieces[:0]
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// completeWords trims the text and removes trailing fragments: a final word
// shorter than three characters without sentence punctuation is dropped
// while more than one word remains.
func completeWords(text string) string {
	text = strings.TrimSpace(text)
	for {
		cut := strings.LastIndexFunc(text, unicode.IsSpace)
		if cut < 0 {
			return text
		}
		_, size := utf8.DecodeRuneInString(text[cut:])
		last := text[cut+size:]
		if utf8.RuneCountInString(last) >= 3 || strings.ContainsAny(last, ".!?;,") {
			return text
		}
		text = strings.TrimRightFunc(text[:cut], unicode.IsSpace)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
