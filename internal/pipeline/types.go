package pipeline

import (
	"time"

	"github.com/kikiluvv/lecturedeck/internal/segment"
	"github.com/kikiluvv/lecturedeck/internal/video"
)

// Project is the result of analysing one lecture recording
type Project struct {
	RunID        string
	VideoPath    string
	SubtitlePath string
	Info         video.StreamInfo
	Duration     time.Duration
	Pages        []Page
	Detected     int // raw boundaries before filtering
	CreatedAt    time.Time
}

// Page is one slide with the transcript spoken while it was shown
type Page struct {
	Index       int
	Start       time.Duration
	End         time.Duration
	FrameNumber int
	Frame       *video.Frame
	Text        string
	Synthesized bool
}

// Manifest describes an exported page bundle
type Manifest struct {
	RunID     string         `json:"run_id"`
	Video     string         `json:"video,omitempty"`
	Subtitles string         `json:"subtitles,omitempty"`
	Duration  float64        `json:"duration_seconds"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	CreatedAt time.Time      `json:"created_at"`
	Pages     []ManifestPage `json:"pages"`
}

type ManifestPage struct {
	Index       int     `json:"index"`
	Start       float64 `json:"start_seconds"`
	End         float64 `json:"end_seconds"`
	FrameNumber int     `json:"frame_number"`
	Image       string  `json:"image"`
	TextFile    string  `json:"text_file"`
	Text        string  `json:"text"`
	Synthesized bool    `json:"synthesized,omitempty"`
}

// breakTimes turns boundaries into aligner break times. The last break is
// pushed out to the end of the stream so the final page gets the tail of the
// transcript.
func breakTimes(boundaries []segment.Boundary, duration time.Duration) []time.Duration {
	breaks := make([]time.Duration, len(boundaries))
	for i, b := range boundaries {
		breaks[i] = b.Timestamp
	}
	if n := len(breaks); n > 0 && duration > breaks[n-1] {
		breaks[n-1] = duration
	}
	return breaks
}
