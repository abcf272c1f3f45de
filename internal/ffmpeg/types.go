package ffmpeg

import (
	"time"

	"github.com/kikiluvv/lecturedeck/internal/video"
)

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	FrameCount int
	Bitrate    int64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// StreamInfo converts the probe result into the decoder's view of the stream
func (v *VideoInfo) StreamInfo() video.StreamInfo {
	return video.StreamInfo{
		Width:      v.Width,
		Height:     v.Height,
		FPS:        v.FPS,
		FrameCount: v.FrameCount,
		Duration:   v.Duration,
	}
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}
