package segment

import (
	"math"
	"time"

	"github.com/kikiluvv/lecturedeck/internal/video"
)

const (
	shortVideo = 60 * time.Second
	longVideo  = 1800 * time.Second
)

// SampleStep returns how many decoded frames to advance between comparisons.
// Short videos get ~4 samples per second, long ones ~1, everything else ~2.
func SampleStep(info video.StreamInfo) int {
	fps := int(math.Floor(info.FPS))

	var step int
	switch {
	case info.Duration < shortVideo:
		step = fps / 4
	case info.Duration > longVideo:
		step = fps
	default:
		step = fps / 2
	}

	if step < 1 {
		return 1
	}
	return step
}
