package segment

import (
	"fmt"
	"image"

	"github.com/kikiluvv/lecturedeck/internal/video"
)

// Observation is the result of diffing two sampled frames
type Observation struct {
	PixelsChanged int
	Mask          *image.Gray
}

// Diff computes the per-channel absolute difference of two frames, converts
// it to grayscale and counts pixels brighter than threshold.
func Diff(prev, cur *video.Frame, threshold int) (Observation, error) {
	if prev.Width != cur.Width || prev.Height != cur.Height {
		return Observation{}, fmt.Errorf("frame %d is %dx%d, previous frame is %dx%d",
			cur.Number, cur.Width, cur.Height, prev.Width, prev.Height)
	}
	if len(prev.Pix) != len(cur.Pix) {
		return Observation{}, fmt.Errorf("frame %d: pixel buffer length mismatch", cur.Number)
	}

	mask := image.NewGray(image.Rect(0, 0, cur.Width, cur.Height))
	changed := 0
	for src, dst := 0, 0; src+2 < len(cur.Pix); src, dst = src+3, dst+1 {
		r := absDiff(prev.Pix[src], cur.Pix[src])
		g := absDiff(prev.Pix[src+1], cur.Pix[src+1])
		b := absDiff(prev.Pix[src+2], cur.Pix[src+2])

		// ITU-R BT.601 luma, integer weights
		gray := (299*r + 587*g + 114*b + 500) / 1000
		mask.Pix[dst] = uint8(gray)
		if gray > threshold {
			changed++
		}
	}

	return Observation{PixelsChanged: changed, Mask: mask}, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
