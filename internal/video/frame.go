package video

import (
	"fmt"
	"image"
	"image/color"
	"time"
)

// Frame is a decoded RGB24 raster with its capture time.
// Pix holds Height rows of Width*3 bytes.
type Frame struct {
	Number    int
	Timestamp time.Duration
	Width     int
	Height    int
	Pix       []byte
}

// NewFrame allocates a zeroed (black) frame
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*3),
	}
}

// NewBlankFrame returns a white frame, used as the reference before the first sample
func NewBlankFrame(width, height int) *Frame {
	f := NewFrame(width, height)
	for i := range f.Pix {
		f.Pix[i] = 0xff
	}
	return f
}

// Clone returns a deep copy. Sources are free to reuse their buffers, so
// anything held past the next read must be cloned.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{
		Number:    f.Number,
		Timestamp: f.Timestamp,
		Width:     f.Width,
		Height:    f.Height,
		Pix:       pix,
	}
}

// Validate checks that the pixel buffer matches the dimensions
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height*3 {
		return fmt.Errorf("frame %d: pixel buffer is %d bytes, want %d",
			f.Number, len(f.Pix), f.Width*f.Height*3)
	}
	return nil
}

// Fill paints the whole frame with one color
func (f *Frame) Fill(c color.RGBA) {
	f.FillRect(image.Rect(0, 0, f.Width, f.Height), c)
}

// FillRect paints the rectangle r (clipped to the frame) with one color
func (f *Frame) FillRect(r image.Rectangle, c color.RGBA) {
	r = r.Intersect(image.Rect(0, 0, f.Width, f.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * f.Width * 3
		for x := r.Min.X; x < r.Max.X; x++ {
			i := row + x*3
			f.Pix[i] = c.R
			f.Pix[i+1] = c.G
			f.Pix[i+2] = c.B
		}
	}
}

// Image converts the frame into an image.RGBA for encoding or scaling
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for src, dst := 0, 0; src+2 < len(f.Pix); src, dst = src+3, dst+4 {
		img.Pix[dst] = f.Pix[src]
		img.Pix[dst+1] = f.Pix[src+1]
		img.Pix[dst+2] = f.Pix[src+2]
		img.Pix[dst+3] = 0xff
	}
	return img
}
