package segment

import (
	"image/color"
	"testing"
	"time"

	"github.com/kikiluvv/lecturedeck/internal/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boundariesAt(seconds ...int) []Boundary {
	out := make([]Boundary, len(seconds))
	for i, s := range seconds {
		out[i] = Boundary{FrameNumber: s * 10, Timestamp: time.Duration(s) * time.Second}
	}
	return out
}

func timestamps(bs []Boundary) []time.Duration {
	out := make([]time.Duration, len(bs))
	for i, b := range bs {
		out[i] = b.Timestamp
	}
	return out
}

func TestFilterGlitchesComparesDetectedNeighbours(t *testing.T) {
	in := boundariesAt(0, 14, 28, 50, 51, 80)
	got := filterGlitches(in, 15*time.Second)

	// 14 and 28 each follow their neighbour too closely, as does 51
	assert.Equal(t, timestamps(boundariesAt(0, 50, 80)), timestamps(got))
	assert.Nil(t, filterGlitches(nil, time.Second))
}

func TestDownsampleKeepsFinalBoundary(t *testing.T) {
	in := make([]Boundary, 37)
	for i := range in {
		in[i] = Boundary{FrameNumber: i, Timestamp: time.Duration(i) * 20 * time.Second}
	}

	got := downsample(in, 10)
	require.Len(t, got, 10)

	want := []int{0, 3, 6, 9, 12, 15, 18, 21, 24, 36}
	for i, b := range got {
		assert.Equal(t, want[i], b.FrameNumber)
	}
}

func TestDownsampleSmallOverflow(t *testing.T) {
	got := downsample(boundariesAt(1, 2, 3, 4, 5), 4)
	assert.Equal(t, timestamps(boundariesAt(1, 2, 3, 5)), timestamps(got))

	same := boundariesAt(1, 2)
	assert.Equal(t, same, downsample(same, 4))
}

func TestStabilityWindow(t *testing.T) {
	var w StabilityWindow
	assert.True(t, w.Stable())

	w.Push(true)
	assert.False(t, w.Stable())

	for i := 0; i < WindowSize-1; i++ {
		w.Push(false)
		assert.False(t, w.Stable(), "change still inside the window after %d pushes", i+1)
	}
	w.Push(false)
	assert.True(t, w.Stable())
}

func TestDiff(t *testing.T) {
	a := video.NewBlankFrame(4, 2)
	b := video.NewBlankFrame(4, 2)
	b.Pix[0], b.Pix[1], b.Pix[2] = 255, 0, 255 // magenta pixel, green channel differs by 255
	b.Pix[3], b.Pix[4], b.Pix[5] = 235, 235, 235

	obs, err := Diff(a, b, 20)
	require.NoError(t, err)

	assert.Equal(t, 1, obs.PixelsChanged)
	assert.Equal(t, uint8(150), obs.Mask.Pix[0])
	assert.Equal(t, uint8(20), obs.Mask.Pix[1])
	assert.Equal(t, uint8(0), obs.Mask.Pix[2])

	obs, err = Diff(a, b, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, obs.PixelsChanged)

	_, err = Diff(a, video.NewFrame(2, 2), 10)
	assert.Error(t, err)
}

func TestDiffFullChange(t *testing.T) {
	a := video.NewFrame(3, 3)
	b := video.NewFrame(3, 3)
	b.Fill(color.RGBA{R: 100, G: 100, B: 100})

	obs, err := Diff(a, b, 50)
	require.NoError(t, err)
	assert.Equal(t, 9, obs.PixelsChanged)
}

func TestSampleStep(t *testing.T) {
	tests := []struct {
		fps      float64
		duration time.Duration
		want     int
	}{
		{30, 40 * time.Second, 7},
		{30, 10 * time.Minute, 15},
		{30, 31 * time.Minute, 30},
		{29.97, 10 * time.Minute, 14},
		{25, 60 * time.Second, 12},
		{25, 1800 * time.Second, 12},
		{2, 20 * time.Second, 1},
		{0, 0, 1},
	}

	for _, tt := range tests {
		got := SampleStep(video.StreamInfo{FPS: tt.fps, Duration: tt.duration})
		assert.Equal(t, tt.want, got, "fps=%v duration=%v", tt.fps, tt.duration)
	}
}
