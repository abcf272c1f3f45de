package video

import (
	"io"
	"time"
)

// StreamInfo describes a decoded video stream
type StreamInfo struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
	Duration   time.Duration
}

// EstimatedFrames returns the frame count, falling back to duration*fps
// when the container does not report one.
func (s StreamInfo) EstimatedFrames() int {
	if s.FrameCount > 0 {
		return s.FrameCount
	}
	if s.FPS > 0 && s.Duration > 0 {
		return int(s.Duration.Seconds() * s.FPS)
	}
	return 0
}

// TimestampOf returns the presentation time of frame n
func (s StreamInfo) TimestampOf(n int) time.Duration {
	if s.FPS <= 0 {
		return 0
	}
	ms := float64(n) * 1000 / s.FPS
	return time.Duration(ms * float64(time.Millisecond)).Round(time.Millisecond)
}

// FrameSource yields frames in capture order. Next returns io.EOF after the
// last frame. The returned frame is only valid until the following call.
type FrameSource interface {
	Info() StreamInfo
	Next() (*Frame, error)
	Close() error
}

// SliceSource serves pre-decoded frames from memory
type SliceSource struct {
	info   StreamInfo
	frames []*Frame
	pos    int
}

// NewSliceSource wraps frames; Number and Timestamp are filled in from info
// when they are left zero.
func NewSliceSource(info StreamInfo, frames []*Frame) *SliceSource {
	for i, f := range frames {
		if f.Number == 0 {
			f.Number = i
		}
		if f.Timestamp == 0 {
			f.Timestamp = info.TimestampOf(i)
		}
	}
	if info.FrameCount == 0 {
		info.FrameCount = len(frames)
	}
	return &SliceSource{info: info, frames: frames}
}

func (s *SliceSource) Info() StreamInfo { return s.info }

func (s *SliceSource) Next() (*Frame, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *SliceSource) Close() error { return nil }

// RenderFunc paints frame n into dst
type RenderFunc func(n int, dst *Frame)

// GeneratedSource renders frames on demand into a single reused buffer.
// It behaves like a streaming decoder and is handy for long synthetic videos.
type GeneratedSource struct {
	info   StreamInfo
	render RenderFunc
	buf    *Frame
	next   int
}

// NewGeneratedSource creates a source of info.FrameCount frames
func NewGeneratedSource(info StreamInfo, render RenderFunc) *GeneratedSource {
	if info.Duration == 0 && info.FPS > 0 {
		info.Duration = info.TimestampOf(info.FrameCount)
	}
	return &GeneratedSource{
		info:   info,
		render: render,
		buf:    NewFrame(info.Width, info.Height),
	}
}

func (g *GeneratedSource) Info() StreamInfo { return g.info }

func (g *GeneratedSource) Next() (*Frame, error) {
	if g.next >= g.info.FrameCount {
		return nil, io.EOF
	}
	g.buf.Number = g.next
	g.buf.Timestamp = g.info.TimestampOf(g.next)
	g.render(g.next, g.buf)
	g.next++
	return g.buf, nil
}

func (g *GeneratedSource) Close() error { return nil }
