package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/kikiluvv/lecturedeck/internal/video"
	"github.com/rs/zerolog"
)

const stderrTailLines = 20

// FrameStream decodes a video to raw RGB24 frames through an ffmpeg
// subprocess. It implements video.FrameSource; the returned frame buffer is
// reused for every call to Next.
type FrameStream struct {
	logger zerolog.Logger
	info   video.StreamInfo
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc

	buf  *video.Frame
	next int

	stderrDone chan struct{}
	mu         sync.Mutex
	tail       []string

	closeOnce sync.Once
	waited    bool
}

// DecodeFrames probes input and starts decoding its first video stream
func (e *Executor) DecodeFrames(ctx context.Context, input string) (*FrameStream, error) {
	info, err := e.ProbeVideo(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	e.logger.Info().
		Str("input", input).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Int("frames", info.FrameCount).
		Dur("duration", info.Duration).
		Msg("starting frame decode")

	args := append(e.baseArgs(),
		"-i", input,
		"-map", "0:v:0",
		"-an", "-sn",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	s := &FrameStream{
		logger:     e.logger,
		info:       info.StreamInfo(),
		cmd:        cmd,
		stdout:     stdout,
		cancel:     cancel,
		buf:        video.NewFrame(info.Width, info.Height),
		stderrDone: make(chan struct{}),
	}

	go func() {
		defer close(s.stderrDone)
		e.streamOutput(stderr, s.onProgress, s.onLog)
	}()

	return s, nil
}

func (s *FrameStream) onProgress(p *Progress) {
	s.logger.Debug().
		Int("frame", p.Frame).
		Float64("fps", p.FPS).
		Str("time", p.Time).
		Str("speed", p.Speed).
		Msg("decode progress")
}

func (s *FrameStream) onLog(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tail = append(s.tail, line)
	if len(s.tail) > stderrTailLines {
		s.tail = s.tail[len(s.tail)-stderrTailLines:]
	}
}

func (s *FrameStream) stderrTail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.tail, "\n")
}

// Info returns the probed stream description
func (s *FrameStream) Info() video.StreamInfo {
	return s.info
}

// Next reads the next frame, returning io.EOF once ffmpeg exits cleanly
func (s *FrameStream) Next() (*video.Frame, error) {
	if s.waited {
		return nil, io.EOF
	}

	_, err := io.ReadFull(s.stdout, s.buf.Pix)
	switch {
	case err == nil:
		s.buf.Number = s.next
		s.buf.Timestamp = s.info.TimestampOf(s.next)
		s.next++
		return s.buf, nil
	case errors.Is(err, io.EOF):
		if werr := s.wait(); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		werr := s.wait()
		return nil, fmt.Errorf("truncated frame %d: %w", s.next, errors.Join(err, werr))
	default:
		return nil, fmt.Errorf("read frame %d: %w", s.next, err)
	}
}

// wait reaps the process after stdout is drained
func (s *FrameStream) wait() error {
	s.waited = true
	<-s.stderrDone
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode failed: %w\n%s", err, s.stderrTail())
	}
	s.logger.Debug().Int("frames", s.next).Msg("decode finished")
	return nil
}

// Close stops the decoder. It is safe to call after Next returned io.EOF.
func (s *FrameStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.waited {
			return
		}
		s.waited = true
		s.stdout.Close()
		<-s.stderrDone
		// The process was killed; its exit status carries no information
		_ = s.cmd.Wait()
	})
	return nil
}
