package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Options selects the binaries and thread count used by the executor
type Options struct {
	BinaryPath string // ffmpeg; looked up in PATH when empty
	ProbePath  string // ffprobe; looked up in PATH when empty
	Threads    int
}

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	ffmpegPath, err := resolveBinary(opts.BinaryPath, "ffmpeg")
	if err != nil {
		return nil, err
	}

	ffprobePath, err := resolveBinary(opts.ProbePath, "ffprobe")
	if err != nil {
		return nil, err
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
	}, nil
}

func resolveBinary(configured, name string) (string, error) {
	if configured == "" {
		configured = name
	}
	path, err := exec.LookPath(configured)
	if err != nil {
		return "", fmt.Errorf("%s not found (%s): %w", name, configured, err)
	}
	return path, nil
}

// baseArgs are prepended to every ffmpeg invocation
func (e *Executor) baseArgs() []string {
	// Build args with threads BEFORE other arguments
	args := []string{"-y", "-hide_banner", "-nostdin", "-loglevel", "info"}

	if e.threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", e.threads))
	}

	return append(args, "-progress", "pipe:2")
}

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	args := append(e.baseArgs(), opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	// Stream stderr (progress + logs)
	go func() {
		defer wg.Done()
		e.streamOutput(stderr, opts.ProgressHandler, opts.LogHandler)
	}()

	// Stream stdout
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

// streamOutput parses ffmpeg output and calls handlers
func (e *Executor) streamOutput(r io.Reader, progressHandler ProgressFunc, logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		// Parse progress lines
		switch {
		case strings.HasPrefix(line, "frame="):
			fmt.Sscanf(line, "frame=%d", &progressData.Frame)
		case strings.HasPrefix(line, "fps="):
			fmt.Sscanf(line, "fps=%f", &progressData.FPS)
		case strings.HasPrefix(line, "bitrate="):
			progressData.Bitrate = progressValue(line)
		case strings.HasPrefix(line, "out_time="):
			progressData.Time = progressValue(line)
		case strings.HasPrefix(line, "speed="):
			progressData.Speed = progressValue(line)
		case strings.HasPrefix(line, "progress="):
			// End of progress block
			if progressHandler != nil && progressData.Frame > 0 {
				progressHandler(progressData)
			}
			progressData = &Progress{}
		default:
			if logHandler != nil {
				logHandler(line)
			}
		}
	}
}

func progressValue(line string) string {
	_, value, _ := strings.Cut(line, "=")
	return strings.TrimSpace(value)
}
