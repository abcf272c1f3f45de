package segment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/kikiluvv/lecturedeck/internal/metrics"
	"github.com/kikiluvv/lecturedeck/internal/video"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrVideoUnreadable means the source could not be opened or decoded
	ErrVideoUnreadable = errors.New("video unreadable")
	// ErrEmptyVideo means the source produced no frames
	ErrEmptyVideo = errors.New("video has no frames")
)

// Config controls detection sensitivity and output size
type Config struct {
	PixelDiffThreshold int           // grayscale delta for a pixel to count as changed
	MinChangedPixels   int           // changed pixels for a frame pair to count as changed
	MinSegmentDuration time.Duration // minimum gap between adjacent boundaries
	MaxSegments        int           // cap on returned boundaries
	Workers            int           // concurrent frame diffs
	CollectStats       bool
}

func DefaultConfig() Config {
	return Config{
		PixelDiffThreshold: 50,
		MinChangedPixels:   200000,
		MinSegmentDuration: 15 * time.Second,
		MaxSegments:        10,
		Workers:            4,
	}
}

// Validate checks the configuration for values the finder cannot work with
func (c Config) Validate() error {
	if c.PixelDiffThreshold < 0 || c.PixelDiffThreshold > 255 {
		return fmt.Errorf("pixel diff threshold must be within 0-255, got %d", c.PixelDiffThreshold)
	}
	if c.MinChangedPixels < 0 {
		return fmt.Errorf("min changed pixels must not be negative, got %d", c.MinChangedPixels)
	}
	if c.MinSegmentDuration < 0 {
		return fmt.Errorf("min segment duration must not be negative, got %s", c.MinSegmentDuration)
	}
	if c.MaxSegments < 2 {
		return fmt.Errorf("max segments must be at least 2, got %d", c.MaxSegments)
	}
	return nil
}

// Boundary is a detected content change. Frame is the last frame before the
// transition and NextFrame the first one after it.
type Boundary struct {
	FrameNumber   int
	Timestamp     time.Duration
	Frame         *video.Frame
	NextFrame     *video.Frame
	Mask          *image.Gray
	PixelsChanged int
	Synthesized   bool
}

// FrameStat is the change measured for one sampled frame
type FrameStat struct {
	FrameNumber   int           `json:"frame_number"`
	Timestamp     time.Duration `json:"timestamp_ns"`
	PixelsChanged int           `json:"pixels_changed"`
	Changed       bool          `json:"changed"`
}

// Result holds the boundaries of one scan
type Result struct {
	Boundaries []Boundary
	Stats      []FrameStat
	Info       video.StreamInfo
	Duration   time.Duration
	FramesRead int
	Sampled    int
	Step       int
	Detected   int
}

// Finder detects slide changes in a frame stream
type Finder struct {
	logger zerolog.Logger
	config Config
}

// New creates a finder
func New(logger zerolog.Logger, cfg Config) (*Finder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid segment config: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Finder{
		logger: logger.With().Str("component", "segment-finder").Logger(),
		config: cfg,
	}, nil
}

// scanState is the running state of a single Find call
type scanState struct {
	window   StabilityWindow
	prev     *video.Frame
	first    *video.Frame
	mid      *video.Frame
	midIndex int
	raw      []Boundary
	stats    []FrameStat
	read     int
	sampled  int
}

// Find scans src in capture order and returns the post-processed boundaries.
// The source is read to the end but not closed.
func (f *Finder) Find(ctx context.Context, src video.FrameSource) (*Result, error) {
	info := src.Info()
	step := SampleStep(info)

	state := &scanState{midIndex: -1}
	if est := info.EstimatedFrames(); est > 0 {
		state.midIndex = est / 2
	}

	f.logger.Info().
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Dur("duration", info.Duration).
		Int("sample_step", step).
		Msg("scanning frames")

	batchSize := f.config.Workers * 8
	batch := make([]*video.Frame, 0, batchSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: frame %d: %w", ErrVideoUnreadable, state.read, err)
		}
		if err := frame.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVideoUnreadable, err)
		}

		n := state.read
		state.read++

		if n == state.midIndex {
			state.mid = frame.Clone()
			state.mid.Number = n
		}
		if n%step != 0 {
			continue
		}

		sample := frame.Clone()
		sample.Number = n
		if state.first == nil {
			state.first = sample
			state.prev = video.NewBlankFrame(sample.Width, sample.Height)
			state.prev.Number = -1
		}

		batch = append(batch, sample)
		if len(batch) == batchSize {
			if err := f.process(ctx, state, batch); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if err := f.process(ctx, state, batch); err != nil {
		return nil, err
	}
	metrics.AddFramesDecoded(state.read)
	metrics.AddFramesSampled(state.sampled)

	if state.read == 0 {
		return nil, ErrEmptyVideo
	}

	// Close the last slide with the final sampled frame
	state.raw = append(state.raw, Boundary{
		FrameNumber: state.prev.Number,
		Timestamp:   state.prev.Timestamp,
		Frame:       state.prev,
	})

	result := &Result{
		Stats:      state.stats,
		Info:       info,
		Duration:   info.Duration,
		FramesRead: state.read,
		Sampled:    state.sampled,
		Step:       step,
		Detected:   len(state.raw),
	}
	if end := info.TimestampOf(state.read); end > result.Duration {
		result.Duration = end
	}

	result.Boundaries = f.postProcess(state.raw)
	if len(result.Boundaries) < 2 {
		result.Boundaries = f.minimumPair(state)
		metrics.IncrementFallback()
	}

	metrics.RecordBoundaries(result.Detected, len(result.Boundaries))
	f.logger.Info().
		Int("frames", state.read).
		Int("sampled", state.sampled).
		Int("detected", result.Detected).
		Int("boundaries", len(result.Boundaries)).
		Msg("scan complete")

	return result, nil
}

// process diffs a batch of sampled frames concurrently, then walks the
// observations in order through the stability window.
func (f *Finder) process(ctx context.Context, state *scanState, batch []*video.Frame) error {
	if len(batch) == 0 {
		return nil
	}

	obs := make([]Observation, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Workers)

	for i := range batch {
		prev := state.prev
		if i > 0 {
			prev = batch[i-1]
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := Diff(prev, batch[i], f.config.PixelDiffThreshold)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrVideoUnreadable, err)
			}
			obs[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, cur := range batch {
		changed := obs[i].PixelsChanged > f.config.MinChangedPixels
		state.sampled++

		if f.config.CollectStats {
			state.stats = append(state.stats, FrameStat{
				FrameNumber:   cur.Number,
				Timestamp:     cur.Timestamp,
				PixelsChanged: obs[i].PixelsChanged,
				Changed:       changed,
			})
		}

		if changed && state.window.Stable() {
			state.raw = append(state.raw, Boundary{
				FrameNumber:   state.prev.Number,
				Timestamp:     state.prev.Timestamp,
				Frame:         state.prev,
				NextFrame:     cur,
				Mask:          obs[i].Mask,
				PixelsChanged: obs[i].PixelsChanged,
			})
			f.logger.Debug().
				Int("frame", state.prev.Number).
				Dur("timestamp", state.prev.Timestamp).
				Int("pixels_changed", obs[i].PixelsChanged).
				Msg("boundary detected")
		}

		state.window.Push(changed)
		state.prev = cur
	}
	return nil
}

// minimumPair synthesizes a start/midpoint split when detection found too little
func (f *Finder) minimumPair(state *scanState) []Boundary {
	mid := state.mid
	if mid == nil {
		mid = state.prev
	}

	start := Boundary{
		FrameNumber: state.first.Number,
		Timestamp:   state.first.Timestamp,
		Frame:       state.first,
		Synthesized: true,
	}
	if mid.Number == state.first.Number {
		f.logger.Warn().Msg("single frame video, returning one boundary")
		return []Boundary{start}
	}

	f.logger.Info().
		Int("mid_frame", mid.Number).
		Dur("mid_timestamp", mid.Timestamp).
		Msg("too few boundaries, using start and midpoint")

	return []Boundary{start, {
		FrameNumber: mid.Number,
		Timestamp:   mid.Timestamp,
		Frame:       mid,
		Synthesized: true,
	}}
}
