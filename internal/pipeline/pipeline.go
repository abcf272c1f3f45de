package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kikiluvv/lecturedeck/internal/align"
	"github.com/kikiluvv/lecturedeck/internal/config"
	"github.com/kikiluvv/lecturedeck/internal/ffmpeg"
	"github.com/kikiluvv/lecturedeck/internal/metrics"
	"github.com/kikiluvv/lecturedeck/internal/segment"
	"github.com/kikiluvv/lecturedeck/internal/subtitles"
	"github.com/kikiluvv/lecturedeck/internal/video"
	"github.com/rs/zerolog"
)

// Pipeline orchestrates slide detection, transcript alignment and export
type Pipeline struct {
	logger zerolog.Logger
	config *config.Config
	ffmpeg *ffmpeg.Executor
	finder *segment.Finder
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	// Initialize ffmpeg executor
	ffmpegExec, err := ffmpeg.New(logger, ffmpeg.Options{
		BinaryPath: cfg.FFmpeg.BinaryPath,
		ProbePath:  cfg.FFmpeg.ProbePath,
		Threads:    cfg.FFmpeg.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return newPipeline(logger, cfg, ffmpegExec)
}

func newPipeline(logger zerolog.Logger, cfg *config.Config, exec *ffmpeg.Executor) (*Pipeline, error) {
	finder, err := segment.New(logger, SegmentConfig(cfg))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		config: cfg,
		ffmpeg: exec,
		finder: finder,
	}, nil
}

// SegmentConfig maps application config onto finder settings
func SegmentConfig(cfg *config.Config) segment.Config {
	sc := segment.DefaultConfig()
	sc.PixelDiffThreshold = cfg.Segments.PixelDiffThreshold
	sc.MinChangedPixels = cfg.Segments.MinChangedPixels
	sc.MinSegmentDuration = cfg.Segments.MinSegmentDuration
	sc.MaxSegments = cfg.Segments.MaxSegments
	if cfg.Concurrency > 0 {
		sc.Workers = cfg.Concurrency
	}
	return sc
}

// Segment decodes a video file and returns its slide boundaries
func (p *Pipeline) Segment(ctx context.Context, videoPath string, collectStats bool) (*segment.Result, error) {
	if videoPath == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}

	finder := p.finder
	if collectStats {
		sc := SegmentConfig(p.config)
		sc.CollectStats = true
		f, err := segment.New(p.logger, sc)
		if err != nil {
			return nil, err
		}
		finder = f
	}

	return p.segment(ctx, finder, videoPath)
}

func (p *Pipeline) segment(ctx context.Context, finder *segment.Finder, videoPath string) (*segment.Result, error) {
	if p.ffmpeg == nil {
		return nil, fmt.Errorf("%w: no decoder configured", segment.ErrVideoUnreadable)
	}

	start := time.Now()
	stream, err := p.ffmpeg.DecodeFrames(ctx, videoPath)
	if err != nil {
		metrics.IncrementPipelineError("decode")
		return nil, fmt.Errorf("%w: %w", segment.ErrVideoUnreadable, err)
	}
	defer stream.Close()

	res, err := finder.Find(ctx, stream)
	if err != nil {
		metrics.IncrementPipelineError("segment")
		return nil, fmt.Errorf("failed to find segments: %w", err)
	}
	metrics.ObserveStage("segment", time.Since(start))

	return res, nil
}

// Analyze runs detection on videoPath and aligns the transcript in
// subtitlePath to the detected slides
func (p *Pipeline) Analyze(ctx context.Context, videoPath, subtitlePath string) (*Project, error) {
	p.logger.Info().
		Str("video", videoPath).
		Str("subtitles", subtitlePath).
		Msg("starting analysis pipeline")

	parts, format, err := subtitles.ParseFile(subtitlePath)
	if err != nil {
		metrics.IncrementPipelineError("subtitles")
		return nil, fmt.Errorf("failed to load subtitles: %w", err)
	}
	if err := subtitles.Validate(parts); err != nil {
		// Overlapping cues still align; report and carry on
		p.logger.Warn().Err(err).Msg("subtitle timing issues")
	}

	p.logger.Info().
		Str("format", string(format)).
		Int("parts", len(parts)).
		Dur("transcript_duration", subtitles.TotalDuration(parts)).
		Msg("subtitles loaded")

	res, err := p.segment(ctx, p.finder, videoPath)
	if err != nil {
		return nil, err
	}

	project, err := p.buildProject(res, parts)
	if err != nil {
		return nil, err
	}
	project.VideoPath = videoPath
	project.SubtitlePath = subtitlePath

	return project, nil
}

// AnalyzeSource runs the same analysis over an already opened frame source
func (p *Pipeline) AnalyzeSource(ctx context.Context, src video.FrameSource, parts []subtitles.Part) (*Project, error) {
	start := time.Now()
	res, err := p.finder.Find(ctx, src)
	if err != nil {
		metrics.IncrementPipelineError("segment")
		return nil, fmt.Errorf("failed to find segments: %w", err)
	}
	metrics.ObserveStage("segment", time.Since(start))

	return p.buildProject(res, parts)
}

func (p *Pipeline) buildProject(res *segment.Result, parts []subtitles.Part) (*Project, error) {
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()

	start := time.Now()
	breaks := breakTimes(res.Boundaries, res.Duration)
	texts, err := align.New(logger, parts).Align(breaks)
	if err != nil {
		metrics.IncrementPipelineError("align")
		if errors.Is(err, align.ErrInvalidBreakOrder) {
			return nil, fmt.Errorf("boundaries out of order: %w", err)
		}
		return nil, fmt.Errorf("failed to align transcript: %w", err)
	}
	metrics.ObserveStage("align", time.Since(start))

	project := &Project{
		RunID:     runID,
		Info:      res.Info,
		Duration:  res.Duration,
		Detected:  res.Detected,
		Pages:     make([]Page, len(res.Boundaries)),
		CreatedAt: time.Now(),
	}

	var prev time.Duration
	for i, b := range res.Boundaries {
		project.Pages[i] = Page{
			Index:       i + 1,
			Start:       prev,
			End:         breaks[i],
			FrameNumber: b.FrameNumber,
			Frame:       b.Frame,
			Text:        texts[i],
			Synthesized: b.Synthesized,
		}
		prev = breaks[i]
	}

	logger.Info().
		Int("pages", len(project.Pages)).
		Int("detected", project.Detected).
		Dur("duration", project.Duration).
		Msg("analysis pipeline complete")

	return project, nil
}
