package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kikiluvv/lecturedeck/internal/align"
	"github.com/kikiluvv/lecturedeck/internal/config"
	"github.com/kikiluvv/lecturedeck/internal/ffmpeg"
	"github.com/kikiluvv/lecturedeck/internal/logging"
	"github.com/kikiluvv/lecturedeck/internal/pipeline"
	"github.com/kikiluvv/lecturedeck/internal/segment"
	"github.com/kikiluvv/lecturedeck/internal/subtitles"
	"github.com/kikiluvv/lecturedeck/pkg/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	statsFile     string
	breaksFlag    string
	subtitlesFile string
	outDir        string
	forceInit     bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment [input video]",
	Short: "Detect slide boundaries in a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		res, err := pipe.Segment(cmd.Context(), args[0], statsFile != "")
		if err != nil {
			return err
		}

		if statsFile != "" {
			data, err := json.MarshalIndent(res.Stats, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal stats: %w", err)
			}
			if err := os.WriteFile(statsFile, data, 0644); err != nil {
				return fmt.Errorf("failed to write stats: %w", err)
			}
			cliLogger().Info().Str("path", statsFile).Int("frames", len(res.Stats)).Msg("frame stats written")
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"#", "Frame", "Time", "Changed px", "Note"},
			boundaryRows(res.Boundaries),
			[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft},
		))

		cliLogger().Info().
			Int("boundaries", len(res.Boundaries)).
			Int("detected", res.Detected).
			Int("frames", res.FramesRead).
			Dur("duration", res.Duration).
			Msg("segmentation complete")

		return nil
	},
}

var alignCmd = &cobra.Command{
	Use:   "align [subtitle file]",
	Short: "Split a transcript at the given break times",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		breaks, err := util.ParseMillis(breaksFlag)
		if err != nil {
			return err
		}
		if len(breaks) == 0 {
			return fmt.Errorf("--breaks requires at least one value")
		}

		parts, _, err := subtitles.ParseFile(args[0])
		if err != nil {
			return err
		}

		texts, err := align.New(log.Logger, parts).Align(breaks)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"#", "Break", "Text"},
			alignRows(breaks, texts),
			[]columnAlignment{alignRight, alignLeft, alignWrap},
		))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run [input video]",
	Short: "Detect slides, align subtitles and export the page bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if subtitlesFile == "" {
			return fmt.Errorf("--subtitles is required")
		}
		dir := outDir
		if dir == "" {
			dir = cfg.WorkDir
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		project, err := pipe.Analyze(cmd.Context(), args[0], subtitlesFile)
		if err != nil {
			return err
		}

		manifest, err := pipe.Export(cmd.Context(), project, dir)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"Page", "Start", "End", "Image", "Text"},
			pageRows(manifest),
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignWrap},
		))

		cliLogger().Info().
			Str("run_id", project.RunID).
			Str("output", dir).
			Int("pages", len(manifest.Pages)).
			Msg("run complete")

		return nil
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [input.srt] [output.vtt]",
	Short: "Convert SRT subtitles to WebVTT",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := subtitles.ConvertSRTToVTT(args[0], args[1])
		if err != nil {
			return err
		}
		cliLogger().Info().Str("input", args[0]).Str("output", args[1]).Int("cues", n).Msg("converted subtitles")
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [input video]",
	Short: "Show stream information for a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := ffmpeg.New(log.Logger, ffmpeg.Options{
			BinaryPath: cfg.FFmpeg.BinaryPath,
			ProbePath:  cfg.FFmpeg.ProbePath,
		})
		if err != nil {
			return err
		}

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"Property", "Value"},
			probeRows(info),
			[]columnAlignment{alignLeft, alignLeft},
		))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.FromContext(cmd.Context()).YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if util.FileExists(args[0]) && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", args[0])
		}
		if err := config.Default().Save(args[0]); err != nil {
			return err
		}
		cliLogger().Info().Str("path", args[0]).Msg("config written")
		return nil
	},
}

func init() {
	segmentCmd.Flags().StringVar(&statsFile, "stats", "", "write per-frame change statistics as JSON")

	alignCmd.Flags().StringVar(&breaksFlag, "breaks", "", "comma separated break times in milliseconds")
	_ = alignCmd.MarkFlagRequired("breaks")

	runCmd.Flags().StringVar(&subtitlesFile, "subtitles", "", "SRT or WebVTT transcript")
	runCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: work_dir)")

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// cliLogger returns the global logger tagged with component=cli
func cliLogger() *zerolog.Logger {
	logger := logging.WithComponent("cli")
	return &logger
}

func boundaryRows(boundaries []segment.Boundary) [][]string {
	rows := make([][]string, 0, len(boundaries))
	for i, b := range boundaries {
		note := ""
		if b.Synthesized {
			note = "synthesized"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(b.FrameNumber),
			util.FormatDuration(b.Timestamp),
			strconv.Itoa(b.PixelsChanged),
			note,
		})
	}
	return rows
}

func alignRows(breaks []time.Duration, texts []string) [][]string {
	rows := make([][]string, 0, len(texts))
	for i, text := range texts {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			util.FormatDuration(breaks[i]),
			text,
		})
	}
	return rows
}

func pageRows(m *pipeline.Manifest) [][]string {
	rows := make([][]string, 0, len(m.Pages))
	for _, p := range m.Pages {
		rows = append(rows, []string{
			strconv.Itoa(p.Index),
			util.FormatDuration(time.Duration(p.Start * float64(time.Second))),
			util.FormatDuration(time.Duration(p.End * float64(time.Second))),
			p.Image,
			p.Text,
		})
	}
	return rows
}

func probeRows(info *ffmpeg.VideoInfo) [][]string {
	audio := "none"
	if info.HasAudio {
		audio = info.AudioCodec
	}
	return [][]string{
		{"File", info.FilePath},
		{"Duration", util.FormatDuration(info.Duration)},
		{"Resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{"Frame rate", strconv.FormatFloat(info.FPS, 'f', 3, 64)},
		{"Frames", strconv.Itoa(info.StreamInfo().EstimatedFrames())},
		{"Video codec", info.VideoCodec},
		{"Bitrate", strconv.FormatInt(info.Bitrate, 10)},
		{"Audio", audio},
	}
}
