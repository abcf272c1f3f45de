package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/kikiluvv/lecturedeck/internal/metrics"
	"github.com/kikiluvv/lecturedeck/internal/video"
	"github.com/kikiluvv/lecturedeck/pkg/util"
	"github.com/nfnt/resize"
)

const manifestName = "manifest.json"

// Export writes one JPEG and one text file per page plus a manifest.json
// into outDir, which the PDF renderer consumes.
func (p *Pipeline) Export(ctx context.Context, project *Project, outDir string) (*Manifest, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	if outDir == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}
	if err := util.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	start := time.Now()
	logger := p.logger.With().Str("run_id", project.RunID).Logger()
	logger.Info().Str("output", outDir).Int("pages", len(project.Pages)).Msg("exporting pages")

	manifest := &Manifest{
		RunID:     project.RunID,
		Video:     project.VideoPath,
		Subtitles: project.SubtitlePath,
		Duration:  project.Duration.Seconds(),
		Width:     project.Info.Width,
		Height:    project.Info.Height,
		CreatedAt: project.CreatedAt,
		Pages:     make([]ManifestPage, 0, len(project.Pages)),
	}

	for _, page := range project.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		imageName := fmt.Sprintf("page_%03d.jpg", page.Index)
		textName := fmt.Sprintf("page_%03d.txt", page.Index)

		if page.Frame != nil {
			if err := p.writeImage(filepath.Join(outDir, imageName), page.Frame); err != nil {
				metrics.IncrementPipelineError("export")
				return nil, fmt.Errorf("page %d: %w", page.Index, err)
			}
		} else {
			imageName = ""
		}

		if err := os.WriteFile(filepath.Join(outDir, textName), []byte(page.Text+"\n"), 0644); err != nil {
			metrics.IncrementPipelineError("export")
			return nil, fmt.Errorf("page %d: failed to write text: %w", page.Index, err)
		}

		manifest.Pages = append(manifest.Pages, ManifestPage{
			Index:       page.Index,
			Start:       page.Start.Seconds(),
			End:         page.End.Seconds(),
			FrameNumber: page.FrameNumber,
			Image:       imageName,
			TextFile:    textName,
			Text:        page.Text,
			Synthesized: page.Synthesized,
		})

		logger.Debug().
			Int("page", page.Index).
			Str("image", imageName).
			Int("text_len", len(page.Text)).
			Msg("page written")
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, manifestName), data, 0644); err != nil {
		metrics.IncrementPipelineError("export")
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	metrics.ObserveStage("export", time.Since(start))
	logger.Info().Str("manifest", filepath.Join(outDir, manifestName)).Msg("export complete")

	return manifest, nil
}

// ReadManifest loads a bundle manifest written by Export
func ReadManifest(outDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outDir, manifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

func (p *Pipeline) writeImage(path string, frame *video.Frame) error {
	img := scaleToWidth(frame.Image(), p.config.Pages.MaxWidth)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: p.config.Pages.JPEGQuality}); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// scaleToWidth downsizes img to maxWidth keeping the aspect ratio. Smaller
// images and maxWidth 0 return img unchanged.
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	// Height 0 preserves the aspect ratio
	return resize.Resize(uint(maxWidth), 0, img, resize.Bilinear)
}
