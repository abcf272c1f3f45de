package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kikiluvv/lecturedeck/pkg/util"
)

// ProbeVideo extracts metadata from a video file
func (e *Executor) ProbeVideo(ctx context.Context, filePath string) (*VideoInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	info, err := parseProbe(output)
	if err != nil {
		return nil, err
	}
	info.FilePath = filePath
	return info, nil
}

func parseProbe(output []byte) (*VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{}

	// Parse duration
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(dur * float64(time.Second))
	}

	// Parse bitrate
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = br
	}

	// Extract the first video stream
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width > 0 {
				continue
			}
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName

			// Prefer the average rate; r_frame_rate is the container tick rate
			info.FPS = util.ParseFrameRate(stream.AvgFrameRate)
			if info.FPS == 0 {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}
			if n, err := strconv.Atoi(stream.NbFrames); err == nil {
				info.FrameCount = n
			}
			if info.Duration == 0 {
				if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					info.Duration = time.Duration(dur * float64(time.Second))
				}
			}
		case "audio":
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
		}
	}

	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("no video stream found")
	}
	return info, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}
