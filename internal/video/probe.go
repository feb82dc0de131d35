// Package video decodes input video into raster frames and encodes annotated
// frames back out, using ffmpeg/ffprobe over pipes so no cgo codec bindings
// are needed.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/beltmetrics/conveyor.report/internal/vision"
)

// DefaultFPS is assumed when the container does not declare a frame rate.
const DefaultFPS = 30.0

// probeInfo is the subset of `ffprobe -show_streams -show_format` output the
// decoder needs.
type probeInfo struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NBFrames   string `json:"nb_frames"`
		Duration   string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe inspects the first video stream of the file at path and returns its
// geometry and timing. Missing files and files without a decodable video
// stream report vision.ErrInput.
func Probe(ctx context.Context, path string) (vision.Meta, error) {
	if _, err := os.Stat(path); err != nil {
		return vision.Meta{}, fmt.Errorf("%w: %v", vision.ErrInput, err)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_streams",
		"-show_format",
		"-print_format", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return vision.Meta{}, fmt.Errorf("%w: ffprobe %s: %v", vision.ErrInput, path, err)
	}

	var info probeInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return vision.Meta{}, fmt.Errorf("%w: parse ffprobe output: %v", vision.ErrInput, err)
	}
	return metaFromProbe(info)
}

func metaFromProbe(info probeInfo) (vision.Meta, error) {
	for _, s := range info.Streams {
		if s.CodecType != "video" || s.Width <= 0 || s.Height <= 0 {
			continue
		}
		meta := vision.Meta{
			Width:  s.Width,
			Height: s.Height,
			FPS:    parseFrameRate(s.RFrameRate),
		}
		if n, err := strconv.Atoi(s.NBFrames); err == nil && n > 0 {
			meta.TotalFrames = n
		} else {
			// Some containers omit nb_frames; estimate from duration.
			dur := s.Duration
			if dur == "" {
				dur = info.Format.Duration
			}
			if secs, err := strconv.ParseFloat(dur, 64); err == nil && secs > 0 {
				meta.TotalFrames = int(math.Round(secs * meta.FPS))
			}
		}
		return meta, nil
	}
	return vision.Meta{}, fmt.Errorf("%w: no video stream found", vision.ErrInput)
}

// parseFrameRate parses ffprobe's rational frame rate (e.g. "30000/1001").
func parseFrameRate(r string) float64 {
	parts := strings.SplitN(r, "/", 2)
	if len(parts) == 2 {
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 == nil && err2 == nil && den > 0 && num > 0 {
			return num / den
		}
	}
	if v, err := strconv.ParseFloat(r, 64); err == nil && v > 0 {
		return v
	}
	return DefaultFPS
}
