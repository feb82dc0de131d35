package video

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/beltmetrics/conveyor.report/internal/vision"
)

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"25", 25},
		{"0/0", DefaultFPS},
		{"", DefaultFPS},
		{"garbage", DefaultFPS},
		{"-30/1", DefaultFPS},
	}
	for _, tc := range cases {
		if got := parseFrameRate(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func probeFromJSON(t *testing.T, raw string) probeInfo {
	t.Helper()
	var info probeInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		t.Fatalf("unmarshal probe fixture: %v", err)
	}
	return info
}

func TestMetaFromProbeDeclaredFrames(t *testing.T) {
	info := probeFromJSON(t, `{
		"streams": [{
			"codec_type": "video", "width": 1920, "height": 1080,
			"r_frame_rate": "30/1", "nb_frames": "900"
		}]
	}`)
	meta, err := metaFromProbe(info)
	if err != nil {
		t.Fatalf("metaFromProbe: %v", err)
	}
	want := vision.Meta{Width: 1920, Height: 1080, FPS: 30, TotalFrames: 900}
	if meta != want {
		t.Errorf("meta = %+v, want %+v", meta, want)
	}
}

func TestMetaFromProbeEstimatesFromDuration(t *testing.T) {
	info := probeFromJSON(t, `{
		"streams": [{
			"codec_type": "video", "width": 1280, "height": 720,
			"r_frame_rate": "25/1", "duration": "10.0"
		}]
	}`)
	meta, err := metaFromProbe(info)
	if err != nil {
		t.Fatalf("metaFromProbe: %v", err)
	}
	if meta.TotalFrames != 250 {
		t.Errorf("TotalFrames = %d, want 250 (25fps x 10s)", meta.TotalFrames)
	}
}

func TestMetaFromProbeFallsBackToFormatDuration(t *testing.T) {
	info := probeFromJSON(t, `{
		"streams": [{
			"codec_type": "video", "width": 640, "height": 480,
			"r_frame_rate": "30/1"
		}],
		"format": {"duration": "2.5"}
	}`)
	meta, err := metaFromProbe(info)
	if err != nil {
		t.Fatalf("metaFromProbe: %v", err)
	}
	if meta.TotalFrames != 75 {
		t.Errorf("TotalFrames = %d, want 75", meta.TotalFrames)
	}
}

func TestMetaFromProbeSkipsAudioStreams(t *testing.T) {
	info := probeFromJSON(t, `{
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "width": 320, "height": 240, "r_frame_rate": "15/1", "nb_frames": "30"}
		]
	}`)
	meta, err := metaFromProbe(info)
	if err != nil {
		t.Fatalf("metaFromProbe: %v", err)
	}
	if meta.Width != 320 || meta.Height != 240 {
		t.Errorf("meta = %+v, want the video stream geometry", meta)
	}
}

func TestMetaFromProbeNoVideoStream(t *testing.T) {
	info := probeFromJSON(t, `{"streams": [{"codec_type": "audio"}]}`)
	_, err := metaFromProbe(info)
	if !errors.Is(err, vision.ErrInput) {
		t.Errorf("err = %v, want ErrInput", err)
	}
}

func TestProbeMissingFile(t *testing.T) {
	_, err := Probe(context.Background(), "/nonexistent/belt.mp4")
	if !errors.Is(err, vision.ErrInput) {
		t.Errorf("err = %v, want ErrInput", err)
	}
}
