package vision

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TrackSummary is the end-of-run report for one track.
type TrackSummary struct {
	TrackID      int64   `json:"track_id"`
	FirstFrame   int     `json:"first_frame"`
	LastFrame    int     `json:"last_frame"`
	Observations int     `json:"observations"`
	Counted      bool    `json:"counted"`
	AvgSpeedPx   float64 `json:"avg_speed_px"`
	PeakSpeedPx  float64 `json:"peak_speed_px"`
	P50SpeedPx   float64 `json:"p50_speed_px"`
	P85SpeedPx   float64 `json:"p85_speed_px"`
	P95SpeedPx   float64 `json:"p95_speed_px"`
}

// Summarize reduces a track to its reportable statistics. Speeds are
// centroid displacement per associated frame, in pixels.
func Summarize(tr *Track) TrackSummary {
	s := TrackSummary{
		TrackID:      tr.ID,
		FirstFrame:   tr.FirstFrame,
		LastFrame:    tr.LastSeen,
		Observations: len(tr.speeds) + 1,
		Counted:      tr.Counted,
	}
	if len(tr.speeds) == 0 {
		return s
	}
	speeds := make([]float64, len(tr.speeds))
	copy(speeds, tr.speeds)
	sort.Float64s(speeds)

	s.AvgSpeedPx = stat.Mean(speeds, nil)
	s.PeakSpeedPx = speeds[len(speeds)-1]
	s.P50SpeedPx = stat.Quantile(0.50, stat.Empirical, speeds, nil)
	s.P85SpeedPx = stat.Quantile(0.85, stat.Empirical, speeds, nil)
	s.P95SpeedPx = stat.Quantile(0.95, stat.Empirical, speeds, nil)
	return s
}

// ItemsPerMinute converts a final count into a throughput rate given the
// processed frame count and source frame rate. Returns 0 when either is
// unknown.
func ItemsPerMinute(count, totalFrames int, fps float64) float64 {
	if totalFrames <= 0 || fps <= 0 {
		return 0
	}
	seconds := float64(totalFrames) / fps
	return float64(count) / seconds * 60
}
