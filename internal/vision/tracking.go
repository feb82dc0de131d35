package vision

import (
	"math"
	"sort"
)

// TrackState represents the lifecycle state of a track.
type TrackState string

const (
	TrackNew     TrackState = "new"     // created this frame, not yet re-observed
	TrackActive  TrackState = "active"  // matched in the current frame
	TrackMissing TrackState = "missing" // unmatched for 1..MaxMissedFrames frames
	TrackRemoved TrackState = "removed" // terminal
)

// Tracker defaults. The match radius and retirement threshold follow the
// tuning that works for well-separated items on a belt filmed at ~30fps.
const (
	DefaultMaxMatchDistance = 80.0
	DefaultMaxMissedFrames  = 15
	DefaultMaxHistory       = 64
)

// TrackerConfig holds the association and retirement parameters.
type TrackerConfig struct {
	MaxMatchDistance float64 // max centroid distance for an association (px)
	MaxMissedFrames  int     // consecutive misses before removal
	MaxHistory       int     // centroid history cap per track (min 2)
}

// DefaultTrackerConfig returns the default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MaxMatchDistance: DefaultMaxMatchDistance,
		MaxMissedFrames:  DefaultMaxMissedFrames,
		MaxHistory:       DefaultMaxHistory,
	}
}

// Track is the only entity whose identity persists across frames. IDs are
// allocated monotonically and never reused, even after removal. Once Counted
// is set it never reverts.
type Track struct {
	ID    int64
	State TrackState

	// History holds associated centroids in frame order, capped at
	// MaxHistory but always retaining at least the last two entries.
	History []Point

	FirstFrame int // frame index of creation
	LastSeen   int // frame index of the last successful association
	Missed     int // consecutive frames without an association
	Counted    bool

	// speeds accumulates per-association centroid displacement (px/frame)
	// for summary statistics.
	speeds []float64
}

// Centroid returns the track's last known position.
func (tr *Track) Centroid() Point {
	return tr.History[len(tr.History)-1]
}

// PrevCentroid returns the position before the most recent one, and false
// when the track has fewer than two observations.
func (tr *Track) PrevCentroid() (Point, bool) {
	if len(tr.History) < 2 {
		return Point{}, false
	}
	return tr.History[len(tr.History)-2], true
}

// Tracker associates per-frame detections with tracks carried over from
// previous frames using greedy nearest-neighbour matching on centroid
// distance. Greedy matching is a behaviour contract: it is cheap and
// sufficient for well-separated items, and swapping in an optimal
// assignment would change counting outcomes under occlusion.
type Tracker struct {
	Config TrackerConfig

	tracks map[int64]*Track
	order  []int64 // track ids in creation order, for deterministic iteration
	nextID int64
}

// NewTracker creates a tracker with the given configuration.
func NewTracker(config TrackerConfig) *Tracker {
	if config.MaxMatchDistance <= 0 {
		config.MaxMatchDistance = DefaultMaxMatchDistance
	}
	if config.MaxMissedFrames <= 0 {
		config.MaxMissedFrames = DefaultMaxMissedFrames
	}
	if config.MaxHistory < 2 {
		config.MaxHistory = DefaultMaxHistory
	}
	return &Tracker{
		Config: config,
		tracks: make(map[int64]*Track),
		nextID: 1,
	}
}

type candidate struct {
	dist    float64
	trackID int64
	detIdx  int
}

// Update associates the frame's detections with live tracks and advances
// every track's lifecycle. It returns the tracks that are live after this
// frame (states New, Active, and Missing) in ascending id order. The
// matching outcome is independent of detection ordering apart from the
// documented tie-break: pairs are taken in increasing distance, ties broken
// by ascending track id then ascending detection discovery order.
func (t *Tracker) Update(frameIdx int, detections []Detection) []*Track {
	// Pair every live track with every detection inside the match radius.
	var cands []candidate
	for _, id := range t.order {
		tr := t.tracks[id]
		if tr.State == TrackRemoved {
			continue
		}
		last := tr.Centroid()
		for di, det := range detections {
			d := euclidean(last, det.Centroid)
			if d > t.Config.MaxMatchDistance {
				continue
			}
			cands = append(cands, candidate{dist: d, trackID: id, detIdx: di})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		if cands[i].trackID != cands[j].trackID {
			return cands[i].trackID < cands[j].trackID
		}
		return cands[i].detIdx < cands[j].detIdx
	})

	matchedTrack := make(map[int64]bool)
	matchedDet := make(map[int]bool)
	for _, c := range cands {
		if matchedTrack[c.trackID] || matchedDet[c.detIdx] {
			continue
		}
		matchedTrack[c.trackID] = true
		matchedDet[c.detIdx] = true

		tr := t.tracks[c.trackID]
		prev := tr.Centroid()
		next := detections[c.detIdx].Centroid
		tr.History = append(tr.History, next)
		if len(tr.History) > t.Config.MaxHistory {
			tr.History = tr.History[len(tr.History)-t.Config.MaxHistory:]
		}
		tr.speeds = append(tr.speeds, euclidean(prev, next))
		tr.LastSeen = frameIdx
		tr.Missed = 0
		tr.State = TrackActive
	}

	// Age unmatched tracks.
	for _, id := range t.order {
		tr := t.tracks[id]
		if tr.State == TrackRemoved || matchedTrack[id] {
			continue
		}
		tr.Missed++
		if tr.Missed > t.Config.MaxMissedFrames {
			tr.State = TrackRemoved
		} else {
			tr.State = TrackMissing
		}
	}

	// Unmatched detections start new tracks in discovery order.
	for di, det := range detections {
		if matchedDet[di] {
			continue
		}
		tr := &Track{
			ID:         t.nextID,
			State:      TrackNew,
			History:    []Point{det.Centroid},
			FirstFrame: frameIdx,
			LastSeen:   frameIdx,
		}
		t.nextID++
		t.tracks[tr.ID] = tr
		t.order = append(t.order, tr.ID)
	}

	return t.LiveTracks()
}

// LiveTracks returns non-removed tracks in ascending id order.
func (t *Tracker) LiveTracks() []*Track {
	live := make([]*Track, 0, len(t.tracks))
	for _, id := range t.order {
		if tr := t.tracks[id]; tr.State != TrackRemoved {
			live = append(live, tr)
		}
	}
	return live
}

// AllTracks returns every track ever created, removed ones included, in
// ascending id order. Used for end-of-run reporting.
func (t *Tracker) AllTracks() []*Track {
	all := make([]*Track, 0, len(t.tracks))
	for _, id := range t.order {
		all = append(all, t.tracks[id])
	}
	return all
}

// Track returns a track by id, or nil when the id was never allocated.
func (t *Tracker) Track(id int64) *Track {
	return t.tracks[id]
}

func euclidean(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
