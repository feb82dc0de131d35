package vision

import (
	"math"
	"testing"
)

func det(x, y float64) Detection {
	return Detection{Centroid: Point{X: x, Y: y}, Area: 100}
}

func TestTrackerCreatesAndMatches(t *testing.T) {
	tk := NewTracker(DefaultTrackerConfig())

	live := tk.Update(0, []Detection{det(100, 50)})
	if len(live) != 1 {
		t.Fatalf("frame 0: %d live tracks, want 1", len(live))
	}
	if live[0].State != TrackNew {
		t.Errorf("fresh track state = %q, want %q", live[0].State, TrackNew)
	}
	if live[0].ID != 1 {
		t.Errorf("first track id = %d, want 1", live[0].ID)
	}

	live = tk.Update(1, []Detection{det(105, 60)})
	if len(live) != 1 {
		t.Fatalf("frame 1: %d live tracks, want 1", len(live))
	}
	tr := live[0]
	if tr.ID != 1 {
		t.Errorf("track id changed to %d across frames", tr.ID)
	}
	if tr.State != TrackActive {
		t.Errorf("matched track state = %q, want %q", tr.State, TrackActive)
	}
	if tr.LastSeen != 1 {
		t.Errorf("LastSeen = %d, want 1", tr.LastSeen)
	}
	if c := tr.Centroid(); c.X != 105 || c.Y != 60 {
		t.Errorf("centroid = %v, want (105, 60)", c)
	}
}

func TestTrackerRespectsMatchRadius(t *testing.T) {
	tk := NewTracker(TrackerConfig{MaxMatchDistance: 20, MaxMissedFrames: 3})
	tk.Update(0, []Detection{det(100, 100)})

	live := tk.Update(1, []Detection{det(100, 150)})
	if len(live) != 2 {
		t.Fatalf("%d live tracks, want 2 (far detection must start a new track)", len(live))
	}
	if live[0].State != TrackMissing {
		t.Errorf("unmatched track state = %q, want %q", live[0].State, TrackMissing)
	}
	if live[1].State != TrackNew {
		t.Errorf("far detection track state = %q, want %q", live[1].State, TrackNew)
	}
}

func TestTrackerGreedyClosestWins(t *testing.T) {
	tk := NewTracker(DefaultTrackerConfig())
	tk.Update(0, []Detection{det(0, 0), det(50, 0)})

	// One detection sits between the two tracks but closer to track 1.
	live := tk.Update(1, []Detection{det(20, 0)})
	tr1 := live[0]
	if tr1.ID != 1 || tr1.State != TrackActive {
		t.Fatalf("track 1 should win the shared detection, got id=%d state=%q", tr1.ID, tr1.State)
	}
	if live[1].State != TrackMissing {
		t.Errorf("track 2 state = %q, want %q", live[1].State, TrackMissing)
	}
}

func TestTrackerTieBreakByTrackID(t *testing.T) {
	tk := NewTracker(DefaultTrackerConfig())
	tk.Update(0, []Detection{det(0, 0), det(40, 0)})

	// Equidistant from both tracks: the lower id wins.
	live := tk.Update(1, []Detection{det(20, 0)})
	if live[0].ID != 1 || live[0].State != TrackActive {
		t.Errorf("tie should resolve to track 1, got id=%d state=%q", live[0].ID, live[0].State)
	}
	if live[1].State != TrackMissing {
		t.Errorf("track 2 state = %q, want %q", live[1].State, TrackMissing)
	}
}

func TestTrackerOrderIndependentMatching(t *testing.T) {
	run := func(dets []Detection) []int64 {
		tk := NewTracker(DefaultTrackerConfig())
		tk.Update(0, []Detection{det(0, 0), det(200, 0)})
		live := tk.Update(1, dets)
		ids := make([]int64, 0, len(live))
		for _, tr := range live {
			if tr.State == TrackActive {
				ids = append(ids, tr.ID)
			}
		}
		return ids
	}

	a := run([]Detection{det(5, 0), det(205, 0)})
	b := run([]Detection{det(205, 0), det(5, 0)})
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("matched counts differ: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("active track ids differ by detection order: %v vs %v", a, b)
		}
	}
}

func TestTrackerRemovalAfterMaxMisses(t *testing.T) {
	tk := NewTracker(TrackerConfig{MaxMatchDistance: 50, MaxMissedFrames: 3})
	tk.Update(0, []Detection{det(10, 10)})

	for frame := 1; frame <= 3; frame++ {
		live := tk.Update(frame, nil)
		if len(live) != 1 {
			t.Fatalf("frame %d: track removed too early", frame)
		}
		if live[0].State != TrackMissing {
			t.Fatalf("frame %d: state = %q, want %q", frame, live[0].State, TrackMissing)
		}
		if live[0].Missed != frame {
			t.Fatalf("frame %d: Missed = %d, want %d", frame, live[0].Missed, frame)
		}
	}

	live := tk.Update(4, nil)
	if len(live) != 0 {
		t.Fatalf("track still live after exceeding miss limit")
	}
	if tr := tk.Track(1); tr.State != TrackRemoved {
		t.Errorf("state = %q, want %q", tr.State, TrackRemoved)
	}
}

func TestTrackerRemovedTrackNeverRevives(t *testing.T) {
	tk := NewTracker(TrackerConfig{MaxMatchDistance: 50, MaxMissedFrames: 1})
	tk.Update(0, []Detection{det(10, 10)})
	tk.Update(1, nil)
	tk.Update(2, nil) // exceeds the miss limit

	live := tk.Update(3, []Detection{det(12, 12)})
	if len(live) != 1 {
		t.Fatalf("%d live tracks, want 1", len(live))
	}
	if live[0].ID == 1 {
		t.Error("removed track was revived; a new id must be allocated")
	}
	if live[0].ID != 2 {
		t.Errorf("new track id = %d, want 2", live[0].ID)
	}
}

func TestTrackerIDsNeverReused(t *testing.T) {
	tk := NewTracker(TrackerConfig{MaxMatchDistance: 10, MaxMissedFrames: 1})
	seen := map[int64]int{}
	for frame := 0; frame < 20; frame++ {
		// A detection far from the previous one each frame forces churn.
		x := float64(frame * 100)
		for _, tr := range tk.Update(frame, []Detection{det(x, 0)}) {
			seen[tr.ID]++
		}
	}
	all := tk.AllTracks()
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Fatalf("ids not strictly increasing: %d after %d", all[i].ID, all[i-1].ID)
		}
	}
}

func TestTrackerHistoryCapKeepsRecent(t *testing.T) {
	tk := NewTracker(TrackerConfig{MaxMatchDistance: 50, MaxMissedFrames: 5, MaxHistory: 4})
	for frame := 0; frame < 10; frame++ {
		tk.Update(frame, []Detection{det(float64(frame*5), 0)})
	}
	tr := tk.Track(1)
	if len(tr.History) != 4 {
		t.Fatalf("history length = %d, want 4", len(tr.History))
	}
	if c := tr.Centroid(); c.X != 45 {
		t.Errorf("latest centroid X = %v, want 45", c.X)
	}
	prev, ok := tr.PrevCentroid()
	if !ok || prev.X != 40 {
		t.Errorf("previous centroid X = %v, want 40", prev.X)
	}
}

func TestTrackerSpeedsAccumulate(t *testing.T) {
	tk := NewTracker(DefaultTrackerConfig())
	tk.Update(0, []Detection{det(0, 0)})
	tk.Update(1, []Detection{det(3, 4)})
	tk.Update(2, []Detection{det(3, 14)})

	tr := tk.Track(1)
	if len(tr.speeds) != 2 {
		t.Fatalf("speeds length = %d, want 2", len(tr.speeds))
	}
	if math.Abs(tr.speeds[0]-5) > 1e-9 || math.Abs(tr.speeds[1]-10) > 1e-9 {
		t.Errorf("speeds = %v, want [5 10]", tr.speeds)
	}
}

func TestLiveTracksAscendingOrder(t *testing.T) {
	tk := NewTracker(DefaultTrackerConfig())
	tk.Update(0, []Detection{det(0, 0), det(200, 0), det(400, 0)})
	live := tk.LiveTracks()
	if len(live) != 3 {
		t.Fatalf("%d live tracks, want 3", len(live))
	}
	for i, tr := range live {
		if tr.ID != int64(i+1) {
			t.Errorf("live[%d].ID = %d, want %d", i, tr.ID, i+1)
		}
	}
}
