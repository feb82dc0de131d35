package vision

// Direction selects which line crossings are counted. The direction is a
// fixed configuration choice for the lifetime of a run, never auto-detected.
type Direction string

const (
	DirectionDown Direction = "down" // previous above the line, current at or below
	DirectionUp   Direction = "up"   // previous below the line, current at or above
	DirectionBoth Direction = "both"
)

// DefaultLinePosition is the counting line as a fraction of frame height.
const DefaultLinePosition = 0.5

// CountEvent records the first counted crossing of one track. Events are
// immutable and appended exactly once per track; the running total is the
// cardinality of the event list, never a decrementable counter.
type CountEvent struct {
	TrackID    int64 `json:"track_id"`
	FrameIndex int   `json:"frame_index"`
}

// LineCounter counts tracks the first time they cross a fixed horizontal
// line in the configured direction. A track that jitters back and forth
// across the line is counted once: the Counted flag on the track is
// permanent.
type LineCounter struct {
	LineY     float64
	Direction Direction

	events []CountEvent
}

// NewLineCounter creates a counter for a line at the given pixel row.
func NewLineCounter(lineY float64, dir Direction) *LineCounter {
	if dir == "" {
		dir = DirectionBoth
	}
	return &LineCounter{LineY: lineY, Direction: dir}
}

// Observe inspects the tracks updated at frameIdx and appends a CountEvent
// for each track whose last step crossed the line in the counted direction
// and is not yet counted. A crossing is attributed to the frame where the
// side change is first observed. Tracks with fewer than two observations
// are never counted.
func (lc *LineCounter) Observe(frameIdx int, tracks []*Track) {
	for _, tr := range tracks {
		if tr.Counted || tr.LastSeen != frameIdx {
			continue
		}
		prev, ok := tr.PrevCentroid()
		if !ok {
			continue
		}
		curr := tr.Centroid()
		if !lc.crossed(prev.Y, curr.Y) {
			continue
		}
		tr.Counted = true
		lc.events = append(lc.events, CountEvent{TrackID: tr.ID, FrameIndex: frameIdx})
	}
}

// crossed reports whether a step from prevY to currY crosses the line in a
// counted direction. A point exactly on the line belongs to the side it is
// arriving at, so a slow item resting on the line is not counted twice.
func (lc *LineCounter) crossed(prevY, currY float64) bool {
	down := prevY < lc.LineY && currY >= lc.LineY
	up := prevY > lc.LineY && currY <= lc.LineY
	switch lc.Direction {
	case DirectionDown:
		return down
	case DirectionUp:
		return up
	default:
		return down || up
	}
}

// Count returns the number of count events so far.
func (lc *LineCounter) Count() int { return len(lc.events) }

// Events returns a copy of the count events in the order they occurred.
// Frame indices are non-decreasing because events append in frame order.
func (lc *LineCounter) Events() []CountEvent {
	out := make([]CountEvent, len(lc.events))
	copy(out, lc.events)
	return out
}
