package vision

import (
	"math"
	"time"

	"github.com/beltmetrics/conveyor.report/internal/timeutil"
)

// DefaultEmitEvery is the default progress cadence in frames.
const DefaultEmitEvery = 10

// Progress is one progress notification. Percent is monotonically
// non-decreasing over a run and reaches exactly 100 on the final frame when
// the total frame count is known.
type Progress struct {
	FrameIndex   int `json:"frame"`
	TotalFrames  int `json:"total"`
	Percent      int `json:"progress"`
	RunningCount int `json:"count"`
}

// ProgressFunc consumes progress notifications during a run.
type ProgressFunc func(Progress)

// Emitter throttles progress notifications to every EmitEvery frames and,
// optionally, to at most one per MinInterval of wall-clock time. The final
// frame always emits regardless of throttling. Cadence is a tunable, not a
// correctness property; monotonic percent is.
type Emitter struct {
	EmitEvery   int
	MinInterval time.Duration
	Clock       timeutil.Clock

	fn       ProgressFunc
	total    int
	lastEmit time.Time
	lastPct  int
}

// NewEmitter creates an emitter for a run over total frames. fn may be nil,
// in which case nothing is emitted. totalFrames may be zero when the source
// cannot estimate it; percent then stays at zero.
func NewEmitter(totalFrames int, fn ProgressFunc) *Emitter {
	return &Emitter{
		EmitEvery: DefaultEmitEvery,
		Clock:     timeutil.RealClock{},
		fn:        fn,
		total:     totalFrames,
	}
}

// Frame reports completion of the frame at frameIdx with the running count.
// final forces emission for the last frame of the run.
func (e *Emitter) Frame(frameIdx, runningCount int, final bool) {
	if e.fn == nil {
		return
	}
	every := e.EmitEvery
	if every <= 0 {
		every = 1
	}
	if !final {
		if (frameIdx+1)%every != 0 {
			return
		}
		if e.MinInterval > 0 && !e.lastEmit.IsZero() && e.Clock.Since(e.lastEmit) < e.MinInterval {
			return
		}
	}

	pct := e.percent(frameIdx, final)
	if pct < e.lastPct {
		pct = e.lastPct
	}
	e.lastPct = pct
	e.lastEmit = e.Clock.Now()
	e.fn(Progress{
		FrameIndex:   frameIdx,
		TotalFrames:  e.total,
		Percent:      pct,
		RunningCount: runningCount,
	})
}

func (e *Emitter) percent(frameIdx int, final bool) int {
	if e.total <= 0 {
		if final {
			return 100
		}
		return 0
	}
	pct := int(math.Round(100 * float64(frameIdx+1) / float64(e.total)))
	if pct > 100 {
		pct = 100
	}
	if final {
		pct = 100
	}
	return pct
}
