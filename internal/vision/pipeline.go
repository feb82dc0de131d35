package vision

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/beltmetrics/conveyor.report/internal/monitoring"
)

// Result is the final outcome of a successful run. It is only produced when
// every frame decoded and every annotated frame was written; a fatal error
// never yields a fabricated count.
type Result struct {
	Count          int            `json:"count"`
	TotalFrames    int            `json:"total_frames"`
	OutputPath     string         `json:"output_path,omitempty"`
	ItemsPerMinute float64        `json:"items_per_minute"`
	Events         []CountEvent   `json:"events"`
	Tracks         []TrackSummary `json:"tracks"`
}

// Pipeline processes one video sequentially: motion segmentation, mask
// cleanup, blob extraction, tracking, line-crossing counting, annotation.
// Frames are strictly ordered; the tracker and background model are owned by
// exactly one run and discarded afterwards.
type Pipeline struct {
	Config   Config
	Source   FrameSource
	Sink     FrameSink // optional; nil skips annotation output
	Progress ProgressFunc

	// OutputPath is reported in the Result when a Sink is set.
	OutputPath string

	// OnFrame, when set, observes per-frame pipeline state after counting.
	// Used by persistence and debug consumers.
	OnFrame func(frameIdx int, detections []Detection, live []*Track)
}

// Run executes the pipeline to completion, cancellation, or the first fatal
// error. Cancellation is checked at each frame boundary so at most one
// frame's work is wasted; the returned error satisfies
// errors.Is(err, context.Canceled) in that case and no Result is produced.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if p.Source == nil {
		return nil, fmt.Errorf("%w: no frame source", ErrInput)
	}

	meta := p.Source.Meta()
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("%w: source reports %dx%d frames", ErrInput, meta.Width, meta.Height)
	}

	lineY := p.Config.LinePosition * float64(meta.Height)

	model := NewBackgroundModel(meta.Width, meta.Height, p.Config.Background)
	tracker := NewTracker(p.Config.Tracker)
	counter := NewLineCounter(lineY, p.Config.Direction)
	emitter := NewEmitter(meta.TotalFrames, p.Progress)
	emitter.EmitEvery = p.Config.EmitEvery
	emitter.MinInterval = p.Config.MinEmitInterval

	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			monitoring.Logf("pipeline aborted at frame %d: %v", frames, err)
			return nil, fmt.Errorf("run cancelled after %d frames: %w", frames, err)
		}

		frame, err := p.Source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Cancellation usually lands while blocked in the decoder;
			// the killed process surfaces as a decode error, but the run
			// was cancelled, not broken.
			if cerr := ctx.Err(); cerr != nil {
				monitoring.Logf("pipeline aborted at frame %d: %v", frames, cerr)
				return nil, fmt.Errorf("run cancelled after %d frames: %w", frames, cerr)
			}
			return nil, err
		}

		gray := BlurGray(Grayscale(frame.Image), p.Config.Background.BlurSigma)
		mask := model.Update(gray)
		mask = Clean(mask, p.Config.KernelRadius)
		detections := ExtractBlobs(mask, p.Config.MinArea)

		live := tracker.Update(frame.Index, detections)
		counter.Observe(frame.Index, live)

		if p.OnFrame != nil {
			p.OnFrame(frame.Index, detections, live)
		}

		if p.Sink != nil {
			annotated := Annotate(frame, detections, live, int(lineY), counter.Count())
			if err := p.Sink.Write(annotated); err != nil {
				return nil, fmt.Errorf("%w: frame %d: %v", ErrOutput, frame.Index, err)
			}
		}

		frames++
		last := meta.TotalFrames > 0 && frames == meta.TotalFrames
		emitter.Frame(frame.Index, counter.Count(), last)
	}

	if frames == 0 {
		return nil, fmt.Errorf("%w: video contains no frames", ErrInput)
	}
	// Sources with no frame-count estimate only know the end at EOF.
	if meta.TotalFrames <= 0 || frames != meta.TotalFrames {
		emitter.total = frames
		emitter.Frame(frames-1, counter.Count(), true)
	}

	if p.Sink != nil {
		if err := p.Sink.Close(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOutput, err)
		}
	}

	all := tracker.AllTracks()
	summaries := make([]TrackSummary, 0, len(all))
	for _, tr := range all {
		summaries = append(summaries, Summarize(tr))
	}

	res := &Result{
		Count:          counter.Count(),
		TotalFrames:    frames,
		OutputPath:     p.OutputPath,
		ItemsPerMinute: ItemsPerMinute(counter.Count(), frames, meta.FPS),
		Events:         counter.Events(),
		Tracks:         summaries,
	}
	monitoring.Logf("pipeline complete: %d frames, %d items", frames, res.Count)
	return res, nil
}
