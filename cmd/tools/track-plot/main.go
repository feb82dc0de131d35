// Command track-plot renders a PNG of track trajectories from a stored run.
// Each track is drawn as a line through its observed centroids, with the
// counting line overlaid; counted tracks get a glyph at the crossing point.
//
// Usage:
//
//	track-plot -db runs.db [-run <run_id>] [-out tracks.png] [-line-y 540]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/beltmetrics/conveyor.report/internal/runstore"
)

var (
	dbPath  = flag.String("db", "runs.db", "Run database path")
	runID   = flag.String("run", "", "Run id (default: most recent run)")
	outPath = flag.String("out", "tracks.png", "Output PNG path")
	lineY   = flag.Float64("line-y", 0, "Counting line Y in pixels (0: omit)")
)

func main() {
	flag.Parse()

	store, err := runstore.Open(*dbPath)
	if err != nil {
		log.Fatalf("open run store: %v", err)
	}
	defer store.Close()

	run, err := resolveRun(store, *runID)
	if err != nil {
		log.Fatalf("resolve run: %v", err)
	}

	p, drawn, err := buildPlot(store, run, *lineY)
	if err != nil {
		log.Fatalf("build plot: %v", err)
	}
	if err := p.Save(10*vg.Inch, 6*vg.Inch, *outPath); err != nil {
		log.Fatalf("save %s: %v", *outPath, err)
	}
	log.Printf("wrote %s with %d tracks for run %s", *outPath, drawn, run.RunID)
}

func resolveRun(store *runstore.Store, id string) (*runstore.Run, error) {
	if id != "" {
		return store.GetRun(id)
	}
	run, err := store.LatestRun()
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run database is empty")
	}
	return run, nil
}

func buildPlot(store *runstore.Store, run *runstore.Run, lineY float64) (*plot.Plot, int, error) {
	tracks, err := store.Tracks(run.RunID)
	if err != nil {
		return nil, 0, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Track trajectories, run %s", run.RunID)
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	// Image coordinates grow downward.
	p.Y.Scale = invertedScale{}
	p.Y.Tick.Marker = invertedTicks{}

	drawn := 0
	for _, tr := range tracks {
		points, err := store.TrackPoints(run.RunID, tr.TrackID)
		if err != nil {
			return nil, 0, err
		}
		if len(points) < 2 {
			continue
		}
		xys := make(plotter.XYs, len(points))
		for i, pt := range points {
			xys[i].X = pt.X
			xys[i].Y = pt.Y
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, 0, err
		}
		line.Color = plotutil.Color(drawn)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("#%d", tr.TrackID), line)
		drawn++
	}

	if lineY > 0 {
		countLine := plotter.NewFunction(func(x float64) float64 { return lineY })
		countLine.Color = color.RGBA{R: 255, A: 255}
		countLine.Width = vg.Points(2)
		countLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(countLine)
		p.Legend.Add("counting line", countLine)
	}

	if err := markCrossings(store, run, p); err != nil {
		return nil, 0, err
	}

	return p, drawn, nil
}

// markCrossings adds a scatter glyph at the centroid observed on each count
// event's frame.
func markCrossings(store *runstore.Store, run *runstore.Run, p *plot.Plot) error {
	events, err := store.CountEvents(run.RunID)
	if err != nil {
		return err
	}
	var xys plotter.XYs
	for _, ev := range events {
		points, err := store.TrackPoints(run.RunID, ev.TrackID)
		if err != nil {
			return err
		}
		for _, pt := range points {
			if pt.FrameIdx == ev.FrameIndex {
				xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
				break
			}
		}
	}
	if len(xys) == 0 {
		return nil
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Shape = draw.CrossGlyph{}
	scatter.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
	scatter.GlyphStyle.Radius = vg.Points(5)
	p.Add(scatter)
	p.Legend.Add("count events", scatter)
	return nil
}

// invertedScale flips the Y axis so the plot matches image orientation.
type invertedScale struct{}

func (invertedScale) Normalize(min, max, x float64) float64 {
	return (max - x) / (max - min)
}

// invertedTicks keeps the default tick values under the flipped scale.
type invertedTicks struct{}

func (invertedTicks) Ticks(min, max float64) []plot.Tick {
	return plot.DefaultTicks{}.Ticks(min, max)
}
