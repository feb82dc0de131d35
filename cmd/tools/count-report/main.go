// Command count-report renders an HTML report for a stored run: the running
// count over frame index and a per-track speed summary chart.
//
// Usage:
//
//	count-report -db runs.db [-run <run_id>] [-out report.html]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/beltmetrics/conveyor.report/internal/runstore"
)

var (
	dbPath  = flag.String("db", "runs.db", "Run database path")
	runID   = flag.String("run", "", "Run id (default: most recent run)")
	outPath = flag.String("out", "report.html", "Output HTML path")
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

	page, err := buildReport(store, run)
	if err != nil {
		log.Fatalf("build report: %v", err)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create %s: %v", *outPath, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render report: %v", err)
	}
	log.Printf("wrote %s for run %s (%d items over %d frames)",
		*outPath, run.RunID, run.TotalCount, run.TotalFrames)
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

func buildReport(store *runstore.Store, run *runstore.Run) (*components.Page, error) {
	frames, counts, err := store.RunningCountByFrame(run.RunID)
	if err != nil {
		return nil, err
	}
	tracks, err := store.Tracks(run.RunID)
	if err != nil {
		return nil, err
	}

	countChart := charts.NewLine()
	countChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Running count",
			Subtitle: fmt.Sprintf("run %s (%s)", run.RunID, run.SourcePath),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "items"}),
	)
	xAxis := make([]string, 0, len(frames)+1)
	series := make([]opts.LineData, 0, len(counts)+1)
	for i := range frames {
		xAxis = append(xAxis, fmt.Sprintf("%d", frames[i]))
		series = append(series, opts.LineData{Value: counts[i]})
	}
	// Extend the line to the end of the run so the chart spans all frames.
	if run.TotalFrames > 0 {
		xAxis = append(xAxis, fmt.Sprintf("%d", run.TotalFrames-1))
		series = append(series, opts.LineData{Value: run.TotalCount})
	}
	countChart.SetXAxis(xAxis).AddSeries("count", series)

	speedChart := charts.NewBar()
	speedChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Track speeds (px/frame)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "track"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "speed"}),
	)
	trackAxis := make([]string, 0, len(tracks))
	p50 := make([]opts.BarData, 0, len(tracks))
	p95 := make([]opts.BarData, 0, len(tracks))
	for _, tr := range tracks {
		trackAxis = append(trackAxis, fmt.Sprintf("#%d", tr.TrackID))
		p50 = append(p50, opts.BarData{Value: tr.P50SpeedPx})
		p95 = append(p95, opts.BarData{Value: tr.P95SpeedPx})
	}
	speedChart.SetXAxis(trackAxis).
		AddSeries("p50", p50).
		AddSeries("p95", p95)

	page := components.NewPage()
	page.AddCharts(countChart, speedChart)
	return page, nil
}
