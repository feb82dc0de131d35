// Command conveyor processes a conveyor-belt video, counts items crossing
// the counting line, and writes an annotated copy of the video. Progress is
// emitted as JSON lines on stdout (one object per update, final result
// last); diagnostics go to stderr.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/beltmetrics/conveyor.report/internal/config"
	"github.com/beltmetrics/conveyor.report/internal/monitoring"
	"github.com/beltmetrics/conveyor.report/internal/runstore"
	"github.com/beltmetrics/conveyor.report/internal/version"
	"github.com/beltmetrics/conveyor.report/internal/video"
	"github.com/beltmetrics/conveyor.report/internal/vision"
)

var (
	output      = flag.String("output", "", "Path for the annotated output video (default <input>_processed.mp4)")
	linePos     = flag.Float64("line-pos", vision.DefaultLinePosition, "Counting line vertical position (0-1)")
	minArea     = flag.Int("min-area", vision.DefaultMinArea, "Minimum blob area in pixels²")
	direction   = flag.String("direction", string(vision.DirectionBoth), "Counted crossing direction: up, down, or both")
	configPath  = flag.String("config", "", "Optional JSON tuning file")
	dbPath      = flag.String("db", "", "Optional sqlite run database for reporting tools")
	noVideo     = flag.Bool("no-video", false, "Skip writing the annotated output video")
	noPrefetch  = flag.Bool("no-prefetch", false, "Disable one-frame decode prefetch")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <video>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("conveyor %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	videoPath := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, videoPath); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Fatalf("cancelled: %v", err)
		}
		log.Fatalf("processing failed: %v", err)
	}
}

func run(ctx context.Context, videoPath string) error {
	cfg := vision.DefaultConfig()
	cfg.LinePosition = *linePos
	cfg.MinArea = *minArea
	cfg.Direction = vision.Direction(*direction)

	if *configPath != "" {
		tuning, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			return fmt.Errorf("%w: %v", vision.ErrConfig, err)
		}
		tuning.Apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reader, err := video.OpenReader(ctx, videoPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	var source vision.FrameSource = reader
	if !*noPrefetch {
		source = video.NewPrefetcher(reader)
		defer source.Close()
	}

	outputPath := *output
	if outputPath == "" {
		ext := filepath.Ext(videoPath)
		outputPath = strings.TrimSuffix(videoPath, ext) + "_processed.mp4"
	}

	var writer *video.Writer
	pipe := &vision.Pipeline{
		Config: cfg,
		Source: source,
		Progress: func(p vision.Progress) {
			emitJSON(p)
		},
	}
	if !*noVideo {
		writer, err = video.OpenWriter(ctx, outputPath, reader.Meta())
		if err != nil {
			return err
		}
		pipe.Sink = writer
		pipe.OutputPath = outputPath
	}

	var store *runstore.Store
	var runID string
	if *dbPath != "" {
		store, err = runstore.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err = store.BeginRun(videoPath, time.Now())
		if err != nil {
			return err
		}
		pipe.OnFrame = func(frameIdx int, detections []vision.Detection, live []*vision.Track) {
			for _, tr := range live {
				if tr.LastSeen != frameIdx {
					continue
				}
				c := tr.Centroid()
				if err := store.InsertTrackPoint(runID, tr.ID, frameIdx, c.X, c.Y); err != nil {
					monitoring.Logf("track point persist failed: %v", err)
				}
			}
		}
	}

	result, err := pipe.Run(ctx)
	if err != nil {
		if writer != nil {
			writer.Abort()
		}
		if store != nil {
			outcome := runstore.OutcomeFailed
			if errors.Is(err, context.Canceled) {
				outcome = runstore.OutcomeCancelled
			}
			if ferr := store.FinishRun(runID, outcome, time.Now(), nil); ferr != nil {
				monitoring.Logf("run record update failed: %v", ferr)
			}
		}
		return err
	}

	if store != nil {
		if err := store.FinishRun(runID, runstore.OutcomeDone, time.Now(), result); err != nil {
			return err
		}
	}

	emitJSON(result)
	return nil
}

func emitJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		monitoring.Logf("marshal progress: %v", err)
		return
	}
	fmt.Println(string(data))
}
