// Package runstore persists completed pipeline runs — track summaries,
// track points, and count events — to a sqlite database for offline
// reporting. It is an analysis artifact store, not a job queue.
package runstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/beltmetrics/conveyor.report/internal/vision"
)

// Run outcomes recorded in the runs table.
const (
	OutcomeRunning   = "running"
	OutcomeDone      = "done"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Store wraps the sqlite connection for one database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run database at path and brings the
// schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run store %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Run is one row of the runs table.
type Run struct {
	RunID          string
	SourcePath     string
	OutputPath     string
	StartedAt      time.Time
	FinishedAt     time.Time
	Outcome        string
	TotalFrames    int
	TotalCount     int
	ItemsPerMinute float64
}

// BeginRun inserts a new run in state running and returns its id.
func (s *Store) BeginRun(sourcePath string, startedAt time.Time) (string, error) {
	runID := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, source_path, started_unix_nanos, outcome)
		VALUES (?, ?, ?, ?)`,
		runID, sourcePath, startedAt.UnixNano(), OutcomeRunning,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// FinishRun records the terminal outcome of a run. result may be nil for
// failed or cancelled runs; no count is ever fabricated for them.
func (s *Store) FinishRun(runID, outcome string, finishedAt time.Time, result *vision.Result) error {
	if result == nil {
		_, err := s.db.Exec(`
			UPDATE runs SET outcome = ?, finished_unix_nanos = ? WHERE run_id = ?`,
			outcome, finishedAt.UnixNano(), runID,
		)
		if err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE runs
		SET outcome = ?, finished_unix_nanos = ?, output_path = ?,
		    total_frames = ?, total_count = ?, items_per_minute = ?
		WHERE run_id = ?`,
		outcome, finishedAt.UnixNano(), result.OutputPath,
		result.TotalFrames, result.Count, result.ItemsPerMinute, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	for _, tr := range result.Tracks {
		_, err = tx.Exec(`
			INSERT INTO tracks (
				run_id, track_id, first_frame, last_frame, observations, counted,
				avg_speed_px, peak_speed_px, p50_speed_px, p85_speed_px, p95_speed_px
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, tr.TrackID, tr.FirstFrame, tr.LastFrame, tr.Observations, tr.Counted,
			tr.AvgSpeedPx, tr.PeakSpeedPx, tr.P50SpeedPx, tr.P85SpeedPx, tr.P95SpeedPx,
		)
		if err != nil {
			return fmt.Errorf("insert track %d: %w", tr.TrackID, err)
		}
	}

	for _, ev := range result.Events {
		_, err = tx.Exec(`
			INSERT INTO count_events (run_id, track_id, frame_idx) VALUES (?, ?, ?)`,
			runID, ev.TrackID, ev.FrameIndex,
		)
		if err != nil {
			return fmt.Errorf("insert count event for track %d: %w", ev.TrackID, err)
		}
	}

	return tx.Commit()
}

// InsertTrackPoint records one observed centroid. Called per association
// during the run when point persistence is enabled.
func (s *Store) InsertTrackPoint(runID string, trackID int64, frameIdx int, x, y float64) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO track_points (run_id, track_id, frame_idx, x, y)
		VALUES (?, ?, ?, ?, ?)`,
		runID, trackID, frameIdx, x, y,
	)
	if err != nil {
		return fmt.Errorf("insert track point: %w", err)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *Store) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, source_path, IFNULL(output_path, ''),
		       started_unix_nanos, IFNULL(finished_unix_nanos, 0),
		       outcome, total_frames, total_count, items_per_minute
		FROM runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// LatestRun fetches the most recently started run, or nil when the store is
// empty.
func (s *Store) LatestRun() (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, source_path, IFNULL(output_path, ''),
		       started_unix_nanos, IFNULL(finished_unix_nanos, 0),
		       outcome, total_frames, total_count, items_per_minute
		FROM runs ORDER BY started_unix_nanos DESC LIMIT 1`)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var started, finished int64
	err := row.Scan(&r.RunID, &r.SourcePath, &r.OutputPath,
		&started, &finished, &r.Outcome, &r.TotalFrames, &r.TotalCount, &r.ItemsPerMinute)
	if err != nil {
		return nil, err
	}
	r.StartedAt = time.Unix(0, started)
	if finished != 0 {
		r.FinishedAt = time.Unix(0, finished)
	}
	return &r, nil
}

// CountEvents returns a run's count events in frame order.
func (s *Store) CountEvents(runID string) ([]vision.CountEvent, error) {
	rows, err := s.db.Query(`
		SELECT track_id, frame_idx FROM count_events
		WHERE run_id = ? ORDER BY frame_idx ASC, track_id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query count events: %w", err)
	}
	defer rows.Close()

	var events []vision.CountEvent
	for rows.Next() {
		var ev vision.CountEvent
		if err := rows.Scan(&ev.TrackID, &ev.FrameIndex); err != nil {
			return nil, fmt.Errorf("scan count event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Tracks returns a run's track summaries in id order.
func (s *Store) Tracks(runID string) ([]vision.TrackSummary, error) {
	rows, err := s.db.Query(`
		SELECT track_id, first_frame, last_frame, observations, counted,
		       avg_speed_px, peak_speed_px, p50_speed_px, p85_speed_px, p95_speed_px
		FROM tracks WHERE run_id = ? ORDER BY track_id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []vision.TrackSummary
	for rows.Next() {
		var tr vision.TrackSummary
		err := rows.Scan(&tr.TrackID, &tr.FirstFrame, &tr.LastFrame, &tr.Observations,
			&tr.Counted, &tr.AvgSpeedPx, &tr.PeakSpeedPx,
			&tr.P50SpeedPx, &tr.P85SpeedPx, &tr.P95SpeedPx)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, tr)
	}
	return tracks, rows.Err()
}

// TrackPoints returns one track's observed centroids in frame order.
func (s *Store) TrackPoints(runID string, trackID int64) ([]TrackPoint, error) {
	rows, err := s.db.Query(`
		SELECT frame_idx, x, y FROM track_points
		WHERE run_id = ? AND track_id = ? ORDER BY frame_idx ASC`, runID, trackID)
	if err != nil {
		return nil, fmt.Errorf("query track points: %w", err)
	}
	defer rows.Close()

	var points []TrackPoint
	for rows.Next() {
		var p TrackPoint
		if err := rows.Scan(&p.FrameIdx, &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("scan track point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// TrackPoint is one observed centroid of one track.
type TrackPoint struct {
	FrameIdx int
	X        float64
	Y        float64
}

// RunningCountByFrame returns cumulative count per event frame for a run,
// suitable for a count-over-time chart.
func (s *Store) RunningCountByFrame(runID string) (frames []int, counts []int, err error) {
	events, err := s.CountEvents(runID)
	if err != nil {
		return nil, nil, err
	}
	for i, ev := range events {
		frames = append(frames, ev.FrameIndex)
		counts = append(counts, i+1)
	}
	return frames, counts, nil
}
