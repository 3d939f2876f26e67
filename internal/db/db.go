// Package db stores conversion runs and their decoded track points in SQLite.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/velocitek/vtk-protocol/internal/timeutil"
	"github.com/velocitek/vtk-protocol/internal/vtk"
)

// ErrRunNotFound is returned when a run ID has no conversion_runs row.
var ErrRunNotFound = errors.New("conversion run not found")

type DB struct {
	*sql.DB
	clock timeutil.Clock
}

// OpenDB opens the database at path without touching the schema.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, clock: timeutil.RealClock{}}, nil
}

// SetClock replaces the clock used to stamp new runs.
func (db *DB) SetClock(c timeutil.Clock) {
	db.clock = c
}

// NewDB opens the database at path and migrates it to the latest schema.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	// SQLite connections each carry their own pragma state.
	db.SetMaxOpenConns(1)
	for _, p := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

// ConversionRun summarises one stored conversion.
type ConversionRun struct {
	RunID       string
	SourcePath  string
	SourceBytes int64
	Frames      int
	Points      int
	Skipped     int
	Truncated   bool
	CreatedAt   time.Time
}

// RecordConversion stores res under a new run ID and returns the ID. The run
// row and all of its points are written in one transaction.
func (db *DB) RecordConversion(sourcePath string, sourceBytes int64, res *vtk.Result) (string, error) {
	runID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO conversion_runs (
			run_id, source_path, source_bytes, frames, points, skipped, truncated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, sourcePath, sourceBytes, res.Frames, len(res.Points), res.Skipped,
		res.Truncated, db.clock.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert conversion run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO track_points (
			run_id, seq, time_ns, latitude, longitude, sog, cog,
			q1, q2, q3, q4, mag_heading, heel, pitch
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("failed to prepare track point insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range res.Points {
		_, err := stmt.Exec(
			runID, i, p.Time.UnixNano(),
			nullable(p.Latitude), nullable(p.Longitude), nullable(p.SOG), nullable(p.COG),
			nullable(p.Q1), nullable(p.Q2), nullable(p.Q3), nullable(p.Q4),
			nullable(p.MagHeading), nullable(p.Heel), nullable(p.Pitch),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert track point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit conversion run: %w", err)
	}
	return runID, nil
}

// GetRun returns the summary row for runID.
func (db *DB) GetRun(runID string) (*ConversionRun, error) {
	row := db.QueryRow(
		`SELECT run_id, source_path, source_bytes, frames, points, skipped, truncated, created_at
		FROM conversion_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// ListRuns returns every stored run, newest first.
func (db *DB) ListRuns() ([]ConversionRun, error) {
	rows, err := db.Query(
		`SELECT run_id, source_path, source_bytes, frames, points, skipped, truncated, created_at
		FROM conversion_runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversion runs: %w", err)
	}
	defer rows.Close()

	var runs []ConversionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// TrackPoints returns the points of runID in their original order.
func (db *DB) TrackPoints(runID string) ([]vtk.Point, error) {
	rows, err := db.Query(
		`SELECT time_ns, latitude, longitude, sog, cog, q1, q2, q3, q4, mag_heading, heel, pitch
		FROM track_points WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track points: %w", err)
	}
	defer rows.Close()

	var points []vtk.Point
	for rows.Next() {
		var ns int64
		var f [11]sql.NullFloat64
		if err := rows.Scan(&ns, &f[0], &f[1], &f[2], &f[3], &f[4], &f[5], &f[6], &f[7], &f[8], &f[9], &f[10]); err != nil {
			return nil, fmt.Errorf("failed to scan track point: %w", err)
		}
		points = append(points, vtk.Point{
			Time:       time.Unix(0, ns).UTC(),
			Latitude:   orNaN(f[0]),
			Longitude:  orNaN(f[1]),
			SOG:        orNaN(f[2]),
			COG:        orNaN(f[3]),
			Q1:         orNaN(f[4]),
			Q2:         orNaN(f[5]),
			Q3:         orNaN(f[6]),
			Q4:         orNaN(f[7]),
			MagHeading: orNaN(f[8]),
			Heel:       orNaN(f[9]),
			Pitch:      orNaN(f[10]),
		})
	}
	return points, rows.Err()
}

// DeleteRun removes a run and, through the foreign key, its points.
func (db *DB) DeleteRun(runID string) error {
	res, err := db.Exec(`DELETE FROM conversion_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*ConversionRun, error) {
	var run ConversionRun
	var createdNs int64
	if err := s.Scan(&run.RunID, &run.SourcePath, &run.SourceBytes, &run.Frames, &run.Points,
		&run.Skipped, &run.Truncated, &createdNs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan conversion run: %w", err)
	}
	run.CreatedAt = time.Unix(0, createdNs).UTC()
	return &run, nil
}

// nullable stores NaN as NULL; SQLite has no NaN.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
