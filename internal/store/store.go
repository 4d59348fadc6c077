// Package store persists auto-overlap runs and their measured error curves
// to a local sqlite database for later commissioning analysis.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/slactjohnson/pfts-overlap/internal/overlap"
)

type Store struct {
	*sql.DB
}

// Run is one recorded auto-overlap attempt.
type Run struct {
	ID        string
	StartedAt time.Time
	Outcome   string // "ok" or the failure text
	ZeroSec   float64
	Curve     overlap.Curve
}

// NewRun starts a run record with a fresh identifier.
func NewRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// NewStore opens (creating if needed) the run database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS overlap_runs (
			run_id            TEXT PRIMARY KEY,
			started_at        TIMESTAMP,
			outcome           TEXT,
			zero_estimate     DOUBLE,
			point_count       BIGINT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS scan_points (
			run_id            TEXT,
			point_index       BIGINT,
			delay             DOUBLE,
			error             DOUBLE,
			FOREIGN KEY(run_id) REFERENCES overlap_runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

// RecordRun writes a run and its curve in one transaction.
func (s *Store) RecordRun(run *Run) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO overlap_runs (run_id, started_at, outcome, zero_estimate, point_count)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Outcome, run.ZeroSec, len(run.Curve),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for i, m := range run.Curve {
		_, err = tx.Exec(
			`INSERT INTO scan_points (run_id, point_index, delay, error) VALUES (?, ?, ?, ?)`,
			run.ID, i, m.DelaySec, m.Error,
		)
		if err != nil {
			return fmt.Errorf("failed to record scan point %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadCurve reads back the error curve recorded for a run, in scan order.
func (s *Store) LoadCurve(runID string) (overlap.Curve, error) {
	rows, err := s.Query(
		`SELECT delay, error FROM scan_points WHERE run_id = ? ORDER BY point_index`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan points: %w", err)
	}
	defer rows.Close()

	var curve overlap.Curve
	for rows.Next() {
		var m overlap.Measurement
		if err := rows.Scan(&m.DelaySec, &m.Error); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		curve = append(curve, m)
	}
	return curve, rows.Err()
}

// ListRuns returns recorded runs, most recent first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.Query(
		`SELECT run_id, started_at, outcome, zero_estimate FROM overlap_runs
		 ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Outcome, &r.ZeroSec); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
