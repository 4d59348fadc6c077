package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/slactjohnson/pfts-overlap/internal/overlap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndLoadCurve(t *testing.T) {
	s := newTestStore(t)

	run := NewRun()
	run.Outcome = "ok"
	run.ZeroSec = 0.5e-12
	run.Curve = overlap.Curve{
		{DelaySec: -1e-12, Error: -1.5},
		{DelaySec: 0, Error: -0.5},
		{DelaySec: 1e-12, Error: 0.5},
	}

	if err := s.RecordRun(run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	got, err := s.LoadCurve(run.ID)
	if err != nil {
		t.Fatalf("LoadCurve failed: %v", err)
	}
	if diff := cmp.Diff(run.Curve, got, cmpopts.EquateApprox(0, 1e-18)); diff != "" {
		t.Errorf("curve mismatch (-want +got):\n%s", diff)
	}
}

func TestListRuns_MostRecentFirst(t *testing.T) {
	s := newTestStore(t)

	older := NewRun()
	older.StartedAt = time.Now().Add(-time.Hour)
	older.Outcome = "zero crossing outside measured range"
	newer := NewRun()
	newer.Outcome = "ok"
	newer.ZeroSec = 1e-12

	for _, r := range []*Run{older, newer} {
		if err := s.RecordRun(r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != newer.ID {
		t.Errorf("first run = %s, want most recent %s", runs[0].ID, newer.ID)
	}
	if runs[0].Outcome != "ok" || runs[0].ZeroSec != 1e-12 {
		t.Errorf("run fields not round-tripped: %+v", runs[0])
	}
}

func TestLoadCurve_UnknownRun(t *testing.T) {
	s := newTestStore(t)

	curve, err := s.LoadCurve("no-such-run")
	if err != nil {
		t.Fatalf("LoadCurve failed: %v", err)
	}
	if len(curve) != 0 {
		t.Errorf("got %d points for unknown run, want 0", len(curve))
	}
}
