package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestMigrate(t *testing.T) {
	d := testDB(t)

	for _, table := range []string{"schema_version", "runs", "boost_events"} {
		var name string
		err := d.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	// Migrate again should be idempotent
	if err := d.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var count int
	if err := d.conn.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		t.Fatalf("count schema_version: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 schema_version row, got %d", count)
	}
}

func TestRunLifecycle(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := d.StartRun(ctx, Run{RunID: "r1", Project: "proj", RepoPath: "/src/proj", Branch: "feat/repoboost", StartedAt: started}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	events := []BoostEvent{
		{RunID: "r1", Project: "proj", Boost: "gitignore", Event: "applied", Checkpoint: "abc", DurationMs: 12},
		{RunID: "r1", Project: "proj", Boost: "uv", Event: "skipped", Reason: "uv is not installed"},
		{RunID: "r1", Project: "proj", Boost: "ruff", Event: "failed", Reason: "exit code 1"},
	}
	for _, e := range events {
		if err := d.LogBoostEvent(ctx, e); err != nil {
			t.Fatalf("LogBoostEvent: %v", err)
		}
	}
	if err := d.FinishRun(ctx, "r1", "aborted", "ruff", "exit code 1"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := d.ListRuns(ctx, "proj", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.Result != "aborted" || r.FailedBoost != "ruff" {
		t.Errorf("run = %+v", r)
	}
	if !r.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", r.StartedAt, started)
	}
	if r.FinishedAt == nil {
		t.Error("FinishedAt should be set")
	}

	got, err := d.ListBoostEvents(ctx, "r1")
	if err != nil {
		t.Fatalf("ListBoostEvents: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Boost != "gitignore" || got[0].Checkpoint != "abc" || got[0].DurationMs != 12 {
		t.Errorf("event[0] = %+v", got[0])
	}
	if got[1].Reason != "uv is not installed" {
		t.Errorf("event[1].Reason = %q", got[1].Reason)
	}
}

func TestListRunsFiltersAndOrders(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_ = d.StartRun(ctx, Run{RunID: "a1", Project: "a", RepoPath: "/a", Branch: "b", StartedAt: base})
	_ = d.StartRun(ctx, Run{RunID: "a2", Project: "a", RepoPath: "/a", Branch: "b", StartedAt: base.Add(time.Hour)})
	_ = d.StartRun(ctx, Run{RunID: "b1", Project: "b", RepoPath: "/b", Branch: "b", StartedAt: base})

	runs, err := d.ListRuns(ctx, "a", 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "a2" {
		t.Errorf("expected newest first for project a, got %+v", runs)
	}

	all, _ := d.ListRuns(ctx, "", 0)
	if len(all) != 3 {
		t.Errorf("expected 3 runs overall, got %d", len(all))
	}
	if all[0].Result != "" {
		t.Errorf("unfinished run should have empty result, got %q", all[0].Result)
	}
}

func TestListRunsOrdersSubsecondStarts(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// 500ms and 500.01ms render as ".5" and ".50001" without zero padding.
	_ = d.StartRun(ctx, Run{RunID: "older", Project: "p", RepoPath: "/p", Branch: "b", StartedAt: base.Add(500 * time.Millisecond)})
	_ = d.StartRun(ctx, Run{RunID: "newer", Project: "p", RepoPath: "/p", Branch: "b", StartedAt: base.Add(500*time.Millisecond + 10*time.Microsecond)})

	runs, err := d.ListRuns(ctx, "p", 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "newer" {
		t.Fatalf("expected newer run first, got %+v", runs)
	}
	if !runs[1].StartedAt.Equal(base.Add(500 * time.Millisecond)) {
		t.Errorf("StartedAt round trip = %v", runs[1].StartedAt)
	}
}

func TestLogBoostEventRejectsUnknownEvent(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	_ = d.StartRun(ctx, Run{RunID: "r1", Project: "p", RepoPath: "/p", Branch: "b", StartedAt: time.Now()})

	if err := d.LogBoostEvent(ctx, BoostEvent{RunID: "r1", Project: "p", Boost: "x", Event: "exploded"}); err == nil {
		t.Error("expected CHECK constraint failure for unknown event")
	}
}

func TestReset(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	_ = d.StartRun(ctx, Run{RunID: "r1", Project: "p", RepoPath: "/p", Branch: "b", StartedAt: time.Now()})

	if err := d.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	runs, err := d.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs after reset, got %d", len(runs))
	}
}
