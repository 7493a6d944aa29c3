package database

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestTeamRepositoryUpsertAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	id, err := repo.UpsertTeam(Team{
		Name:          "pistons",
		TeamID:        "8",
		League:        "nba",
		Sport:         "basketball",
		ChannelID:     "detroit-pistons",
		Enabled:       true,
		LookaheadDays: 7,
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("Expected non-empty id")
	}

	team, err := repo.GetTeam("pistons")
	if err != nil {
		t.Fatal(err)
	}
	if team == nil {
		t.Fatal("Expected team, got nil")
	}
	if team.ChannelID != "detroit-pistons" {
		t.Errorf("Expected channel 'detroit-pistons', got '%s'", team.ChannelID)
	}

	// Upsert again with a changed channel keeps the same row.
	id2, err := repo.UpsertTeam(Team{
		Name:      "pistons",
		TeamID:    "8",
		League:    "nba",
		Sport:     "basketball",
		ChannelID: "pistons-hd",
		Enabled:   false,
	})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id {
		t.Errorf("Expected stable id %s, got %s", id, id2)
	}

	team, err = repo.GetTeam("pistons")
	if err != nil {
		t.Fatal(err)
	}
	if team.ChannelID != "pistons-hd" {
		t.Errorf("Expected updated channel 'pistons-hd', got '%s'", team.ChannelID)
	}
	if team.Enabled {
		t.Error("Expected team to be disabled after update")
	}

	count, err := repo.GetTeamCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 team, got %d", count)
	}
}

func TestTeamRepositoryGetMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	team, err := repo.GetTeam("nope")
	if err != nil {
		t.Fatal(err)
	}
	if team != nil {
		t.Errorf("Expected nil for missing team, got %+v", team)
	}
}

func TestFingerprintRepositoryReplaceAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewFingerprintRepository(db)

	first := map[FingerprintKey]string{
		{ChannelID: "detroit-pistons", Start: "2025-11-19T00:30:00Z"}: "aaa",
		{ChannelID: "detroit-pistons", Start: "2025-11-21T00:00:00Z"}: "bbb",
	}
	if err := repo.ReplaceAll(first); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 fingerprints, got %d", len(got))
	}
	if got[FingerprintKey{ChannelID: "detroit-pistons", Start: "2025-11-19T00:30:00Z"}] != "aaa" {
		t.Error("Expected stored fingerprint 'aaa'")
	}

	// A replace drops keys that are no longer present.
	second := map[FingerprintKey]string{
		{ChannelID: "detroit-pistons", Start: "2025-11-21T00:00:00Z"}: "ccc",
	}
	if err := repo.ReplaceAll(second); err != nil {
		t.Fatal(err)
	}

	got, err = repo.GetAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 fingerprint after replace, got %d", len(got))
	}

	count, err := repo.GetFingerprintCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}
}

func TestRunRepositoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewRunRepository(db)

	run := &GenerationRun{
		ID:            "run-1",
		Status:        RunStatusQueued,
		LookaheadDays: 7,
		StartedAt:     time.Date(2025, 11, 18, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.InsertRun(run); err != nil {
		t.Fatal(err)
	}

	finished := run.StartedAt.Add(42 * time.Second)
	run.Status = RunStatusComplete
	run.FinishedAt = &finished
	run.TotalUnits = 3
	run.Succeeded = 2
	run.Failed = 1
	run.Message = "2 of 3 teams succeeded, 1 failed"
	run.Outcomes = []UnitOutcome{
		{Unit: "pistons", Status: OutcomeSuccess, Entries: 4},
		{Unit: "hawks", Status: OutcomeSuccess, Entries: 3},
		{Unit: "bulls", Status: OutcomeFailed, Detail: "fetch timeout"},
	}
	if err := repo.FinalizeRun(run); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetRun("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("Expected run, got nil")
	}
	if got.Status != RunStatusComplete {
		t.Errorf("Expected complete status, got %s", got.Status)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("Expected finished_at %v, got %v", finished, got.FinishedAt)
	}
	if len(got.Outcomes) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(got.Outcomes))
	}
	if got.Outcomes[2].Detail != "fetch timeout" {
		t.Errorf("Expected failure detail to survive round trip, got %q", got.Outcomes[2].Detail)
	}

	last, err := repo.GetLastRun()
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.ID != "run-1" {
		t.Errorf("Expected last run 'run-1', got %+v", last)
	}

	runs, err := repo.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 run in history, got %d", len(runs))
	}
}

func TestRunRepositoryGetMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewRunRepository(db)

	run, err := repo.GetRun("nope")
	if err != nil {
		t.Fatal(err)
	}
	if run != nil {
		t.Errorf("Expected nil for missing run, got %+v", run)
	}
}
