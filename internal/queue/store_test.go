package queue_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"soundcheck/internal/queue"
)

func newStore(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAssignsCorrelationID(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Add(ctx, "/tmp/track.f32", 44100, 2, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if job.CorrelationID == "" {
		t.Fatal("expected correlation id")
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("status = %q, want pending", job.Status)
	}
	if job.SampleRate != 44100 || job.Channels != 2 {
		t.Fatalf("job = %+v", job)
	}

	found, err := store.GetByCorrelationID(ctx, job.CorrelationID)
	if err != nil {
		t.Fatalf("GetByCorrelationID: %v", err)
	}
	if found == nil || found.ID != job.ID {
		t.Fatalf("lookup by correlation id returned %+v", found)
	}
}

func TestNextPendingClaimsOldestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Add(ctx, "/tmp/a.f32", 44100, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(ctx, "/tmp/b.f32", 48000, 0, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	claimed, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("claimed = %+v, want job %d", claimed, first.ID)
	}
	if claimed.Status != queue.StatusAnalyzing {
		t.Fatalf("status = %q, want analyzing", claimed.Status)
	}
	if claimed.StartedAt == nil {
		t.Fatal("expected started_at to be set")
	}

	// The claim must be visible to other readers.
	persisted, err := store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.Status != queue.StatusAnalyzing {
		t.Fatalf("persisted status = %q, want analyzing", persisted.Status)
	}
}

func TestNextPendingEmptyQueue(t *testing.T) {
	store := newStore(t)

	job, err := store.NextPending(context.Background())
	if err != nil {
		t.Fatalf("NextPending: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job on empty queue, got %+v", job)
	}
}

func TestUpdatePersistsResult(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Add(ctx, "/tmp/track.f32", 44100, 1, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	now := time.Now().UTC()
	job.Status = queue.StatusCompleted
	job.ResultJSON = `{"loudness":{"integrated":-14.5}}`
	job.ProgressPhase = "complete"
	job.ProgressPercent = 100
	job.CompletedAt = &now
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusCompleted {
		t.Fatalf("status = %q, want completed", reloaded.Status)
	}
	if reloaded.ResultJSON == "" {
		t.Fatal("expected result json to persist")
	}
	if reloaded.CompletedAt == nil {
		t.Fatal("expected completed_at to persist")
	}
	if !reloaded.Terminal() {
		t.Fatal("completed job must be terminal")
	}
}

func TestUpdateProgress(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Add(ctx, "/tmp/track.f32", 44100, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.UpdateProgress(ctx, job.ID, "loudness", 45); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	reloaded, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.ProgressPhase != "loudness" || reloaded.ProgressPercent != 45 {
		t.Fatalf("progress = (%q, %v), want (loudness, 45)", reloaded.ProgressPhase, reloaded.ProgressPercent)
	}
}

func TestResetStuckAnalyzing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, "/tmp/a.f32", 44100, 0, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.NextPending(ctx); err != nil {
		t.Fatalf("NextPending: %v", err)
	}

	count, err := store.ResetStuckAnalyzing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckAnalyzing: %v", err)
	}
	if count != 1 {
		t.Fatalf("reset count = %d, want 1", count)
	}

	jobs, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("pending jobs = %d, want 1", len(jobs))
	}
	if jobs[0].StartedAt != nil {
		t.Fatal("expected started_at cleared on reset")
	}
}

func TestRetryFailed(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Add(ctx, "/tmp/a.f32", 44100, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	job.SetFailed("engine exploded")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	count, err := store.RetryFailed(ctx, job.ID)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if count != 1 {
		t.Fatalf("retry count = %d, want 1", count)
	}

	reloaded, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusPending {
		t.Fatalf("status = %q, want pending", reloaded.Status)
	}
	if reloaded.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", reloaded.ErrorMessage)
	}
}

func TestStatsAndHealth(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Add(ctx, "/tmp/a.f32", 44100, 0, 0); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	claimed, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending: %v", err)
	}
	claimed.Status = queue.StatusCompleted
	if err := store.Update(ctx, claimed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Pending != 2 || health.Completed != 1 {
		t.Fatalf("health = %+v", health)
	}

	dbHealth, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.DatabaseReadable || !dbHealth.TableExists {
		t.Fatalf("db health = %+v", dbHealth)
	}
	if !dbHealth.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if dbHealth.TotalJobs != 3 {
		t.Fatalf("total jobs = %d, want 3", dbHealth.TotalJobs)
	}
}

func TestClearVariants(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	pending, err := store.Add(ctx, "/tmp/a.f32", 44100, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	completed, err := store.Add(ctx, "/tmp/b.f32", 44100, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	completed.Status = queue.StatusCompleted
	if err := store.Update(ctx, completed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	failed, err := store.Add(ctx, "/tmp/c.f32", 44100, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if count, err := store.ClearCompleted(ctx); err != nil || count != 1 {
		t.Fatalf("ClearCompleted = (%d, %v), want (1, nil)", count, err)
	}
	if count, err := store.ClearFailed(ctx); err != nil || count != 1 {
		t.Fatalf("ClearFailed = (%d, %v), want (1, nil)", count, err)
	}

	removed, err := store.Remove(ctx, pending.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("expected pending job removed")
	}

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("remaining jobs = %d, want 0", len(jobs))
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want queue.Status
		ok   bool
	}{
		{"pending", queue.StatusPending, true},
		{" Analyzing ", queue.StatusAnalyzing, true},
		{"COMPLETED", queue.StatusCompleted, true},
		{"bogus", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := queue.ParseStatus(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
