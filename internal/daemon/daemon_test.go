package daemon_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"soundcheck/internal/analysis"
	"soundcheck/internal/config"
	"soundcheck/internal/daemon"
	"soundcheck/internal/engine"
	"soundcheck/internal/queue"
	"soundcheck/internal/testsupport"
)

func newDaemon(t *testing.T) (*daemon.Daemon, *queue.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	d, err := daemon.New(cfg, store, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, store, cfg
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %d never reached status %q", id, want)
	return nil
}

func TestDaemonProcessesJobToCompletion(t *testing.T) {
	d, store, cfg := newDaemon(t)
	ctx := context.Background()

	samplePath := filepath.Join(cfg.Paths.DataDir, "track.f32")
	if err := analysis.WriteRaw(samplePath, make([]float32, 44100)); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	job, err := d.Enqueue(ctx, samplePath, 44100, 1, 0)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	if done.ResultJSON == "" {
		t.Fatal("expected result json")
	}
	if done.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want 100", done.ProgressPercent)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completed_at")
	}

	var result analysis.Result
	if err := json.Unmarshal([]byte(done.ResultJSON), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Loudness.Integrated != engine.NeutralIntegratedLUFS {
		t.Errorf("integrated = %v, want neutral constant", result.Loudness.Integrated)
	}
	if result.Stereo == nil {
		t.Error("explicit mono metadata should produce a stereo field")
	}
}

func TestDaemonFailsJobWithMissingSourceFile(t *testing.T) {
	d, store, cfg := newDaemon(t)
	ctx := context.Background()

	// The file exists at enqueue time and disappears before dispatch.
	samplePath := filepath.Join(cfg.Paths.DataDir, "vanishing.f32")
	if err := analysis.WriteRaw(samplePath, []float32{0}); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	job, err := d.Enqueue(ctx, samplePath, 44100, 0, 0)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := testsupport.RemoveFile(samplePath); err != nil {
		t.Fatalf("remove sample: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	failed := waitForStatus(t, store, job.ID, queue.StatusFailed)
	if failed.ErrorMessage == "" {
		t.Fatal("expected error message on failed job")
	}
}

func TestDaemonEnqueueValidation(t *testing.T) {
	d, _, cfg := newDaemon(t)
	ctx := context.Background()

	if _, err := d.Enqueue(ctx, cfg.Paths.DataDir, 44100, 0, 0); err == nil {
		t.Fatal("expected error for directory source")
	}
	if _, err := d.Enqueue(ctx, filepath.Join(cfg.Paths.DataDir, "missing.f32"), 44100, 0, 0); err == nil {
		t.Fatal("expected error for missing source")
	}
	samplePath := filepath.Join(cfg.Paths.DataDir, "ok.f32")
	if err := analysis.WriteRaw(samplePath, []float32{0}); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if _, err := d.Enqueue(ctx, samplePath, 0, 0, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	d, store, cfg := newDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	second, err := daemon.New(cfg, store, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second instance must not acquire the lock")
	}
}

func TestDaemonStatusReportsQueueStats(t *testing.T) {
	d, _, cfg := newDaemon(t)
	ctx := context.Background()

	samplePath := filepath.Join(cfg.Paths.DataDir, "track.f32")
	if err := analysis.WriteRaw(samplePath, []float32{0}); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if _, err := d.Enqueue(ctx, samplePath, 44100, 0, 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	status := d.Status(ctx)
	if status.Running {
		t.Fatal("daemon not started yet")
	}
	if status.QueueStats[queue.StatusPending] != 1 {
		t.Fatalf("pending = %d, want 1", status.QueueStats[queue.StatusPending])
	}
	if status.QueueDBPath != cfg.Paths.DatabasePath {
		t.Fatalf("db path = %q", status.QueueDBPath)
	}
}
