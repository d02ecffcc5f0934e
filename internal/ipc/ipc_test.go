package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"soundcheck/internal/analysis"
	"soundcheck/internal/daemon"
	"soundcheck/internal/ipc"
	"soundcheck/internal/logging"
	"soundcheck/internal/queue"
	"soundcheck/internal/testsupport"
)

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("daemon should not be running yet")
	}
	if !strings.HasSuffix(status.QueueDBPath, "queue.db") {
		t.Fatalf("unexpected queue db path: %s", status.QueueDBPath)
	}

	samplePath := filepath.Join(cfg.Paths.DataDir, "track.f32")
	if err := analysis.WriteRaw(samplePath, make([]float32, 4410)); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}

	queued, err := client.Analyze(ipc.AnalyzeRequest{
		SourcePath: samplePath,
		SampleRate: 44100,
		Channels:   1,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if queued.Item.Status != string(queue.StatusPending) {
		t.Fatalf("expected pending job, got %s", queued.Item.Status)
	}
	if queued.Item.CorrelationID == "" {
		t.Fatal("expected correlation id")
	}

	if _, err := client.Analyze(ipc.AnalyzeRequest{SourcePath: samplePath}); err == nil {
		t.Fatal("expected error for missing sample rate")
	}

	listResp, err := client.QueueList(nil)
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(listResp.Items) != 1 {
		t.Fatalf("expected 1 job, got %d", len(listResp.Items))
	}
	if _, err := client.QueueList([]string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown status filter")
	}

	describeResp, err := client.QueueDescribe(queued.Item.ID)
	if err != nil {
		t.Fatalf("QueueDescribe failed: %v", err)
	}
	if describeResp.Item.SourcePath != samplePath {
		t.Fatalf("unexpected source path: %s", describeResp.Item.SourcePath)
	}
	if _, err := client.QueueDescribe(9999); err == nil {
		t.Fatal("expected error for unknown job id")
	}

	// Claim the job so reset has something to move back to pending.
	if _, err := store.NextPending(ctx); err != nil {
		t.Fatalf("NextPending: %v", err)
	}
	resetResp, err := client.QueueReset()
	if err != nil {
		t.Fatalf("QueueReset failed: %v", err)
	}
	if resetResp.Updated != 1 {
		t.Fatalf("expected 1 job reset, got %d", resetResp.Updated)
	}

	failing, err := store.Add(ctx, samplePath, 44100, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	failing.SetFailed("engine unavailable")
	if err := store.Update(ctx, failing); err != nil {
		t.Fatalf("Update: %v", err)
	}

	failedResp, err := client.QueueList([]string{string(queue.StatusFailed)})
	if err != nil {
		t.Fatalf("QueueList failed filter: %v", err)
	}
	if len(failedResp.Items) != 1 || failedResp.Items[0].ID != failing.ID {
		t.Fatalf("expected failed job %d, got %#v", failing.ID, failedResp.Items)
	}

	retryResp, err := client.QueueRetry(nil)
	if err != nil {
		t.Fatalf("QueueRetry failed: %v", err)
	}
	if retryResp.Updated != 1 {
		t.Fatalf("expected 1 retried job, got %d", retryResp.Updated)
	}

	healthResp, err := client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth failed: %v", err)
	}
	if healthResp.Total != 2 || healthResp.Pending != 2 {
		t.Fatalf("unexpected health response: %#v", healthResp)
	}

	dbHealth, err := client.DatabaseHealth()
	if err != nil {
		t.Fatalf("DatabaseHealth failed: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.TableExists {
		t.Fatalf("unexpected database health: %#v", dbHealth)
	}

	clearResp, err := client.QueueClear()
	if err != nil {
		t.Fatalf("QueueClear failed: %v", err)
	}
	if clearResp.Removed != 2 {
		t.Fatalf("expected 2 jobs cleared, got %d", clearResp.Removed)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}
}
