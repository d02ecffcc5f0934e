package daemon

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"soundcheck/internal/analysis"
	"soundcheck/internal/logging"
	"soundcheck/internal/queue"
	"soundcheck/internal/services"
	"soundcheck/internal/worker"
)

// dispatch claims pending jobs and hands each to a free worker until the
// context is canceled. Jobs run concurrently up to the pool size.
func (d *Daemon) dispatch(ctx context.Context) {
	poll := time.NewTicker(time.Duration(d.cfg.Daemon.QueuePollInterval) * time.Second)
	defer poll.Stop()

	var jobs sync.WaitGroup
	defer jobs.Wait()

	for {
		d.drainPending(ctx, &jobs)
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
		}
	}
}

// drainPending claims and dispatches every pending job currently visible.
func (d *Daemon) drainPending(ctx context.Context, jobs *sync.WaitGroup) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := d.store.NextPending(ctx)
		if err != nil {
			if ctx.Err() == nil {
				d.lastError.Store(err.Error())
				d.logger.Error("claim pending job", logging.Error(err))
			}
			return
		}
		if job == nil {
			return
		}

		client, err := d.pool.Checkout(ctx)
		if err != nil {
			// Shutting down with a claimed job in hand: put it back.
			d.requeue(job)
			return
		}

		jobs.Add(1)
		go func(job *queue.Job, client worker.Client) {
			defer jobs.Done()
			defer d.pool.Release(client)
			d.process(ctx, job, client)
		}(job, client)
	}
}

func (d *Daemon) process(ctx context.Context, job *queue.Job, client worker.Client) {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithRequestID(ctx, job.CorrelationID)
	log := logging.WithContext(ctx, d.logger)
	start := time.Now()

	samples, err := analysis.LoadRaw(job.SourcePath)
	if err != nil {
		d.fail(ctx, log, job, err.Error())
		return
	}

	req := &analysis.Request{
		Samples:    samples,
		SampleRate: job.SampleRate,
		KnownTempo: job.KnownTempo,
	}
	if job.Channels > 0 {
		req.Meta = &analysis.FileMetadata{Channels: job.Channels}
	}

	log.Info("job dispatched",
		logging.Int("samples", len(samples)),
		logging.String(logging.FieldEventType, "job_dispatched"))

	result, err := worker.Analyze(ctx, client, req, func(percent int, phase string) {
		_ = d.store.UpdateProgress(ctx, job.ID, phase, float64(percent))
	})
	if err != nil {
		if ctx.Err() != nil {
			d.requeue(job)
			return
		}
		d.fail(ctx, log, job, err.Error())
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		d.fail(ctx, log, job, "encode result: "+err.Error())
		return
	}

	now := time.Now().UTC()
	job.Status = queue.StatusCompleted
	job.ResultJSON = string(payload)
	job.ProgressPhase = "complete"
	job.ProgressPercent = 100
	job.ErrorMessage = ""
	job.CompletedAt = &now
	if err := d.store.Update(ctx, job); err != nil {
		log.Error("persist completed job", logging.Error(err))
		d.lastError.Store(err.Error())
		return
	}

	log.Info("job completed",
		logging.Duration("elapsed", time.Since(start)),
		logging.Float64("integrated_lufs", result.Loudness.Integrated),
		logging.String(logging.FieldEventType, "job_completed"))
}

func (d *Daemon) fail(ctx context.Context, log *slog.Logger, job *queue.Job, message string) {
	job.SetFailed(message)
	now := time.Now().UTC()
	job.CompletedAt = &now
	if err := d.store.Update(ctx, job); err != nil {
		log.Error("persist failed job", logging.Error(err))
	}
	d.lastError.Store(message)
	log.Error("job failed",
		logging.String("reason", message),
		logging.String(logging.FieldEventType, "job_failed"))
}

// requeue returns a claimed job to pending during shutdown. The run context
// is gone, so persistence uses a short background deadline.
func (d *Daemon) requeue(job *queue.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job.Status = queue.StatusPending
	job.ProgressPhase = ""
	job.ProgressPercent = 0
	job.StartedAt = nil
	if err := d.store.Update(ctx, job); err != nil {
		d.logger.Error("requeue job on shutdown",
			logging.Int64("job_id", job.ID),
			logging.Error(err))
	}
}
