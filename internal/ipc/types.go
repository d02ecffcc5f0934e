package ipc

import (
	"time"

	"soundcheck/internal/queue"
)

// JobItem is the wire representation of a queue job.
type JobItem struct {
	ID              int64    `json:"id"`
	CorrelationID   string   `json:"correlation_id"`
	SourcePath      string   `json:"source_path"`
	SampleRate      int      `json:"sample_rate"`
	Channels        int      `json:"channels"`
	KnownTempo      float64  `json:"known_tempo,omitempty"`
	Status          string   `json:"status"`
	ProgressPhase   string   `json:"progress_phase,omitempty"`
	ProgressPercent float64  `json:"progress_percent"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	ResultJSON      string   `json:"result_json,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	StartedAt       string   `json:"started_at,omitempty"`
	CompletedAt     string   `json:"completed_at,omitempty"`
}

// FromJob converts a queue job into its wire representation.
func FromJob(job *queue.Job) JobItem {
	item := JobItem{
		ID:              job.ID,
		CorrelationID:   job.CorrelationID,
		SourcePath:      job.SourcePath,
		SampleRate:      job.SampleRate,
		Channels:        job.Channels,
		KnownTempo:      job.KnownTempo,
		Status:          string(job.Status),
		ProgressPhase:   job.ProgressPhase,
		ProgressPercent: job.ProgressPercent,
		ErrorMessage:    job.ErrorMessage,
		ResultJSON:      job.ResultJSON,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       job.UpdatedAt.Format(time.RFC3339),
	}
	if job.StartedAt != nil {
		item.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		item.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return item
}

// AnalyzeRequest enqueues a raw sample file for analysis.
type AnalyzeRequest struct {
	SourcePath string  `json:"source_path"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	KnownTempo float64 `json:"known_tempo"`
}

// AnalyzeResponse returns the queued job.
type AnalyzeResponse struct {
	Item JobItem `json:"item"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// WorkerHealth describes readiness of one pooled worker.
type WorkerHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse represents combined daemon/queue status information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueStats   map[string]int `json:"queue_stats"`
	LastError    string         `json:"last_error"`
	LockPath     string         `json:"lock_path"`
	QueueDBPath  string         `json:"queue_db_path"`
	WorkerHealth []WorkerHealth `json:"worker_health"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []JobItem `json:"items"`
}

// QueueDescribeRequest fetches a single job by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single job.
type QueueDescribeResponse struct {
	Item JobItem `json:"item"`
}

// QueueClearRequest removes all jobs.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed jobs.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed jobs.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed jobs.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes completed jobs.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed jobs.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueResetRequest resets in-flight jobs back to pending.
type QueueResetRequest struct{}

// QueueResetResponse reports number of jobs reset.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRetryRequest retries failed jobs. Empty list means all failed jobs.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of retried jobs.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Analyzing int `json:"analyzing"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	TableExists      bool   `json:"table_exists"`
	IntegrityCheck   bool   `json:"integrity_check"`
	TotalJobs        int    `json:"total_jobs"`
	Error            string `json:"error"`
}
