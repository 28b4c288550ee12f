package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repotrackr/internal/store"
)

// Type labels what kind of work a job performs.
type Type string

const (
	TypeProcessing       Type = "processing"
	TypeSkillsExtraction Type = "skills_extraction"
	TypeRefresh          Type = "refresh"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	// ErrInvalidTransition reports a lifecycle move the state machine
	// forbids.
	ErrInvalidTransition = errors.New("invalid job transition")

	// ErrRetryExhausted reports a retry request past max_retries.
	ErrRetryExhausted = errors.New("retry budget exhausted")
)

// allowed lists the legal lifecycle moves. failed→pending is reachable
// only through Retry.
var allowed = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true},
	StatusProcessing: {StatusCompleted: true, StatusFailed: true},
	StatusFailed:     {StatusPending: true},
}

// Store is the persistence surface the tracker needs.
type Store interface {
	UpsertJob(ctx context.Context, j store.Job) error
	GetJob(ctx context.Context, id string) (store.Job, error)
}

// Tracker records job lifecycles and enforces transition and retry
// rules.
type Tracker struct {
	store  Store
	logger *zap.Logger

	maxRetries int
	now        func() time.Time
}

// NewTracker creates a Tracker. maxRetries bounds how often a failed
// job may be re-queued.
func NewTracker(s Store, logger *zap.Logger, maxRetries int) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: s, logger: logger, maxRetries: maxRetries, now: time.Now}
}

// Create records a new pending job and returns it.
func (t *Tracker) Create(ctx context.Context, projectID string, jobType Type) (store.Job, error) {
	j := store.Job{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		Type:       string(jobType),
		Status:     string(StatusPending),
		MaxRetries: t.maxRetries,
		CreatedAt:  t.now(),
	}
	if err := t.store.UpsertJob(ctx, j); err != nil {
		return store.Job{}, fmt.Errorf("creating job: %w", err)
	}
	t.logger.Info("job created",
		zap.String("job_id", j.ID),
		zap.String("project_id", projectID),
		zap.String("type", string(jobType)))
	return j, nil
}

// Start moves a pending job to processing and stamps started_at for
// this run.
func (t *Tracker) Start(ctx context.Context, jobID string) error {
	return t.transition(ctx, jobID, StatusProcessing, func(j *store.Job) {
		j.StartedAt = t.now()
	})
}

// Complete moves a processing job to completed with its result payload.
func (t *Tracker) Complete(ctx context.Context, jobID, result string) error {
	return t.transition(ctx, jobID, StatusCompleted, func(j *store.Job) {
		j.Result = result
		j.Error = ""
		j.CompletedAt = t.now()
	})
}

// Fail moves a processing job to failed with an error message.
func (t *Tracker) Fail(ctx context.Context, jobID, errMsg string) error {
	return t.transition(ctx, jobID, StatusFailed, func(j *store.Job) {
		j.Error = errMsg
		j.CompletedAt = t.now()
	})
}

// Get returns the persisted view of a job.
func (t *Tracker) Get(ctx context.Context, jobID string) (store.Job, error) {
	return t.store.GetJob(ctx, jobID)
}

// Retry re-queues a failed job. Refused once retry_count reaches
// max_retries; the job stays failed. A granted retry resets only the
// retry-specific fields, so the fresh run stamps its own timestamps.
func (t *Tracker) Retry(ctx context.Context, jobID string) error {
	j, err := t.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job for retry: %w", err)
	}
	if Status(j.Status) != StatusFailed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, StatusPending)
	}
	if j.RetryCount >= j.MaxRetries {
		return fmt.Errorf("%w: job %s at %d/%d", ErrRetryExhausted, jobID, j.RetryCount, j.MaxRetries)
	}

	j.Status = string(StatusPending)
	j.RetryCount++
	j.Error = ""
	j.StartedAt = time.Time{}
	j.CompletedAt = time.Time{}
	if err := t.store.UpsertJob(ctx, j); err != nil {
		return fmt.Errorf("re-queuing job: %w", err)
	}
	t.logger.Info("job re-queued",
		zap.String("job_id", jobID),
		zap.Int("retry_count", j.RetryCount))
	return nil
}

func (t *Tracker) transition(ctx context.Context, jobID string, to Status, mutate func(*store.Job)) error {
	j, err := t.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job: %w", err)
	}
	from := Status(j.Status)
	if !allowed[from][to] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	j.Status = string(to)
	mutate(&j)
	if err := t.store.UpsertJob(ctx, j); err != nil {
		return fmt.Errorf("saving job transition: %w", err)
	}
	t.logger.Debug("job transition",
		zap.String("job_id", jobID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return nil
}
