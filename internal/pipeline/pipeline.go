// Package pipeline orchestrates one full processing run for a project:
// fetch, plan extraction, progress computation, skill extraction and
// persistence, with job tracking around the whole thing.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/repotrackr/internal/jobs"
	"github.com/fyrsmithlabs/repotrackr/internal/manifest"
	"github.com/fyrsmithlabs/repotrackr/internal/plan"
	"github.com/fyrsmithlabs/repotrackr/internal/progress"
	"github.com/fyrsmithlabs/repotrackr/internal/skills"
	"github.com/fyrsmithlabs/repotrackr/internal/store"
)

// Trigger identifies what requested a run.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerWebhook   Trigger = "webhook"
)

// ErrRunInProgress reports that the project already has an in-flight
// run.
var ErrRunInProgress = errors.New("run already in progress")

// Fetcher retrieves repository copies into scratch space.
type Fetcher interface {
	Fetch(ctx context.Context, repoURL string) (string, error)
	Read(localPath, filePath string) (string, error)
	HeadCommitTime(localPath string) (time.Time, error)
	Cleanup(localPath string) error
}

// Store is the persistence surface a run writes through.
type Store interface {
	GetProject(ctx context.Context, id string) (store.Project, error)
	UpdateProject(ctx context.Context, p store.Project) error
	ReplaceTasks(ctx context.Context, projectID string, tasks []plan.Task) error
	AppendSnapshot(ctx context.Context, snap store.Snapshot) error
	PruneSnapshots(ctx context.Context, projectID string, keep int) error
	ReplaceSkills(ctx context.Context, projectID string, set []skills.Skill) error
}

// Tracker records job lifecycle around runs.
type Tracker interface {
	Create(ctx context.Context, projectID string, jobType jobs.Type) (store.Job, error)
	Start(ctx context.Context, jobID string) error
	Complete(ctx context.Context, jobID, result string) error
	Fail(ctx context.Context, jobID, errMsg string) error
	Get(ctx context.Context, jobID string) (store.Job, error)
	Retry(ctx context.Context, jobID string) error
}

// Config tunes run behavior.
type Config struct {
	RunTimeout    time.Duration
	StaleDays     int
	SnapshotKeep  int
	RatePerMinute int
}

// Pipeline runs the processing steps for projects, one in-flight run
// per project.
type Pipeline struct {
	fetcher Fetcher
	store   Store
	tracker Tracker
	logger  *zap.Logger
	cfg     Config

	locks   *lockArena
	limiter *rate.Limiter
	retrier interface {
		Do(ctx context.Context, fun func() error, errs ...error) error
	}
	now func() time.Time
}

// New creates a Pipeline.
func New(fetcher Fetcher, st Store, tracker Tracker, logger *zap.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Pipeline{
		fetcher: fetcher,
		store:   st,
		tracker: tracker,
		logger:  logger,
		cfg:     cfg,
		locks:   newLockArena(),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		retrier: repeater.New(&strategy.Backoff{Repeats: 3, Duration: 200 * time.Millisecond, Factor: 2, Jitter: true}),
		now:     time.Now,
	}
}

// runResult is the payload persisted on a completed job.
type runResult struct {
	PlanPath       string  `json:"plan_path,omitempty"`
	TasksExtracted int     `json:"tasks_extracted"`
	SkillsMapped   int     `json:"skills_mapped"`
	Percentage     float64 `json:"percentage"`
	Classification string  `json:"classification"`
}

// Run starts a pipeline run for the project and returns the job id.
// The run itself executes asynchronously; callers poll job status. A
// second Run for the same project while one is in flight is rejected
// with ErrRunInProgress.
func (p *Pipeline) Run(ctx context.Context, projectID string, trigger Trigger) (string, error) {
	project, err := p.store.GetProject(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("loading project: %w", err)
	}

	if !p.locks.tryAcquire(project.ID) {
		RunsTotal.WithLabelValues(string(trigger), "rejected").Inc()
		return "", fmt.Errorf("%w: project %s", ErrRunInProgress, project.ID)
	}

	job, err := p.tracker.Create(ctx, project.ID, jobTypeFor(trigger))
	if err != nil {
		p.locks.release(project.ID)
		return "", fmt.Errorf("creating job: %w", err)
	}

	go p.execute(project, job.ID, trigger)
	return job.ID, nil
}

// Retry re-queues a failed job and executes it under the same id.
// The project slot is acquired before the job record changes, so a
// refused slot leaves the job failed and its retry budget intact.
func (p *Pipeline) Retry(ctx context.Context, jobID string) error {
	job, err := p.tracker.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job: %w", err)
	}
	project, err := p.store.GetProject(ctx, job.ProjectID)
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}
	if !p.locks.tryAcquire(project.ID) {
		return fmt.Errorf("%w: project %s", ErrRunInProgress, project.ID)
	}
	if err := p.tracker.Retry(ctx, jobID); err != nil {
		p.locks.release(project.ID)
		return err
	}
	go p.execute(project, jobID, TriggerManual)
	return nil
}

func jobTypeFor(trigger Trigger) jobs.Type {
	if trigger == TriggerScheduled {
		return jobs.TypeRefresh
	}
	return jobs.TypeProcessing
}

// execute performs one run end to end. It owns the project lock and
// the scratch clone and releases both on every exit path.
func (p *Pipeline) execute(project store.Project, jobID string, trigger Trigger) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.RunTimeout)
	defer cancel()
	defer p.locks.release(project.ID)

	RunsInFlight.Inc()
	defer RunsInFlight.Dec()
	started := p.now()
	defer func() { RunDuration.Observe(p.now().Sub(started).Seconds()) }()

	log := p.logger.With(
		zap.String("project_id", project.ID),
		zap.String("job_id", jobID),
		zap.String("trigger", string(trigger)))

	var localPath string
	defer func() {
		if localPath != "" {
			if err := p.fetcher.Cleanup(localPath); err != nil {
				log.Warn("scratch cleanup failed", zap.Error(err))
			}
		}
		if r := recover(); r != nil {
			log.Error("run panicked", zap.Any("panic", r))
			p.fail(jobID, trigger, log, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := p.tracker.Start(ctx, jobID); err != nil {
		log.Error("starting job", zap.Error(err))
		RunsTotal.WithLabelValues(string(trigger), "failed").Inc()
		return
	}

	if err := p.limiter.Wait(ctx); err != nil {
		p.fail(jobID, trigger, log, fmt.Errorf("waiting for fetch slot: %w", err))
		return
	}

	var err error
	localPath, err = p.fetcher.Fetch(ctx, project.RepoURL)
	if err != nil {
		p.fail(jobID, trigger, log, err)
		return
	}

	tasks, planPath := p.extractTasks(localPath, project.PlanPath, log)
	lastUpdate := p.lastActivity(localPath, log)
	snap := progress.Calculate(tasks, lastUpdate, p.now(), p.cfg.StaleDays)
	mapped := p.extractSkills(localPath, log)

	if err := p.persist(ctx, project, planPath, tasks, snap, mapped, lastUpdate); err != nil {
		p.fail(jobID, trigger, log, err)
		return
	}

	result := runResult{
		PlanPath:       planPath,
		TasksExtracted: len(tasks),
		SkillsMapped:   len(mapped),
		Percentage:     snap.Percentage,
		Classification: string(snap.Classification),
	}
	payload, _ := json.Marshal(result)
	if err := p.tracker.Complete(ctx, jobID, string(payload)); err != nil {
		log.Error("completing job", zap.Error(err))
		RunsTotal.WithLabelValues(string(trigger), "failed").Inc()
		return
	}

	TasksExtracted.Observe(float64(len(tasks)))
	RunsTotal.WithLabelValues(string(trigger), "completed").Inc()
	log.Info("run completed",
		zap.Int("tasks", len(tasks)),
		zap.Int("skills", len(mapped)),
		zap.Float64("percentage", snap.Percentage),
		zap.String("classification", string(snap.Classification)))
}

// extractTasks locates and parses the plan document. A missing plan is
// a normal outcome that yields zero tasks.
func (p *Pipeline) extractTasks(localPath, preferred string, log *zap.Logger) ([]plan.Task, string) {
	planPath, err := plan.Locate(localPath, preferred)
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			log.Info("no plan document found")
			return nil, ""
		}
		log.Warn("locating plan", zap.Error(err))
		return nil, ""
	}

	content, err := p.fetcher.Read(localPath, planPath)
	if err != nil {
		log.Warn("reading plan", zap.String("path", planPath), zap.Error(err))
		return nil, planPath
	}
	return plan.Extract(content, planPath), planPath
}

// extractSkills discovers and parses manifests. Absence or parse
// trouble yields zero skills, never a failed run.
func (p *Pipeline) extractSkills(localPath string, log *zap.Logger) []skills.Skill {
	var entries []manifest.Entry
	for _, file := range manifest.Discover(localPath) {
		content, err := p.fetcher.Read(localPath, file.Path)
		if err != nil {
			log.Warn("reading manifest", zap.String("path", file.Path), zap.Error(err))
			continue
		}
		entries = append(entries, manifest.Parse(file, content)...)
	}
	return skills.Map(entries)
}

func (p *Pipeline) lastActivity(localPath string, log *zap.Logger) time.Time {
	t, err := p.fetcher.HeadCommitTime(localPath)
	if err != nil {
		log.Warn("reading last activity", zap.Error(err))
		return p.now()
	}
	return t
}

// persist writes the run's output. Each write goes through the backoff
// retrier; the first unrecoverable failure aborts and leaves earlier
// project state queryable.
func (p *Pipeline) persist(ctx context.Context, project store.Project, planPath string,
	tasks []plan.Task, snap progress.Snapshot, mapped []skills.Skill, lastUpdate time.Time) error {

	steps := []struct {
		name string
		fn   func() error
	}{
		{"tasks", func() error { return p.store.ReplaceTasks(ctx, project.ID, tasks) }},
		{"snapshot", func() error {
			return p.store.AppendSnapshot(ctx, store.Snapshot{
				ProjectID:  project.ID,
				Percentage: snap.Percentage,
				Total:      snap.Total,
				Done:       snap.Done,
				Doing:      snap.Doing,
				Todo:       snap.Todo,
				Blocked:    snap.Blocked,
				CreatedAt:  p.now(),
			})
		}},
		{"skills", func() error { return p.store.ReplaceSkills(ctx, project.ID, mapped) }},
		{"prune", func() error { return p.store.PruneSnapshots(ctx, project.ID, p.cfg.SnapshotKeep) }},
		{"project", func() error {
			project.Status = string(snap.Classification)
			project.LastUpdated = lastUpdate
			if planPath != "" && project.PlanPath == "" {
				project.PlanPath = planPath
			}
			return p.store.UpdateProject(ctx, project)
		}},
	}
	for _, step := range steps {
		if err := p.retrier.Do(ctx, step.fn); err != nil {
			return fmt.Errorf("persisting %s: %w", step.name, err)
		}
	}
	return nil
}

func (p *Pipeline) fail(jobID string, trigger Trigger, log *zap.Logger, runErr error) {
	log.Error("run failed", zap.Error(runErr))
	RunsTotal.WithLabelValues(string(trigger), "failed").Inc()

	// the run context may already be expired; failure must still land
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.tracker.Fail(ctx, jobID, runErr.Error()); err != nil {
		log.Error("recording failure", zap.Error(err))
	}
}
