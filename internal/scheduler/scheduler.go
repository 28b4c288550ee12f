// Package scheduler runs periodic refresh sweeps over all registered
// projects.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repotrackr/internal/pipeline"
	"github.com/fyrsmithlabs/repotrackr/internal/store"
)

// Runner starts pipeline runs.
type Runner interface {
	Run(ctx context.Context, projectID string, trigger pipeline.Trigger) (string, error)
}

// Lister enumerates projects for a sweep.
type Lister interface {
	ListProjects(ctx context.Context) ([]store.Project, error)
}

// Scheduler triggers a refresh run for every project on a cron
// schedule.
type Scheduler struct {
	runner Runner
	lister Lister
	logger *zap.Logger

	cron *cron.Cron
	spec string
}

// New creates a Scheduler with the given cron spec, e.g. "@every 1h".
func New(runner Runner, lister Lister, logger *zap.Logger, spec string) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner: runner,
		lister: lister,
		logger: logger,
		cron:   cron.New(),
		spec:   spec,
	}
}

// Start registers the sweep and begins the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("registering sweep schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Sweep starts one refresh run per project. Projects with an in-flight
// run are skipped, everything else is attempted regardless of earlier
// failures.
func (s *Scheduler) Sweep(ctx context.Context) {
	projects, err := s.lister.ListProjects(ctx)
	if err != nil {
		s.logger.Error("listing projects for sweep", zap.Error(err))
		return
	}

	started, skipped := 0, 0
	for _, p := range projects {
		_, err := s.runner.Run(ctx, p.ID, pipeline.TriggerScheduled)
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			skipped++
		case err != nil:
			s.logger.Warn("sweep run failed to start",
				zap.String("project_id", p.ID), zap.Error(err))
		default:
			started++
		}
	}
	s.logger.Info("sweep finished",
		zap.Int("projects", len(projects)),
		zap.Int("started", started),
		zap.Int("skipped", skipped))
}
