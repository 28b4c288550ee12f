// Package httpapi provides the HTTP API for repotrackr.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repotrackr/internal/pipeline"
	"github.com/fyrsmithlabs/repotrackr/internal/plan"
	"github.com/fyrsmithlabs/repotrackr/internal/skills"
	"github.com/fyrsmithlabs/repotrackr/internal/store"
)

// Store is the persistence surface the API reads and writes.
type Store interface {
	CreateProject(ctx context.Context, p store.Project) error
	GetProject(ctx context.Context, id string) (store.Project, error)
	ListProjects(ctx context.Context) ([]store.Project, error)
	UpdateProject(ctx context.Context, p store.Project) error
	DeleteProject(ctx context.Context, id string) error
	ListTasks(ctx context.Context, projectID string) ([]plan.Task, error)
	ListSnapshots(ctx context.Context, projectID string, limit int) ([]store.Snapshot, error)
	ListSkills(ctx context.Context, projectID string) ([]skills.Skill, error)
	PopularSkills(ctx context.Context, limit int) ([]store.SkillCount, error)
	SkillsByCategory(ctx context.Context) (map[string]map[string]int, error)
	ListJobs(ctx context.Context, projectID string) ([]store.Job, error)
}

// Runner starts and retries pipeline runs.
type Runner interface {
	Run(ctx context.Context, projectID string, trigger pipeline.Trigger) (string, error)
	Retry(ctx context.Context, jobID string) error
}

// Jobs exposes job lookup.
type Jobs interface {
	Get(ctx context.Context, jobID string) (store.Job, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server provides the repotrackr HTTP endpoints.
type Server struct {
	echo   *echo.Echo
	store  Store
	runner Runner
	jobs   Jobs
	logger *zap.Logger
	config Config
}

// NewServer creates the API server with routes and middleware wired.
func NewServer(st Store, runner Runner, jobs Jobs, logger *zap.Logger, cfg Config) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if jobs == nil {
		return nil, fmt.Errorf("jobs is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:   e,
		store:  st,
		runner: runner,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/projects", s.handleCreateProject)
	v1.GET("/projects", s.handleListProjects)
	v1.GET("/projects/:id", s.handleGetProject)
	v1.PUT("/projects/:id", s.handleUpdateProject)
	v1.DELETE("/projects/:id", s.handleDeleteProject)
	v1.POST("/projects/:id/process", s.handleProcess)
	v1.GET("/projects/:id/tasks", s.handleListTasks)
	v1.GET("/projects/:id/progress", s.handleListProgress)
	v1.GET("/projects/:id/skills", s.handleListSkills)
	v1.GET("/projects/:id/jobs", s.handleListJobs)

	v1.GET("/jobs/:id", s.handleGetJob)
	v1.POST("/jobs/:id/retry", s.handleRetryJob)

	v1.GET("/skills/popular", s.handlePopularSkills)
	v1.GET("/skills/categories", s.handleSkillCategories)

	v1.POST("/webhooks/:id", s.handleWebhook)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
