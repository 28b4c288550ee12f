package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repotrackr/internal/pipeline"
	"github.com/fyrsmithlabs/repotrackr/internal/store"
)

// ProjectRequest is the request body for creating or updating a
// project.
type ProjectRequest struct {
	Name     string `json:"name"`
	RepoURL  string `json:"repo_url"`
	PlanPath string `json:"plan_path"`
}

// ProjectResponse is the API view of a project.
type ProjectResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	RepoURL     string     `json:"repo_url"`
	PlanPath    string     `json:"plan_path,omitempty"`
	Status      string     `json:"status"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toProjectResponse(p store.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		RepoURL:   p.RepoURL,
		PlanPath:  p.PlanPath,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if !p.LastUpdated.IsZero() {
		t := p.LastUpdated
		resp.LastUpdated = &t
	}
	return resp
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req ProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.RepoURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and repo_url are required")
	}

	p := store.Project{
		ID:       uuid.NewString(),
		Name:     req.Name,
		RepoURL:  req.RepoURL,
		PlanPath: req.PlanPath,
		Status:   "red",
	}
	if err := s.store.CreateProject(c.Request().Context(), p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "a project with this repo_url already exists")
		}
		s.logger.Error("creating project", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create project")
	}

	created, err := s.store.GetProject(c.Request().Context(), p.ID)
	if err != nil {
		created = p
	}
	return c.JSON(http.StatusCreated, toProjectResponse(created))
}

func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.store.ListProjects(c.Request().Context())
	if err != nil {
		s.logger.Error("listing projects", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list projects")
	}
	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.store.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(err, "project")
	}
	return c.JSON(http.StatusOK, toProjectResponse(p))
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := s.store.GetProject(ctx, c.Param("id"))
	if err != nil {
		return storeError(err, "project")
	}

	var req ProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.RepoURL != "" {
		p.RepoURL = req.RepoURL
	}
	p.PlanPath = req.PlanPath

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return storeError(err, "project")
	}
	updated, err := s.store.GetProject(ctx, p.ID)
	if err != nil {
		updated = p
	}
	return c.JSON(http.StatusOK, toProjectResponse(updated))
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	if err := s.store.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(err, "project")
	}
	return c.NoContent(http.StatusNoContent)
}

// ProcessResponse is returned when a run is accepted.
type ProcessResponse struct {
	JobID string `json:"job_id"`
}

func (s *Server) handleProcess(c echo.Context) error {
	jobID, err := s.runner.Run(c.Request().Context(), c.Param("id"), pipeline.TriggerManual)
	if err != nil {
		return runError(err)
	}
	return c.JSON(http.StatusAccepted, ProcessResponse{JobID: jobID})
}

func (s *Server) handleWebhook(c echo.Context) error {
	jobID, err := s.runner.Run(c.Request().Context(), c.Param("id"), pipeline.TriggerWebhook)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			// the in-flight run will pick up the pushed change set
			return c.NoContent(http.StatusAccepted)
		}
		return runError(err)
	}
	return c.JSON(http.StatusAccepted, ProcessResponse{JobID: jobID})
}

// TaskResponse is the API view of one extracted task.
type TaskResponse struct {
	Title      string `json:"title"`
	Status     string `json:"status"`
	FilePath   string `json:"file_path,omitempty"`
	LineNumber int    `json:"line_number,omitempty"`
}

func (s *Server) handleListTasks(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := s.store.GetProject(ctx, c.Param("id")); err != nil {
		return storeError(err, "project")
	}
	tasks, err := s.store.ListTasks(ctx, c.Param("id"))
	if err != nil {
		return storeError(err, "tasks")
	}
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskResponse{
			Title:      t.Title,
			Status:     string(t.Status),
			FilePath:   t.FilePath,
			LineNumber: t.LineNumber,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// SnapshotResponse is the API view of one progress snapshot.
type SnapshotResponse struct {
	Percentage float64   `json:"percentage"`
	Total      int       `json:"total"`
	Done       int       `json:"done"`
	Doing      int       `json:"doing"`
	Todo       int       `json:"todo"`
	Blocked    int       `json:"blocked"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) handleListProgress(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := s.store.GetProject(ctx, c.Param("id")); err != nil {
		return storeError(err, "project")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	snaps, err := s.store.ListSnapshots(ctx, c.Param("id"), limit)
	if err != nil {
		return storeError(err, "snapshots")
	}
	out := make([]SnapshotResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, SnapshotResponse{
			Percentage: snap.Percentage,
			Total:      snap.Total,
			Done:       snap.Done,
			Doing:      snap.Doing,
			Todo:       snap.Todo,
			Blocked:    snap.Blocked,
			CreatedAt:  snap.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// SkillResponse is the API view of one extracted skill.
type SkillResponse struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

func (s *Server) handleListSkills(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := s.store.GetProject(ctx, c.Param("id")); err != nil {
		return storeError(err, "project")
	}
	set, err := s.store.ListSkills(ctx, c.Param("id"))
	if err != nil {
		return storeError(err, "skills")
	}
	out := make([]SkillResponse, 0, len(set))
	for _, sk := range set {
		out = append(out, SkillResponse{
			Name:       sk.Name,
			Category:   string(sk.Category),
			Confidence: sk.Confidence,
			Source:     sk.Source,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func storeError(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, what+" not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "storage failure")
}

func runError(err error) error {
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		return echo.NewHTTPError(http.StatusConflict, "a run is already in progress for this project")
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start run")
	}
}
