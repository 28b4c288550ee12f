package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/repotrackr/internal/jobs"
	"github.com/fyrsmithlabs/repotrackr/internal/pipeline"
	"github.com/fyrsmithlabs/repotrackr/internal/skills"
	"github.com/fyrsmithlabs/repotrackr/internal/store"
)

// JobResponse is the API view of a job.
type JobResponse struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func toJobResponse(j store.Job) JobResponse {
	resp := JobResponse{
		ID:         j.ID,
		ProjectID:  j.ProjectID,
		Type:       j.Type,
		Status:     j.Status,
		RetryCount: j.RetryCount,
		MaxRetries: j.MaxRetries,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
	}
	if j.Result != "" {
		resp.Result = json.RawMessage(j.Result)
	}
	if !j.StartedAt.IsZero() {
		t := j.StartedAt
		resp.StartedAt = &t
	}
	if !j.CompletedAt.IsZero() {
		t := j.CompletedAt
		resp.CompletedAt = &t
	}
	return resp
}

func (s *Server) handleGetJob(c echo.Context) error {
	j, err := s.jobs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(err, "job")
	}
	return c.JSON(http.StatusOK, toJobResponse(j))
}

func (s *Server) handleRetryJob(c echo.Context) error {
	ctx := c.Request().Context()
	jobID := c.Param("id")

	if err := s.runner.Retry(ctx, jobID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "job not found")
		case errors.Is(err, pipeline.ErrRunInProgress):
			return echo.NewHTTPError(http.StatusConflict, "a run is already in progress for this project")
		case errors.Is(err, jobs.ErrRetryExhausted):
			return echo.NewHTTPError(http.StatusConflict, "retry budget exhausted")
		case errors.Is(err, jobs.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, "job is not in a retryable state")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to retry job")
		}
	}

	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return storeError(err, "job")
	}
	return c.JSON(http.StatusAccepted, toJobResponse(j))
}

func (s *Server) handleListJobs(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := s.store.GetProject(ctx, c.Param("id")); err != nil {
		return storeError(err, "project")
	}
	list, err := s.store.ListJobs(ctx, c.Param("id"))
	if err != nil {
		return storeError(err, "jobs")
	}
	out := make([]JobResponse, 0, len(list))
	for _, j := range list {
		out = append(out, toJobResponse(j))
	}
	return c.JSON(http.StatusOK, out)
}

// PopularSkillsResponse lists skill usage across all projects.
type PopularSkillsResponse struct {
	Skills []SkillCountResponse `json:"skills"`
}

// SkillCountResponse is one aggregated skill occurrence.
type SkillCountResponse struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

func (s *Server) handlePopularSkills(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	counts, err := s.store.PopularSkills(c.Request().Context(), limit)
	if err != nil {
		return storeError(err, "skills")
	}
	if len(counts) == 0 {
		// nothing tracked yet: fall back to the curated ranking
		resp := PopularSkillsResponse{Skills: []SkillCountResponse{}}
		for _, name := range skills.Popular(limit) {
			resp.Skills = append(resp.Skills, SkillCountResponse{
				Name:     name,
				Category: string(skills.CategoryOf(name)),
			})
		}
		return c.JSON(http.StatusOK, resp)
	}
	resp := PopularSkillsResponse{Skills: make([]SkillCountResponse, 0, len(counts))}
	for _, sc := range counts {
		resp.Skills = append(resp.Skills, SkillCountResponse{
			Name:     sc.Name,
			Category: sc.Category,
			Count:    sc.Count,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// CategoriesResponse lists known categories and per-category usage.
type CategoriesResponse struct {
	Categories []string                  `json:"categories"`
	Usage      map[string]map[string]int `json:"usage"`
}

func (s *Server) handleSkillCategories(c echo.Context) error {
	usage, err := s.store.SkillsByCategory(c.Request().Context())
	if err != nil {
		return storeError(err, "skills")
	}
	return c.JSON(http.StatusOK, CategoriesResponse{
		Categories: skills.Categories(),
		Usage:      usage,
	})
}
