package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/fyrsmithlabs/repotrackr/internal/plan"
	"github.com/fyrsmithlabs/repotrackr/internal/skills"
)

var (
	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("record not found")

	// ErrStorage wraps database failures so callers can distinguish
	// persistence errors from domain errors.
	ErrStorage = errors.New("storage error")

	// ErrDuplicate reports a uniqueness violation, notably a second
	// project registering the same repository URL.
	ErrDuplicate = errors.New("duplicate record")
)

// Project is a registered repository under tracking.
type Project struct {
	ID          string
	Name        string
	RepoURL     string
	PlanPath    string
	Status      string
	LastUpdated time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Snapshot is one immutable progress reading for a project.
type Snapshot struct {
	ID         int64
	ProjectID  string
	Percentage float64
	Total      int
	Done       int
	Doing      int
	Todo       int
	Blocked    int
	CreatedAt  time.Time
}

// Job is the persisted audit record of one pipeline invocation.
type Job struct {
	ID          string
	ProjectID   string
	Type        string
	Status      string
	RetryCount  int
	MaxRetries  int
	Result      string
	Error       string
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Store persists projects, tasks, snapshots, skills and jobs in a
// single sqlite database.
type Store struct {
	db *sqlx.DB
}

// New opens (or creates) the database at path, switches it to WAL mode
// and ensures the schema exists.
func New(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ErrStorage, err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent runs
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: enabling WAL: %v", ErrStorage, err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			repo_url TEXT NOT NULL UNIQUE,
			plan_path TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'red',
			last_updated INTEGER,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			file_path TEXT NOT NULL DEFAULT '',
			line_number INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (project_id) REFERENCES projects(id)
		)`,
		`CREATE TABLE IF NOT EXISTS progress_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			percentage REAL NOT NULL,
			total_count INTEGER NOT NULL,
			done_count INTEGER NOT NULL,
			doing_count INTEGER NOT NULL,
			todo_count INTEGER NOT NULL,
			blocked_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id)
		)`,
		`CREATE TABLE IF NOT EXISTS skills (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			confidence REAL NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (project_id) REFERENCES projects(id)
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			max_retries INTEGER NOT NULL DEFAULT 3,
			result TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			started_at INTEGER,
			completed_at INTEGER,
			FOREIGN KEY (project_id) REFERENCES projects(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_project ON progress_snapshots(project_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_skills_project ON skills(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_project ON jobs(project_id)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("%w: initializing schema: %v", ErrStorage, err)
		}
	}
	return nil
}

type projectRow struct {
	ID          string        `db:"id"`
	Name        string        `db:"name"`
	RepoURL     string        `db:"repo_url"`
	PlanPath    string        `db:"plan_path"`
	Status      string        `db:"status"`
	LastUpdated sql.NullInt64 `db:"last_updated"`
	CreatedAt   int64         `db:"created_at"`
	UpdatedAt   int64         `db:"updated_at"`
}

func (r projectRow) toProject() Project {
	p := Project{
		ID:        r.ID,
		Name:      r.Name,
		RepoURL:   r.RepoURL,
		PlanPath:  r.PlanPath,
		Status:    r.Status,
		CreatedAt: time.Unix(r.CreatedAt, 0),
		UpdatedAt: time.Unix(r.UpdatedAt, 0),
	}
	if r.LastUpdated.Valid && r.LastUpdated.Int64 > 0 {
		p.LastUpdated = time.Unix(r.LastUpdated.Int64, 0)
	}
	return p
}

// CreateProject inserts a new project record. A repo URL already
// registered by another project yields ErrDuplicate.
func (s *Store) CreateProject(ctx context.Context, p Project) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, repo_url, plan_path, status, last_updated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.RepoURL, p.PlanPath, p.Status, unixOrNull(p.LastUpdated), now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: repo url %s", ErrDuplicate, p.RepoURL)
		}
		return fmt.Errorf("%w: creating project: %v", ErrStorage, err)
	}
	return nil
}

// GetProject returns a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	var row projectRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM projects WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	if err != nil {
		return Project{}, fmt.Errorf("%w: getting project: %v", ErrStorage, err)
	}
	return row.toProject(), nil
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	var rows []projectRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing projects: %v", ErrStorage, err)
	}
	projects := make([]Project, 0, len(rows))
	for _, r := range rows {
		projects = append(projects, r.toProject())
	}
	return projects, nil
}

// UpdateProject rewrites a project's mutable fields.
func (s *Store) UpdateProject(ctx context.Context, p Project) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, repo_url = ?, plan_path = ?, status = ?, last_updated = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.RepoURL, p.PlanPath, p.Status, unixOrNull(p.LastUpdated), time.Now().Unix(), p.ID)
	if err != nil {
		return fmt.Errorf("%w: updating project: %v", ErrStorage, err)
	}
	return requireAffected(res, "project "+p.ID)
}

// DeleteProject removes a project and everything recorded for it.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting delete: %v", ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"tasks", "progress_snapshots", "skills", "jobs"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("%w: deleting %s: %v", ErrStorage, table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting project: %v", ErrStorage, err)
	}
	if err := requireAffected(res, "project "+id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing delete: %v", ErrStorage, err)
	}
	return nil
}

func unixOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking affected rows: %v", ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return nil
}

// ReplaceTasks swaps the project's task set atomically.
func (s *Store) ReplaceTasks(ctx context.Context, projectID string, tasks []plan.Task) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting task replace: %v", ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("%w: clearing tasks: %v", ErrStorage, err)
	}
	for _, t := range tasks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (project_id, title, status, file_path, line_number)
			VALUES (?, ?, ?, ?, ?)`,
			projectID, t.Title, string(t.Status), t.FilePath, t.LineNumber)
		if err != nil {
			return fmt.Errorf("%w: inserting task: %v", ErrStorage, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing tasks: %v", ErrStorage, err)
	}
	return nil
}

// ListTasks returns the project's current task set in insertion order.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]plan.Task, error) {
	var rows []struct {
		Title      string `db:"title"`
		Status     string `db:"status"`
		FilePath   string `db:"file_path"`
		LineNumber int    `db:"line_number"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT title, status, file_path, line_number FROM tasks WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing tasks: %v", ErrStorage, err)
	}
	tasks := make([]plan.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, plan.Task{
			Title:      r.Title,
			Status:     plan.TaskStatus(r.Status),
			FilePath:   r.FilePath,
			LineNumber: r.LineNumber,
		})
	}
	return tasks, nil
}

type snapshotRow struct {
	ID         int64   `db:"id"`
	ProjectID  string  `db:"project_id"`
	Percentage float64 `db:"percentage"`
	Total      int     `db:"total_count"`
	Done       int     `db:"done_count"`
	Doing      int     `db:"doing_count"`
	Todo       int     `db:"todo_count"`
	Blocked    int     `db:"blocked_count"`
	CreatedAt  int64   `db:"created_at"`
}

func (r snapshotRow) toSnapshot() Snapshot {
	return Snapshot{
		ID:         r.ID,
		ProjectID:  r.ProjectID,
		Percentage: r.Percentage,
		Total:      r.Total,
		Done:       r.Done,
		Doing:      r.Doing,
		Todo:       r.Todo,
		Blocked:    r.Blocked,
		CreatedAt:  time.Unix(r.CreatedAt, 0),
	}
}

// AppendSnapshot adds one progress snapshot to the project's timeline.
func (s *Store) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress_snapshots (project_id, percentage, total_count, done_count, doing_count, todo_count, blocked_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ProjectID, snap.Percentage, snap.Total, snap.Done, snap.Doing, snap.Todo, snap.Blocked, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("%w: appending snapshot: %v", ErrStorage, err)
	}
	return nil
}

// ListSnapshots returns up to limit snapshots, newest first. A limit of
// 0 or less returns everything.
func (s *Store) ListSnapshots(ctx context.Context, projectID string, limit int) ([]Snapshot, error) {
	q := `SELECT * FROM progress_snapshots WHERE project_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{projectID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []snapshotRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("%w: listing snapshots: %v", ErrStorage, err)
	}
	snaps := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		snaps = append(snaps, r.toSnapshot())
	}
	return snaps, nil
}

// LatestSnapshot returns the newest snapshot for a project.
func (s *Store) LatestSnapshot(ctx context.Context, projectID string) (Snapshot, error) {
	snaps, err := s.ListSnapshots(ctx, projectID, 1)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, fmt.Errorf("%w: snapshots for project %s", ErrNotFound, projectID)
	}
	return snaps[0], nil
}

// PruneSnapshots drops all but the newest keep snapshots for a project.
func (s *Store) PruneSnapshots(ctx context.Context, projectID string, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM progress_snapshots WHERE project_id = ? AND id NOT IN (
			SELECT id FROM progress_snapshots WHERE project_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
		)`, projectID, projectID, keep)
	if err != nil {
		return fmt.Errorf("%w: pruning snapshots: %v", ErrStorage, err)
	}
	return nil
}

// ReplaceSkills swaps the project's skill set atomically.
func (s *Store) ReplaceSkills(ctx context.Context, projectID string, set []skills.Skill) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting skill replace: %v", ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM skills WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("%w: clearing skills: %v", ErrStorage, err)
	}
	for _, sk := range set {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skills (project_id, name, category, confidence, source)
			VALUES (?, ?, ?, ?, ?)`,
			projectID, sk.Name, string(sk.Category), sk.Confidence, sk.Source)
		if err != nil {
			return fmt.Errorf("%w: inserting skill: %v", ErrStorage, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing skills: %v", ErrStorage, err)
	}
	return nil
}

// ListSkills returns the project's current skill set.
func (s *Store) ListSkills(ctx context.Context, projectID string) ([]skills.Skill, error) {
	var rows []struct {
		Name       string  `db:"name"`
		Category   string  `db:"category"`
		Confidence float64 `db:"confidence"`
		Source     string  `db:"source"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT name, category, confidence, source FROM skills WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing skills: %v", ErrStorage, err)
	}
	set := make([]skills.Skill, 0, len(rows))
	for _, r := range rows {
		set = append(set, skills.Skill{
			Name:       r.Name,
			Category:   skills.Category(r.Category),
			Confidence: r.Confidence,
			Source:     r.Source,
		})
	}
	return set, nil
}

// SkillCount is an aggregated skill occurrence across projects.
type SkillCount struct {
	Name     string `db:"name"`
	Category string `db:"category"`
	Count    int    `db:"count"`
}

// PopularSkills returns the most frequent skills across all projects.
func (s *Store) PopularSkills(ctx context.Context, limit int) ([]SkillCount, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []SkillCount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT name, category, COUNT(*) AS count FROM skills
		GROUP BY name, category ORDER BY count DESC, name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating skills: %v", ErrStorage, err)
	}
	return rows, nil
}

// SkillsByCategory returns per-category skill occurrence counts across
// all projects.
func (s *Store) SkillsByCategory(ctx context.Context) (map[string]map[string]int, error) {
	var rows []SkillCount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT name, category, COUNT(*) AS count FROM skills GROUP BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("%w: grouping skills: %v", ErrStorage, err)
	}
	out := map[string]map[string]int{}
	for _, r := range rows {
		if out[r.Category] == nil {
			out[r.Category] = map[string]int{}
		}
		out[r.Category][r.Name] = r.Count
	}
	return out, nil
}

type jobRow struct {
	ID          string        `db:"id"`
	ProjectID   string        `db:"project_id"`
	Type        string        `db:"type"`
	Status      string        `db:"status"`
	RetryCount  int           `db:"retry_count"`
	MaxRetries  int           `db:"max_retries"`
	Result      string        `db:"result"`
	Error       string        `db:"error"`
	CreatedAt   int64         `db:"created_at"`
	StartedAt   sql.NullInt64 `db:"started_at"`
	CompletedAt sql.NullInt64 `db:"completed_at"`
}

func (r jobRow) toJob() Job {
	j := Job{
		ID:         r.ID,
		ProjectID:  r.ProjectID,
		Type:       r.Type,
		Status:     r.Status,
		RetryCount: r.RetryCount,
		MaxRetries: r.MaxRetries,
		Result:     r.Result,
		Error:      r.Error,
		CreatedAt:  time.Unix(r.CreatedAt, 0),
	}
	if r.StartedAt.Valid {
		j.StartedAt = time.Unix(r.StartedAt.Int64, 0)
	}
	if r.CompletedAt.Valid {
		j.CompletedAt = time.Unix(r.CompletedAt.Int64, 0)
	}
	return j
}

// UpsertJob inserts or rewrites a job record.
func (s *Store) UpsertJob(ctx context.Context, j Job) error {
	createdAt := j.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, project_id, type, status, retry_count, max_retries, result, error, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			retry_count = excluded.retry_count,
			result = excluded.result,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at`,
		j.ID, j.ProjectID, j.Type, j.Status, j.RetryCount, j.MaxRetries,
		j.Result, j.Error, createdAt.Unix(), unixOrNull(j.StartedAt), unixOrNull(j.CompletedAt))
	if err != nil {
		return fmt.Errorf("%w: upserting job: %v", ErrStorage, err)
	}
	return nil
}

// GetJob returns a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (Job, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM jobs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	if err != nil {
		return Job{}, fmt.Errorf("%w: getting job: %v", ErrStorage, err)
	}
	return row.toJob(), nil
}

// ListJobs returns a project's jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, projectID string) ([]Job, error) {
	var rows []jobRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM jobs WHERE project_id = ? ORDER BY created_at DESC, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing jobs: %v", ErrStorage, err)
	}
	jobs := make([]Job, 0, len(rows))
	for _, r := range rows {
		jobs = append(jobs, r.toJob())
	}
	return jobs, nil
}
