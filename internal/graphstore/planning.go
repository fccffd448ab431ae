package graphstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/antigravity-dev/codegraph/internal/errs"
	"github.com/antigravity-dev/codegraph/internal/model"
)

// PutProject inserts or updates a Project.
func (s *Store) PutProject(p model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO projects (id, workspace_id, slug, root_path, last_synced, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   workspace_id = excluded.workspace_id, slug = excluded.slug,
		   last_synced = excluded.last_synced, updated_at = excluded.updated_at`,
		p.ID, p.WorkspaceID, p.Slug, p.RootPath, p.LastSynced, now, now,
	)
	return err
}

// GetProjectByRoot fetches a project by its filesystem root, the natural
// key sync operates on.
func (s *Store) GetProjectByRoot(rootPath string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var p model.Project
	err := s.db.QueryRow(
		`SELECT id, workspace_id, slug, root_path, last_synced, created_at, updated_at
		 FROM projects WHERE root_path = ?`, rootPath,
	).Scan(&p.ID, &p.WorkspaceID, &p.Slug, &p.RootPath, &p.LastSynced, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProject fetches a project by id, the key the tool dispatch table and
// RPC/HTTP surfaces address projects by.
func (s *Store) GetProject(id string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var p model.Project
	err := s.db.QueryRow(
		`SELECT id, workspace_id, slug, root_path, last_synced, created_at, updated_at
		 FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.WorkspaceID, &p.Slug, &p.RootPath, &p.LastSynced, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns every known project, optionally narrowed to a
// workspace. An empty workspaceID lists across all workspaces.
func (s *Store) ListProjects(workspaceID string) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, workspace_id, slug, root_path, last_synced, created_at, updated_at FROM projects`
	args := []interface{}{}
	if workspaceID != "" {
		query += ` WHERE workspace_id = ?`
		args = append(args, workspaceID)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Slug, &p.RootPath, &p.LastSynced, &p.CreatedAt, &p.UpdatedAt); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// TouchProjectSynced updates a project's last_synced timestamp.
func (s *Store) TouchProjectSynced(projectID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE projects SET last_synced = ?, updated_at = ? WHERE id = ?`, at, time.Now().UTC(), projectID)
	return err
}

// PutPlan inserts or updates a Plan.
func (s *Store) PutPlan(p model.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO plans (id, project_id, name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, status = excluded.status, updated_at = excluded.updated_at`,
		p.ID, p.ProjectID, p.Name, string(p.Status), now, now,
	)
	return err
}

// GetPlan fetches a plan by id.
func (s *Store) GetPlan(id string) (*model.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var p model.Plan
	var status string
	err := s.db.QueryRow(
		`SELECT id, project_id, name, status, created_at, updated_at FROM plans WHERE id = ?`, id,
	).Scan(&p.ID, &p.ProjectID, &p.Name, &status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound(fmt.Sprintf("plan %s", id))
	}
	if err != nil {
		return nil, err
	}
	p.Status = model.PlanStatus(status)
	return &p, nil
}

// ListPlans returns every plan belonging to a project.
func (s *Store) ListPlans(projectID string) ([]model.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT id, project_id, name, status, created_at, updated_at
		 FROM plans WHERE project_id = ?`, projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Plan
	for rows.Next() {
		var p model.Plan
		var status string
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			continue
		}
		p.Status = model.PlanStatus(status)
		out = append(out, p)
	}
	return out, nil
}

// PutTask inserts or updates a Task.
func (s *Store) PutTask(t model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	dependsJSON, _ := json.Marshal(t.DependsOn)
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, plan_id, title, status, priority, depends_on_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, status = excluded.status, priority = excluded.priority,
		   depends_on_json = excluded.depends_on_json, updated_at = excluded.updated_at`,
		t.ID, t.PlanID, t.Title, string(t.Status), t.Priority, string(dependsJSON), now, now,
	)
	return err
}

// GetTask fetches a task by id.
func (s *Store) GetTask(id string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var t model.Task
	var status, dependsJSON string
	err := s.db.QueryRow(
		`SELECT id, plan_id, title, status, priority, depends_on_json, created_at, updated_at
		 FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.PlanID, &t.Title, &status, &t.Priority, &dependsJSON, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound(fmt.Sprintf("task %s", id))
	}
	if err != nil {
		return nil, err
	}
	t.Status = model.TaskStatus(status)
	_ = json.Unmarshal([]byte(dependsJSON), &t.DependsOn)
	return &t, nil
}

// ListTasks returns every task belonging to a plan.
func (s *Store) ListTasks(planID string) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT id, plan_id, title, status, priority, depends_on_json, created_at, updated_at
		 FROM tasks WHERE plan_id = ?`, planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		var status, dependsJSON string
		if err := rows.Scan(&t.ID, &t.PlanID, &t.Title, &status, &t.Priority, &dependsJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			continue
		}
		t.Status = model.TaskStatus(status)
		_ = json.Unmarshal([]byte(dependsJSON), &t.DependsOn)
		out = append(out, t)
	}
	return out, nil
}

// GetCriticalPath computes the longest chain of uncompleted tasks through a
// plan (by count of hops), the path that determines the plan's minimum
// remaining completion time since dependent tasks cannot start before all
// of their DependsOn entries complete. Completed tasks carry no remaining
// work and are excluded from the chain; a dependency on a completed task is
// treated as already satisfied rather than extending the path.
func (s *Store) GetCriticalPath(planID string) ([]string, error) {
	tasks, err := s.ListTasks(planID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	memo := make(map[string][]string)
	var longest func(id string, visiting map[string]bool) []string
	longest = func(id string, visiting map[string]bool) []string {
		if path, ok := memo[id]; ok {
			return path
		}
		t, ok := byID[id]
		if !ok || t.Status == model.TaskCompleted {
			// Completed (or unknown) tasks contribute no remaining work.
			return nil
		}
		if visiting[id] {
			// Dependency cycle; stop here rather than recursing forever.
			return []string{id}
		}
		visiting[id] = true
		defer delete(visiting, id)

		var best []string
		for _, dep := range t.DependsOn {
			candidate := longest(dep, visiting)
			if len(candidate) > len(best) {
				best = candidate
			}
		}
		path := append(append([]string{}, best...), id)
		memo[id] = path
		return path
	}

	var critical []string
	for _, t := range tasks {
		if t.Status == model.TaskCompleted {
			continue
		}
		path := longest(t.ID, map[string]bool{})
		if len(path) > len(critical) {
			critical = path
		}
	}
	return critical, nil
}

// GetNextAvailableTask returns the highest-priority pending task whose
// dependencies have all completed, or nil if none are ready.
func (s *Store) GetNextAvailableTask(planID string) (*model.Task, error) {
	tasks, err := s.ListTasks(planID)
	if err != nil {
		return nil, err
	}
	status := make(map[string]model.TaskStatus, len(tasks))
	for _, t := range tasks {
		status[t.ID] = t.Status
	}

	var best *model.Task
	for i := range tasks {
		t := &tasks[i]
		if t.Status != model.TaskPending {
			continue
		}
		ready := true
		for _, dep := range t.DependsOn {
			if status[dep] != model.TaskCompleted {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}
		switch {
		case best == nil:
			best = t
		case t.Priority > best.Priority:
			best = t
		case t.Priority == best.Priority && t.CreatedAt.Before(best.CreatedAt):
			best = t
		}
	}
	return best, nil
}

// PutStep inserts or updates a Step.
func (s *Store) PutStep(st model.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO steps (id, task_id, ordinal, summary, done, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET summary = excluded.summary, done = excluded.done`,
		st.ID, st.TaskID, st.Ordinal, st.Summary, st.Done, time.Now().UTC(),
	)
	return err
}

// PutDecision inserts a Decision record.
func (s *Store) PutDecision(d model.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO decisions (id, plan_id, summary, rationale, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET summary = excluded.summary, rationale = excluded.rationale`,
		d.ID, d.PlanID, d.Summary, d.Rationale, time.Now().UTC(),
	)
	return err
}

// ListDecisions returns every decision for a plan, newest first.
func (s *Store) ListDecisions(planID string) ([]model.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT id, plan_id, summary, rationale, created_at FROM decisions WHERE plan_id = ? ORDER BY created_at DESC`,
		planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Decision
	for rows.Next() {
		var d model.Decision
		if err := rows.Scan(&d.ID, &d.PlanID, &d.Summary, &d.Rationale, &d.CreatedAt); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// PutConstraint inserts a Constraint record.
func (s *Store) PutConstraint(c model.Constraint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO constraints (id, plan_id, summary, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET summary = excluded.summary`,
		c.ID, c.PlanID, c.Summary, time.Now().UTC(),
	)
	return err
}

// PutMilestone inserts or updates a Milestone.
func (s *Store) PutMilestone(m model.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO milestones (id, project_id, name, due_at, reached, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, due_at = excluded.due_at, reached = excluded.reached`,
		m.ID, m.ProjectID, m.Name, m.DueAt, m.Reached, time.Now().UTC(),
	)
	return err
}

// PutRelease inserts a Release.
func (s *Store) PutRelease(r model.Release) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO releases (id, project_id, version, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET version = excluded.version`,
		r.ID, r.ProjectID, r.Version, time.Now().UTC(),
	)
	return err
}

// PutCommit inserts a Commit.
func (s *Store) PutCommit(c model.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO commits (id, project_id, sha, message, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET message = excluded.message`,
		c.ID, c.ProjectID, c.SHA, c.Message, time.Now().UTC(),
	)
	return err
}
