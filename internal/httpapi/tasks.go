package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/antigravity-dev/codegraph/internal/errs"
	"github.com/antigravity-dev/codegraph/internal/model"
)

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	planID := r.PathValue("planID")
	tasks, err := s.graph.ListTasks(planID)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset := pagination(r)
	writeJSON(w, http.StatusOK, paginateSlice(tasks, limit, offset))
}

type createTaskRequest struct {
	PlanID    string   `json:"plan_id"`
	Title     string   `json:"title"`
	Priority  int      `json:"priority"`
	DependsOn []string `json:"depends_on,omitempty"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, errs.Validationf("decode task body: %v", err))
		return
	}
	if req.PlanID == "" || req.Title == "" {
		writeError(w, errs.Validation("plan_id and title are required"))
		return
	}

	t := model.Task{
		ID:        uuid.NewString(),
		PlanID:    req.PlanID,
		Title:     req.Title,
		Status:    model.TaskPending,
		Priority:  req.Priority,
		DependsOn: req.DependsOn,
	}
	if err := s.graph.PutTask(t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := s.graph.GetTask(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type updateTaskRequest struct {
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority *int   `json:"priority,omitempty"`
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.graph.GetTask(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, errs.Validationf("decode task body: %v", err))
		return
	}
	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.Status != "" {
		existing.Status = model.TaskStatus(req.Status)
	}
	if req.Priority != nil {
		existing.Priority = *req.Priority
	}
	if err := s.graph.PutTask(*existing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}
