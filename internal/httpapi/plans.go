package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/antigravity-dev/codegraph/internal/errs"
	"github.com/antigravity-dev/codegraph/internal/model"
)

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectID")
	plans, err := s.graph.ListPlans(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset := pagination(r)
	writeJSON(w, http.StatusOK, paginateSlice(plans, limit, offset))
}

type createPlanRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, errs.Validationf("decode plan body: %v", err))
		return
	}
	if req.ProjectID == "" || req.Name == "" {
		writeError(w, errs.Validation("project_id and name are required"))
		return
	}

	p := model.Plan{
		ID:        uuid.NewString(),
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Status:    model.PlanDraft,
	}
	if err := s.graph.PutPlan(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.graph.GetPlan(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updatePlanRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (s *Server) updatePlan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.graph.GetPlan(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updatePlanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, errs.Validationf("decode plan body: %v", err))
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Status != "" {
		existing.Status = model.PlanStatus(req.Status)
	}
	if err := s.graph.PutPlan(*existing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}
