package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/antigravity-dev/codegraph/internal/errs"
	"github.com/antigravity-dev/codegraph/internal/model"
)

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace_id")
	projects, err := s.graph.ListProjects(workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset := pagination(r)
	writeJSON(w, http.StatusOK, paginateSlice(projects, limit, offset))
}

type createProjectRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Slug        string `json:"slug"`
	RootPath    string `json:"root_path"`
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, errs.Validationf("decode project body: %v", err))
		return
	}
	if req.Slug == "" || req.RootPath == "" {
		writeError(w, errs.Validation("slug and root_path are required"))
		return
	}

	p := model.Project{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		Slug:        req.Slug,
		RootPath:    req.RootPath,
	}
	if err := s.graph.PutProject(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.graph.GetProject(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if p == nil {
		writeError(w, errs.NotFound("project "+id))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
