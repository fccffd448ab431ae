package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/antigravity-dev/codegraph/internal/errs"
	"github.com/antigravity-dev/codegraph/internal/model"
)

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, errs.Validation("project_id query param is required"))
		return
	}

	var items []model.Note
	var err error
	if kind := r.URL.Query().Get("scope_kind"); kind != "" {
		items, err = s.graph.ListNotesByScope(projectID, model.NoteScopeKind(kind), r.URL.Query().Get("scope_value"))
	} else {
		items, err = s.graph.ListActiveNotes(projectID)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	limit, offset := pagination(r)
	writeJSON(w, http.StatusOK, paginateSlice(items, limit, offset))
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, err := s.graph.GetNote(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type createNoteRequest struct {
	ProjectID  string            `json:"project_id"`
	Type       model.NoteType    `json:"note_type"`
	Importance model.NoteImportance `json:"importance"`
	Scope      model.NoteScope   `json:"scope"`
	Content    string            `json:"content"`
	Tags       []string          `json:"tags,omitempty"`
	CreatedBy  string            `json:"created_by,omitempty"`
	Anchors    []model.NoteAnchor `json:"anchors,omitempty"`
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, errs.Validationf("decode note body: %v", err))
		return
	}
	if req.ProjectID == "" || req.Content == "" {
		writeError(w, errs.Validation("project_id and content are required"))
		return
	}
	if req.Importance == "" {
		req.Importance = model.ImportanceMedium
	}

	n := model.Note{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		Type:       req.Type,
		Importance: req.Importance,
		Scope:      req.Scope,
		Content:    req.Content,
		Tags:       req.Tags,
		CreatedBy:  req.CreatedBy,
	}
	if err := s.notes.CreateNote(n, req.Anchors, nil, nil); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) confirmNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.notes.Confirm(id); err != nil {
		writeError(w, err)
		return
	}
	n, err := s.graph.GetNote(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.graph.DeleteNote(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
