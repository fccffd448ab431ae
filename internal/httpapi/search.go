package httpapi

import (
	"net/http"

	"github.com/antigravity-dev/codegraph/internal/errs"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, errs.Validation("q query param is required"))
		return
	}

	kind := searchstore.DocumentKind(q.Get("kind"))
	if kind == "" {
		kind = searchstore.KindCode
	}

	filters := searchstore.Filters{
		Language:    q.Get("language"),
		ProjectSlug: q.Get("project_slug"),
		NoteType:    q.Get("note_type"),
		NoteStatus:  q.Get("note_status"),
		Importance:  q.Get("importance"),
	}

	limit, offset := pagination(r)
	results, err := s.search.Search(kind, query, filters, limit+offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, paginateSlice(results, limit, offset))
}
