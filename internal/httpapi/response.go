package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/antigravity-dev/codegraph/internal/errs"
	"github.com/antigravity-dev/codegraph/internal/logging"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// page is the paginated list envelope every list route returns.
type page struct {
	Items   interface{} `json:"items"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

// pagination reads limit/offset query params, clamping to sane bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// paginateSlice slices a full result set in memory. The backing stores don't
// support LIMIT/OFFSET at the query level yet, so list routes fetch the
// full set and page it here; fine at the scale this shell targets.
func paginateSlice[T any](items []T, limit, offset int) page {
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	slice := items[offset:end]
	if slice == nil {
		slice = []T{}
	}
	return page{
		Items:   slice,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.HTTPError("encode response: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps a store error to an HTTP status via the errs sentinels,
// falling back to 500 for anything unclassified.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrUpstream):
		status = http.StatusBadGateway
	case errors.Is(err, errs.ErrParse):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		logging.HTTPError("unhandled request error: %v", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
