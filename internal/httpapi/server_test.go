package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/model"
	"github.com/antigravity-dev/codegraph/internal/notes"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	graph, err := graphstore.New(":memory:", 4)
	if err != nil {
		t.Fatalf("graphstore.New: %v", err)
	}
	search := searchstore.NewMock()
	noteMgr := notes.New(graph, search)
	return NewServer(graph, search, noteMgr)
}

func doRequest(t *testing.T, srv *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestProjectCRUD(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/projects", createProjectRequest{Slug: "codegraph", RootPath: "/tmp/codegraph"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created model.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal created project: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated project id")
	}

	rec = doRequest(t, srv, http.MethodGet, "/projects/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get project: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/projects", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list projects: status = %d", rec.Code)
	}
	var listed page
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal project page: %v", err)
	}
	if listed.Total != 1 {
		t.Errorf("Total = %d, want 1", listed.Total)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/projects/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPlanAndTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/projects", createProjectRequest{Slug: "codegraph", RootPath: "/tmp/codegraph"})
	var project model.Project
	json.Unmarshal(rec.Body.Bytes(), &project)

	rec = doRequest(t, srv, http.MethodPost, "/plans", createPlanRequest{ProjectID: project.ID, Name: "v1 rollout"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create plan: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var plan model.Plan
	json.Unmarshal(rec.Body.Bytes(), &plan)
	if plan.Status != model.PlanDraft {
		t.Errorf("Status = %q, want draft", plan.Status)
	}

	rec = doRequest(t, srv, http.MethodPut, "/plans/"+plan.ID, updatePlanRequest{Status: string(model.PlanApproved)})
	if rec.Code != http.StatusOK {
		t.Fatalf("update plan: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var updated model.Plan
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Status != model.PlanApproved {
		t.Errorf("Status = %q, want approved", updated.Status)
	}

	rec = doRequest(t, srv, http.MethodPost, "/tasks", createTaskRequest{PlanID: plan.ID, Title: "wire scheduler", Priority: 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var task model.Task
	json.Unmarshal(rec.Body.Bytes(), &task)

	rec = doRequest(t, srv, http.MethodGet, "/plans/"+plan.ID+"/tasks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tasks: status = %d", rec.Code)
	}
	var tasksPage page
	json.Unmarshal(rec.Body.Bytes(), &tasksPage)
	if tasksPage.Total != 1 {
		t.Errorf("Total = %d, want 1", tasksPage.Total)
	}

	rec = doRequest(t, srv, http.MethodPut, "/tasks/"+task.ID, updateTaskRequest{Status: string(model.TaskCompleted)})
	if rec.Code != http.StatusOK {
		t.Fatalf("update task: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestNoteLifecycleAndConfirm(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/notes", createNoteRequest{
		ProjectID: "proj-1",
		Type:      model.NoteGotcha,
		Scope:     model.NoteScope{Kind: model.ScopeProject, Value: "proj-1"},
		Content:   "watch for nil graph on cold start",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create note: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var note model.Note
	json.Unmarshal(rec.Body.Bytes(), &note)

	rec = doRequest(t, srv, http.MethodPut, "/notes/"+note.ID+"/confirm", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm note: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var confirmed model.Note
	json.Unmarshal(rec.Body.Bytes(), &confirmed)
	if confirmed.Status != model.NoteActive {
		t.Errorf("Status = %q, want active", confirmed.Status)
	}

	rec = doRequest(t, srv, http.MethodGet, "/notes?project_id=proj-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list notes: status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/notes/"+note.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete note: status = %d", rec.Code)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchReturnsIndexedDocument(t *testing.T) {
	srv := newTestServer(t)
	if err := srv.search.IndexDocument(searchstore.Document{
		ID: "doc-1", Kind: searchstore.KindCode, ProjectID: "proj-1",
		Language: "go", Content: "func Retrieve handles spreading activation",
	}); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/search?q=Retrieve&kind=code", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var results page
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("unmarshal search page: %v", err)
	}
	if results.Total == 0 {
		t.Error("expected at least one search result")
	}
}
