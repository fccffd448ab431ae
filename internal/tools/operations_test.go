package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/model"
	"github.com/antigravity-dev/codegraph/internal/neural"
	"github.com/antigravity-dev/codegraph/internal/notes"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
	gosync "github.com/antigravity-dev/codegraph/internal/sync"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}
func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}
func (stubEmbedder) Dimensions() int { return 4 }
func (stubEmbedder) Name() string    { return "stub" }

func newTestDeps(t *testing.T) (*graphstore.Store, searchstore.Index, *notes.Manager, *neural.Engine, *gosync.Pipeline) {
	t.Helper()
	graph, err := graphstore.New(":memory:", 4)
	if err != nil {
		t.Fatalf("graphstore.New: %v", err)
	}
	search := searchstore.NewMock()
	noteMgr := notes.New(graph, search)
	neuralEngine := neural.New(graph, stubEmbedder{})
	pipeline := gosync.New(graph, search)
	return graph, search, noteMgr, neuralEngine, pipeline
}

func TestRegisterDomainOperationsRegistersEveryCategory(t *testing.T) {
	graph, search, noteMgr, neuralEngine, pipeline := newTestDeps(t)
	reg := NewRegistry()
	if err := RegisterDomainOperations(reg, graph, search, noteMgr, neuralEngine, pipeline); err != nil {
		t.Fatalf("RegisterDomainOperations: %v", err)
	}

	for _, name := range []string{
		"find_dependent_files", "get_function_callers", "get_function_callees", "traverse_path",
		"search", "get_context_notes", "confirm_note", "update_staleness_scores",
		"neural_retrieve", "boost_note_energy", "sync_project",
	} {
		if !reg.Has(name) {
			t.Errorf("expected operation %q to be registered", name)
		}
	}
}

func TestFindDependentFilesRejectsMissingRequiredArg(t *testing.T) {
	graph, search, noteMgr, neuralEngine, pipeline := newTestDeps(t)
	reg := NewRegistry()
	if err := RegisterDomainOperations(reg, graph, search, noteMgr, neuralEngine, pipeline); err != nil {
		t.Fatalf("RegisterDomainOperations: %v", err)
	}

	_, err := reg.Execute(context.Background(), "find_dependent_files", map[string]any{"project_id": "p1"})
	if err == nil {
		t.Fatal("expected error for missing file_path")
	}
}

func TestSearchOperationRejectsUnknownKind(t *testing.T) {
	graph, search, noteMgr, neuralEngine, pipeline := newTestDeps(t)
	reg := NewRegistry()
	if err := RegisterDomainOperations(reg, graph, search, noteMgr, neuralEngine, pipeline); err != nil {
		t.Fatalf("RegisterDomainOperations: %v", err)
	}

	_, err := reg.Execute(context.Background(), "search", map[string]any{"kind": "bogus", "query": "x"})
	if err == nil {
		t.Fatal("expected error for unrecognized kind")
	}
}

func TestSearchOperationReturnsResults(t *testing.T) {
	graph, search, noteMgr, neuralEngine, pipeline := newTestDeps(t)
	if err := search.IndexDocument(searchstore.Document{
		ID: "d1", Kind: searchstore.KindCode, ProjectID: "p1", Content: "parser tokenizer lexer",
	}); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	reg := NewRegistry()
	if err := RegisterDomainOperations(reg, graph, search, noteMgr, neuralEngine, pipeline); err != nil {
		t.Fatalf("RegisterDomainOperations: %v", err)
	}

	result, err := reg.Execute(context.Background(), "search", map[string]any{
		"kind": "code", "query": "tokenizer", "project_slug": "p1",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Result == "" || result.Result == "[]" {
		t.Errorf("expected non-empty search results, got %q", result.Result)
	}
}

func TestConfirmNoteOperation(t *testing.T) {
	graph, search, noteMgr, neuralEngine, pipeline := newTestDeps(t)
	n := model.Note{ID: "n1", ProjectID: "p1", Type: model.NoteTip, Status: model.NoteStale, Content: "watch the retry loop"}
	if err := graph.PutNote(n); err != nil {
		t.Fatalf("PutNote: %v", err)
	}

	reg := NewRegistry()
	if err := RegisterDomainOperations(reg, graph, search, noteMgr, neuralEngine, pipeline); err != nil {
		t.Fatalf("RegisterDomainOperations: %v", err)
	}

	if _, err := reg.Execute(context.Background(), "confirm_note", map[string]any{"note_id": "n1"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, err := graph.GetNote("n1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Status != model.NoteActive {
		t.Errorf("expected note reset to active, got %s", got.Status)
	}
}

func TestSyncProjectOperationRunsPipeline(t *testing.T) {
	graph, search, noteMgr, neuralEngine, pipeline := newTestDeps(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	project := model.Project{ID: "proj1", Slug: "proj1", RootPath: dir}
	if err := graph.PutProject(project); err != nil {
		t.Fatalf("PutProject: %v", err)
	}

	reg := NewRegistry()
	if err := RegisterDomainOperations(reg, graph, search, noteMgr, neuralEngine, pipeline); err != nil {
		t.Fatalf("RegisterDomainOperations: %v", err)
	}

	result, err := reg.Execute(context.Background(), "sync_project", map[string]any{"project_id": "proj1"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Result == "" {
		t.Error("expected a non-empty sync result")
	}
}

func TestSyncProjectOperationUnknownProject(t *testing.T) {
	graph, search, noteMgr, neuralEngine, pipeline := newTestDeps(t)
	reg := NewRegistry()
	if err := RegisterDomainOperations(reg, graph, search, noteMgr, neuralEngine, pipeline); err != nil {
		t.Fatalf("RegisterDomainOperations: %v", err)
	}

	_, err := reg.Execute(context.Background(), "sync_project", map[string]any{"project_id": "nope"})
	if err == nil {
		t.Fatal("expected error for unknown project id")
	}
}
