package graphstore

import (
	"testing"

	"github.com/antigravity-dev/codegraph/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:", 8)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndQueryEdges(t *testing.T) {
	s := newTestStore(t)

	if err := s.PutEdge("proj1", Edge{Kind: model.EdgeCalls, SrcID: "f1", DstID: "f2", Weight: 1.5}); err != nil {
		t.Fatalf("PutEdge failed: %v", err)
	}

	edges, err := s.QueryEdges("proj1", "f1", model.EdgeCalls, "outgoing")
	if err != nil {
		t.Fatalf("QueryEdges failed: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].DstID != "f2" {
		t.Errorf("expected dst f2, got %s", edges[0].DstID)
	}
	if edges[0].Weight != 1.5 {
		t.Errorf("expected weight 1.5, got %v", edges[0].Weight)
	}
}

func TestTraversePathEdges(t *testing.T) {
	s := newTestStore(t)

	// A -> B -> C
	must(t, s.PutEdge("proj1", Edge{Kind: model.EdgeCalls, SrcID: "A", DstID: "B"}))
	must(t, s.PutEdge("proj1", Edge{Kind: model.EdgeCalls, SrcID: "B", DstID: "C"}))

	path, err := s.TraversePath("proj1", "A", "C", model.EdgeCalls, 10)
	if err != nil {
		t.Fatalf("TraversePath failed: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("expected path length 2, got %d", len(path))
	}
	if path[0].DstID != "B" || path[1].DstID != "C" {
		t.Errorf("unexpected path: %+v", path)
	}
}

func TestFindDependentFiles(t *testing.T) {
	s := newTestStore(t)

	// b.go depends on a.go, c.go depends on b.go
	must(t, s.PutEdge("proj1", Edge{Kind: model.EdgeDependsOn, SrcID: "b.go", DstID: "a.go"}))
	must(t, s.PutEdge("proj1", Edge{Kind: model.EdgeDependsOn, SrcID: "c.go", DstID: "b.go"}))

	deps, err := s.FindDependentFiles("proj1", "a.go", 5)
	if err != nil {
		t.Fatalf("FindDependentFiles failed: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("expected 2 transitive dependents, got %d: %v", len(deps), deps)
	}
}

func TestGetFunctionCallersAndCallees(t *testing.T) {
	s := newTestStore(t)

	must(t, s.PutEdge("proj1", Edge{Kind: model.EdgeCalls, SrcID: "main", DstID: "helper"}))
	must(t, s.PutEdge("proj1", Edge{Kind: model.EdgeCalls, SrcID: "other", DstID: "helper"}))

	callers, err := s.GetFunctionCallers("proj1", "helper")
	if err != nil {
		t.Fatalf("GetFunctionCallers failed: %v", err)
	}
	if len(callers) != 2 {
		t.Fatalf("expected 2 callers, got %d", len(callers))
	}

	callees, err := s.GetFunctionCallees("proj1", "main")
	if err != nil {
		t.Fatalf("GetFunctionCallees failed: %v", err)
	}
	if len(callees) != 1 || callees[0] != "helper" {
		t.Fatalf("expected callee helper, got %v", callees)
	}
}

func TestDeleteEdgesForNode(t *testing.T) {
	s := newTestStore(t)

	must(t, s.PutEdge("proj1", Edge{Kind: model.EdgeCalls, SrcID: "f1", DstID: "f2"}))
	must(t, s.DeleteEdgesForNode("proj1", "f1"))

	edges, err := s.QueryEdges("proj1", "f1", "", "both")
	if err != nil {
		t.Fatalf("QueryEdges failed: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("expected no edges after delete, got %d", len(edges))
	}
}

// TestGetPropagatedNotesResolvesReachedNodeKind is the scenario the CONTAINS
// hop exercises in practice: the seed is a file, but the BFS reaches a
// function, a different entity kind than the seed. A note anchored on the
// function (not the file) must still be found.
func TestGetPropagatedNotesResolvesReachedNodeKind(t *testing.T) {
	s := newTestStore(t)

	must(t, s.UpsertFile(model.File{ProjectID: "proj1", Path: "auth.go"}))
	must(t, s.UpsertFunction("proj1", model.Function{ID: "fn:auth.go:Login", FilePath: "auth.go", Name: "Login"}))
	must(t, s.PutEdge("proj1", Edge{Kind: model.EdgeContains, SrcID: "auth.go", DstID: "fn:auth.go:Login"}))

	n := model.Note{ID: "n1", ProjectID: "proj1", Type: model.NoteGotcha, Importance: model.ImportanceHigh}
	must(t, s.PutNote(n))
	must(t, s.PutNoteAnchor(model.NoteAnchor{ID: "a1", NoteID: "n1", EntityType: model.AnchorFunction, EntityID: "fn:auth.go:Login"}))

	notes, err := s.GetPropagatedNotes("proj1", model.AnchorFile, "auth.go", 3, 0)
	if err != nil {
		t.Fatalf("GetPropagatedNotes failed: %v", err)
	}
	if len(notes) != 1 || notes[0].NoteID != "n1" {
		t.Fatalf("expected to find note anchored on the reached function, got %+v", notes)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
