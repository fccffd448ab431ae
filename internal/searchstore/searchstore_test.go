package searchstore

import (
	"testing"

	"github.com/antigravity-dev/codegraph/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIndexAndSearchCodeDocument(t *testing.T) {
	s := newTestStore(t)

	doc := BuildCodeDocument(
		model.File{Path: "internal/graphstore/edges.go", ProjectID: "p1", Language: "go"},
		[]model.Function{{Name: "TraversePath", Docstring: "breadth-first search over typed edges"}},
		nil, nil,
	)
	if err := s.IndexDocument(doc); err != nil {
		t.Fatalf("IndexDocument failed: %v", err)
	}

	results, err := s.Search(KindCode, "TraversePath breadth-first", Filters{ProjectSlug: "p1"}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Document.ID != doc.ID {
		t.Errorf("expected doc id %s, got %s", doc.ID, results[0].Document.ID)
	}
	if results[0].Score <= 0 || results[0].Score > 1 {
		t.Errorf("score out of range: %v", results[0].Score)
	}
}

func TestSearchFiltersByProject(t *testing.T) {
	s := newTestStore(t)

	must(t, s.IndexDocument(Document{ID: "a", Kind: KindCode, ProjectID: "p1", Content: "parser tokenizer lexer"}))
	must(t, s.IndexDocument(Document{ID: "b", Kind: KindCode, ProjectID: "p2", Content: "parser tokenizer lexer"}))

	results, err := s.Search(KindCode, "parser tokenizer", Filters{ProjectSlug: "p1"}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Document.ID != "a" {
		t.Fatalf("expected only doc a, got %v", results)
	}
}

func TestSearchNoteFilters(t *testing.T) {
	s := newTestStore(t)

	must(t, s.IndexDocument(Document{
		ID: "n1", Kind: KindNote, ProjectID: "p1", Content: "watch out for the retry loop",
		NoteType: "gotcha", NoteStatus: "active", Importance: "high",
	}))
	must(t, s.IndexDocument(Document{
		ID: "n2", Kind: KindNote, ProjectID: "p1", Content: "watch out for the retry loop",
		NoteType: "gotcha", NoteStatus: "stale", Importance: "low",
	}))

	results, err := s.Search(KindNote, "retry loop", Filters{ProjectSlug: "p1", NoteStatus: "active"}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Document.ID != "n1" {
		t.Fatalf("expected only n1, got %v", results)
	}
}

func TestCleanupOrphans(t *testing.T) {
	s := newTestStore(t)

	must(t, s.IndexDocument(Document{ID: "a", Kind: KindCode, ProjectID: "p1", Content: "x"}))
	must(t, s.IndexDocument(Document{ID: "b", Kind: KindCode, ProjectID: "", Content: "y"}))
	must(t, s.IndexDocument(Document{ID: "c", Kind: KindCode, ProjectID: "gone", Content: "z"}))

	n, err := s.CleanupOrphans(map[string]bool{"p1": true})
	if err != nil {
		t.Fatalf("CleanupOrphans failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 orphans removed, got %d", n)
	}
}

func TestIndexBatch(t *testing.T) {
	s := newTestStore(t)

	docs := make([]Document, 0, 3)
	for i := 0; i < 3; i++ {
		docs = append(docs, Document{ID: string(rune('a' + i)), Kind: KindCode, ProjectID: "p1", Content: "shared term"})
	}
	if err := s.IndexBatch(docs); err != nil {
		t.Fatalf("IndexBatch failed: %v", err)
	}

	results, err := s.Search(KindCode, "shared", Filters{}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestMockExactAndSubstringScores(t *testing.T) {
	m := NewMock()
	must(t, m.IndexDocument(Document{ID: "exact", Kind: KindNote, Content: "Retry Loop"}))
	must(t, m.IndexDocument(Document{ID: "sub", Kind: KindNote, Content: "beware the retry loop edge case"}))
	must(t, m.IndexDocument(Document{ID: "none", Kind: KindNote, Content: "totally unrelated"}))

	results, err := m.Search(KindNote, "retry loop", Filters{}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
	if results[0].Document.ID != "exact" || results[0].Score != 1.0 {
		t.Errorf("expected exact match first with score 1.0, got %+v", results[0])
	}
	if results[1].Document.ID != "sub" || results[1].Score != 0.5 {
		t.Errorf("expected substring match second with score 0.5, got %+v", results[1])
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
