package notes

import (
	"testing"
	"time"

	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/hashing"
	"github.com/antigravity-dev/codegraph/internal/model"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
)

func newTestManager(t *testing.T) (*Manager, *graphstore.Store) {
	t.Helper()
	graph, err := graphstore.New(":memory:", 8)
	if err != nil {
		t.Fatalf("graphstore.New: %v", err)
	}
	t.Cleanup(func() { graph.Close() })
	return New(graph, searchstore.NewMock()), graph
}

func sampleFunction(id, name, returnType string) model.Function {
	return model.Function{
		ID: id, FilePath: "auth.go", Name: name, ReturnType: returnType,
		BodyHash: hashing.BodyHash("return validate(" + name + ")"),
	}
}

func TestCreateNoteHashesAnchor(t *testing.T) {
	m, graph := newTestManager(t)
	fn := sampleFunction("fn:auth.go:ValidateUser", "ValidateUser", "bool")

	n := model.Note{ID: "n1", ProjectID: "p1", Type: model.NoteGotcha, Content: "careful with auth ordering"}
	anchor := model.NoteAnchor{ID: "a1", EntityType: model.AnchorFunction, EntityID: fn.ID}

	if err := m.CreateNote(n, []model.NoteAnchor{anchor}, []model.Function{fn}, nil); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	anchors, err := graph.ListAnchors("n1")
	if err != nil {
		t.Fatalf("ListAnchors: %v", err)
	}
	if len(anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(anchors))
	}
	if anchors[0].SignatureHash != hashing.FunctionSignatureHash(fn) {
		t.Fatalf("anchor signature hash not recorded correctly")
	}
}

func TestVerifyFileDetectsSignatureChange(t *testing.T) {
	m, graph := newTestManager(t)
	fn := sampleFunction("fn:auth.go:ValidateUser", "ValidateUser", "bool")
	if err := graph.UpsertFunction("p1", fn); err != nil {
		t.Fatalf("UpsertFunction: %v", err)
	}

	n := model.Note{ID: "n1", ProjectID: "p1", Type: model.NoteGotcha, Content: "note"}
	anchor := model.NoteAnchor{ID: "a1", EntityType: model.AnchorFunction, EntityID: fn.ID}
	if err := m.CreateNote(n, []model.NoteAnchor{anchor}, []model.Function{fn}, nil); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	changed := fn
	changed.ReturnType = "error"

	results, err := m.VerifyFile("p1", "auth.go", []model.Function{changed})
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if len(results) != 1 || results[0].Valid {
		t.Fatalf("expected 1 invalid result, got %+v", results)
	}
	if results[0].Reason != "signature changed" {
		t.Fatalf("expected signature changed, got %q", results[0].Reason)
	}

	got, err := graph.GetNote("n1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Status != model.NoteObsolete {
		t.Fatalf("expected note transitioned to obsolete, got %s", got.Status)
	}
}

func TestVerifyFileDetectsPossibleRename(t *testing.T) {
	m, graph := newTestManager(t)
	fn := sampleFunction("fn:auth.go:ValidateUser", "ValidateUser", "bool")
	if err := graph.UpsertFunction("p1", fn); err != nil {
		t.Fatalf("UpsertFunction: %v", err)
	}

	n := model.Note{ID: "n1", ProjectID: "p1", Type: model.NoteGotcha, Content: "note"}
	anchor := model.NoteAnchor{ID: "a1", EntityType: model.AnchorFunction, EntityID: fn.ID}
	if err := m.CreateNote(n, []model.NoteAnchor{anchor}, []model.Function{fn}, nil); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	renamed := fn
	renamed.ID = "fn:auth.go:ValidateUserAccount"
	renamed.Name = "ValidateUserAccount"

	results, err := m.VerifyFile("p1", "auth.go", []model.Function{renamed})
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if len(results) != 1 || results[0].Valid {
		t.Fatalf("expected 1 invalid result, got %+v", results)
	}
	if results[0].Reason != "possibly renamed" {
		t.Fatalf("expected possibly renamed, got %q", results[0].Reason)
	}
	if results[0].MigrationTarget == nil || results[0].MigrationTarget.NewEntityID != renamed.ID {
		t.Fatalf("expected migration target %s, got %+v", renamed.ID, results[0].MigrationTarget)
	}
}

func TestVerifyFileDeletedFunction(t *testing.T) {
	m, graph := newTestManager(t)
	fn := sampleFunction("fn:auth.go:ValidateUser", "ValidateUser", "bool")
	if err := graph.UpsertFunction("p1", fn); err != nil {
		t.Fatalf("UpsertFunction: %v", err)
	}
	n := model.Note{ID: "n1", ProjectID: "p1", Type: model.NoteGotcha, Content: "note"}
	anchor := model.NoteAnchor{ID: "a1", EntityType: model.AnchorFunction, EntityID: fn.ID}
	if err := m.CreateNote(n, []model.NoteAnchor{anchor}, []model.Function{fn}, nil); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	results, err := m.VerifyFile("p1", "auth.go", nil)
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if len(results) != 1 || results[0].Reason != "deleted" {
		t.Fatalf("expected deleted result, got %+v", results)
	}
}

func TestComputeStalenessZeroForAssertions(t *testing.T) {
	n := model.Note{Type: model.NoteAssertion, CreatedAt: time.Now().Add(-365 * 24 * time.Hour)}
	if s := ComputeStaleness(n, time.Now()); s != 0 {
		t.Fatalf("expected 0 staleness for assertion note, got %v", s)
	}
}

func TestComputeStalenessIncreasesWithAge(t *testing.T) {
	now := time.Now()
	n := model.Note{Type: model.NoteTip, Importance: model.ImportanceLow, CreatedAt: now.Add(-60 * 24 * time.Hour)}
	s := ComputeStaleness(n, now)
	if s <= 0.5 {
		t.Fatalf("expected high staleness for a 60-day-old low-importance tip note, got %v", s)
	}
}

// TestComputeStalenessTipMediumStaysActive is scenario S6: a tip note (base
// decay 90 days), importance medium, created 100 days ago with no
// confirmation. Expected staleness ~0.67, below the 0.8 stale threshold.
func TestComputeStalenessTipMediumStaysActive(t *testing.T) {
	now := time.Now()
	n := model.Note{Type: model.NoteTip, Importance: model.ImportanceMedium, CreatedAt: now.Add(-100 * 24 * time.Hour)}
	s := ComputeStaleness(n, now)
	if s < 0.6 || s > 0.75 {
		t.Fatalf("expected staleness ~0.67 for S6, got %v", s)
	}
	if s > staleThreshold {
		t.Fatalf("S6 note should remain active (score below threshold), got %v", s)
	}
}

func TestUpdateStalenessScoresTransitionsActiveToStale(t *testing.T) {
	m, graph := newTestManager(t)
	old := time.Now().Add(-400 * 24 * time.Hour)
	n := model.Note{
		ID: "n1", ProjectID: "p1", Type: model.NoteTip, Status: model.NoteActive,
		Importance: model.ImportanceLow, Content: "old note", CreatedAt: old, UpdatedAt: old,
	}
	if err := graph.PutNote(n); err != nil {
		t.Fatalf("PutNote: %v", err)
	}

	updated, transitioned, err := m.UpdateStalenessScores("p1")
	if err != nil {
		t.Fatalf("UpdateStalenessScores: %v", err)
	}
	if updated == 0 || transitioned != 1 {
		t.Fatalf("expected 1 transition, got updated=%d transitioned=%d", updated, transitioned)
	}

	got, err := graph.GetNote("n1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Status != model.NoteStale {
		t.Fatalf("expected note to become stale, got %s", got.Status)
	}
}

func TestConfirmResetsStaleness(t *testing.T) {
	m, graph := newTestManager(t)
	n := model.Note{
		ID: "n1", ProjectID: "p1", Type: model.NoteTip, Status: model.NoteStale,
		StalenessScore: 0.95, CreatedAt: time.Now().Add(-400 * 24 * time.Hour),
	}
	if err := graph.PutNote(n); err != nil {
		t.Fatalf("PutNote: %v", err)
	}
	if err := m.Confirm("n1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	got, err := graph.GetNote("n1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Status != model.NoteActive || got.StalenessScore != 0 {
		t.Fatalf("expected reset to active/0, got status=%s score=%v", got.Status, got.StalenessScore)
	}
}
