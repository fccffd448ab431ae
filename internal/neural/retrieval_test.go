package neural

import (
	"context"
	"testing"

	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/model"
)

// stubEmbedder returns a fixed vector regardless of input text, enough to
// drive VectorSearch deterministically in tests without a real backend.
type stubEmbedder struct {
	vec []float32
}

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) { return s.vec, nil }
func (s stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}
func (s stubEmbedder) Dimensions() int { return len(s.vec) }
func (s stubEmbedder) Name() string    { return "stub" }

func newTestGraph(t *testing.T) *graphstore.Store {
	t.Helper()
	g, err := graphstore.New(":memory:", 4)
	if err != nil {
		t.Fatalf("graphstore.New: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func putNote(t *testing.T, g *graphstore.Store, id string, vec []float32, energy float64) {
	t.Helper()
	n := model.Note{ID: id, ProjectID: "p1", Type: model.NoteTip, Status: model.NoteActive, Content: id, Energy: energy}
	if err := g.PutNote(n); err != nil {
		t.Fatalf("PutNote %s: %v", id, err)
	}
	if err := g.UpsertEmbedding("note", id, vec); err != nil {
		t.Fatalf("UpsertEmbedding %s: %v", id, err)
	}
}

func TestRetrieveSeedsFromVectorSimilarity(t *testing.T) {
	g := newTestGraph(t)
	putNote(t, g, "n1", []float32{1, 0, 0, 0}, 1.0)
	putNote(t, g, "n2", []float32{0, 1, 0, 0}, 1.0)

	e := New(g, stubEmbedder{vec: []float32{1, 0, 0, 0}})
	results, err := e.Retrieve(context.Background(), "p1", "query", DefaultOptions())
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].NoteID != "n1" {
		t.Fatalf("expected n1 ranked first, got %s", results[0].NoteID)
	}
}

func TestRetrieveSpreadsOverSynapses(t *testing.T) {
	g := newTestGraph(t)
	putNote(t, g, "seed", []float32{1, 0, 0, 0}, 1.0)
	putNote(t, g, "neighbor", []float32{0, 0, 0, 1}, 1.0)
	if err := g.PutSynapse(model.Synapse{FromNoteID: "seed", ToNoteID: "neighbor", Weight: 0.9}); err != nil {
		t.Fatalf("PutSynapse: %v", err)
	}

	e := New(g, stubEmbedder{vec: []float32{1, 0, 0, 0}})
	opts := DefaultOptions()
	opts.SeedK = 1
	results, err := e.Retrieve(context.Background(), "p1", "query", opts)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	found := false
	for _, r := range results {
		if r.NoteID == "neighbor" {
			found = true
			if r.SeedRank != 0 {
				t.Fatalf("expected neighbor to be reached by spreading, not seeded directly")
			}
		}
	}
	if !found {
		t.Fatal("expected neighbor note to be reached by spreading activation")
	}
}

func TestDecaySynapsesPrunesBelowThreshold(t *testing.T) {
	g := newTestGraph(t)
	putNote(t, g, "n1", []float32{1, 0, 0, 0}, 1.0)
	putNote(t, g, "n2", []float32{0, 1, 0, 0}, 1.0)
	if err := g.PutSynapse(model.Synapse{FromNoteID: "n1", ToNoteID: "n2", Weight: 0.2}); err != nil {
		t.Fatalf("PutSynapse: %v", err)
	}

	e := New(g, stubEmbedder{vec: []float32{1, 0, 0, 0}})
	decayed, pruned, err := e.DecaySynapses("p1", 0.5, 0.15)
	if err != nil {
		t.Fatalf("DecaySynapses: %v", err)
	}
	if decayed != 0 || pruned != 1 {
		t.Fatalf("expected the low-weight synapse to be pruned, got decayed=%d pruned=%d", decayed, pruned)
	}

	remaining, err := g.OutgoingSynapses("n1")
	if err != nil {
		t.Fatalf("OutgoingSynapses: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected synapse to be removed, got %+v", remaining)
	}
}

func TestBoostEnergyClampsToMax(t *testing.T) {
	g := newTestGraph(t)
	putNote(t, g, "n1", []float32{1, 0, 0, 0}, 1.9)

	e := New(g, stubEmbedder{vec: []float32{1, 0, 0, 0}})
	if err := e.BoostEnergy("n1", 0.5); err != nil {
		t.Fatalf("BoostEnergy: %v", err)
	}
	n, err := g.GetNote("n1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.Energy != maxEnergy {
		t.Fatalf("expected energy clamped to %v, got %v", maxEnergy, n.Energy)
	}
}
