// Package neural implements the C8 spreading-activation note retrieval
// substrate: seed by embedding similarity, spread over synapse edges, merge
// and rank. Grounded on internal/embedding's CosineSimilarity/FindTopK
// (the teacher's similarity primitives) for seeding, and a from-scratch
// bounded fixed-point loop for spreading since the teacher has no existing
// graph-propagation analogue beyond graphstore's own BFS context
// propagation, which this deliberately runs alongside rather than replace
// (dual-run, neither authoritative, per spec.md §4.8).
package neural

import (
	"context"
	"fmt"
	"sort"

	"github.com/antigravity-dev/codegraph/internal/embedding"
	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/model"
)

// Engine runs spreading-activation retrieval over a project's notes.
type Engine struct {
	graph    *graphstore.Store
	embedder embedding.EmbeddingEngine
}

// New builds an Engine over the graph store and an embedding engine used
// to vectorize queries at retrieval time.
func New(graph *graphstore.Store, embedder embedding.EmbeddingEngine) *Engine {
	return &Engine{graph: graph, embedder: embedder}
}

// Result is one ranked note from a Retrieve call.
type Result struct {
	NoteID     string
	Activation float64
	SeedRank   int // 0 if reached purely by spreading, not a direct seed
}

// Options bounds a Retrieve call.
type Options struct {
	SeedK        int     // how many notes to seed directly from embedding similarity
	MaxDepth     int     // bound on spreading hops
	FloorPrune   float64 // activation below this stops propagation down that path
	TopK         int      // final result size
}

// DefaultOptions mirrors the teacher's FindTopK default shape: a handful of
// seeds, a shallow spread, and a floor that prevents runaway propagation
// across a large synapse graph.
func DefaultOptions() Options {
	return Options{SeedK: 8, MaxDepth: 3, FloorPrune: 0.05, TopK: 10}
}

// Retrieve runs Phase A (seed), Phase B (spread), Phase C (merge & rank).
func (e *Engine) Retrieve(ctx context.Context, projectID, query string, opts Options) ([]Result, error) {
	if opts.SeedK <= 0 {
		opts = DefaultOptions()
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVec) == 0 {
		// Embedding is disabled (null provider): vector seeding can't run,
		// so retrieval degrades to no results rather than erroring.
		return nil, nil
	}

	// Phase A: seed notes via vector similarity.
	seeds, err := e.graph.VectorSearch("note", projectID, queryVec, opts.SeedK)
	if err != nil {
		return nil, fmt.Errorf("seed vector search: %w", err)
	}

	activation := make(map[string]float64, len(seeds)*4)
	seedRank := make(map[string]int, len(seeds))
	for i, s := range seeds {
		activation[s.ID] = s.Similarity
		seedRank[s.ID] = i + 1
	}

	// Phase B: spread activation over outgoing SYNAPSE edges, bounded by
	// depth and a floor below which a path is pruned rather than walked
	// further. Each note keeps the maximum activation it was ever assigned
	// across the whole spread, not just its most recent visit.
	frontier := make([]string, 0, len(seeds))
	for _, s := range seeds {
		frontier = append(frontier, s.ID)
	}

	for depth := 0; depth < opts.MaxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, noteID := range frontier {
			parentActivation := activation[noteID]
			if parentActivation < opts.FloorPrune {
				continue
			}
			synapses, err := e.graph.OutgoingSynapses(noteID)
			if err != nil {
				logging.GraphWarn("neural: outgoing synapses for %s failed: %v", noteID, err)
				continue
			}
			note, err := e.graph.GetNote(noteID)
			if err != nil || note == nil {
				continue
			}
			for _, syn := range synapses {
				childNote, err := e.graph.GetNote(syn.ToNoteID)
				if err != nil || childNote == nil {
					continue
				}
				contribution := parentActivation * syn.Weight * energyOf(*childNote)
				if contribution < opts.FloorPrune {
					continue
				}
				if contribution > activation[syn.ToNoteID] {
					activation[syn.ToNoteID] = contribution
					next = append(next, syn.ToNoteID)
				}
			}
		}
		frontier = next
	}

	// Phase C: merge seeds and reached notes, dedupe (the activation map is
	// already deduplicated by construction), sort by activation descending.
	results := make([]Result, 0, len(activation))
	for noteID, score := range activation {
		results = append(results, Result{NoteID: noteID, Activation: score, SeedRank: seedRank[noteID]})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Activation != results[j].Activation {
			return results[i].Activation > results[j].Activation
		}
		return results[i].NoteID < results[j].NoteID
	})

	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

// energyOf returns a note's energy, defaulting to 1.0 for notes that have
// never had init_note_energy run over them (e.g. notes created before the
// neural substrate was wired in).
func energyOf(n model.Note) float64 {
	if n.Energy == 0 {
		return 1.0
	}
	return n.Energy
}
