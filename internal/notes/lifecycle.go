// Package notes implements the knowledge-note lifecycle on top of
// internal/graphstore's persistence: anchoring, per-file verification,
// staleness decay, assertion evaluation, and context retrieval with
// propagation. Grounded on the teacher's learned_store.go confidence-decay
// machinery (internal/store), generalized from "learned fact confidence
// decay" to "note staleness decay."
package notes

import (
	"fmt"
	"time"

	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/hashing"
	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/model"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
)

// Manager is the C7 Note Manager + Lifecycle.
type Manager struct {
	graph  *graphstore.Store
	search searchstore.Index
}

// New builds a Manager over the given stores.
func New(graph *graphstore.Store, search searchstore.Index) *Manager {
	return &Manager{graph: graph, search: search}
}

// CreateNote persists a note through both C4 (authoritative) and C5 (search
// projection), computing anchor hashes from the currently parsed file when
// the note anchors to a function or struct.
func (m *Manager) CreateNote(n model.Note, anchors []model.NoteAnchor, fileFunctions []model.Function, fileSymbols []model.Symbol) error {
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = model.NoteActive
	}
	if n.Energy == 0 {
		n.Energy = 1.0
	}

	if err := m.graph.PutNote(n); err != nil {
		return fmt.Errorf("persist note: %w", err)
	}

	for _, a := range anchors {
		a.NoteID = n.ID
		hashAnchor(&a, fileFunctions, fileSymbols)
		if err := m.graph.PutNoteAnchor(a); err != nil {
			return fmt.Errorf("persist anchor %s: %w", a.ID, err)
		}
	}

	if err := m.search.IndexDocument(searchstore.BuildNoteDocument(n)); err != nil {
		logging.SearchWarn("notes: failed to index note %s: %v", n.ID, err)
	}
	return nil
}

func hashAnchor(a *model.NoteAnchor, functions []model.Function, symbols []model.Symbol) {
	switch a.EntityType {
	case model.AnchorFunction:
		for _, fn := range functions {
			if fn.ID == a.EntityID {
				a.SignatureHash = hashing.FunctionSignatureHash(fn)
				a.BodyHash = fn.BodyHash
				return
			}
		}
	case model.AnchorStruct, model.AnchorTrait:
		for _, sym := range symbols {
			if sym.ID == a.EntityID {
				a.SignatureHash = sym.SignatureHash
				return
			}
		}
	}
}

// Supersede archives a note and links a replacement. Archival is the only
// transition VerifyFile never drives on its own; it is always an explicit
// caller decision.
func (m *Manager) Supersede(oldID string, replacement model.Note) error {
	old, err := m.graph.GetNote(oldID)
	if err != nil {
		return err
	}
	old.Status = model.NoteArchived
	old.UpdatedAt = time.Now().UTC()
	if err := m.graph.PutNote(*old); err != nil {
		return fmt.Errorf("archive superseded note: %w", err)
	}
	replacement.Supersedes = oldID
	return m.CreateNote(replacement, nil, nil, nil)
}

// VerificationResult is the outcome of checking one anchor against a
// freshly parsed file.
type VerificationResult struct {
	Anchor          model.NoteAnchor
	Valid           bool
	Reason          string
	SuggestedStatus model.NoteStatus
	MigrationTarget *MigrationTarget
}

// MigrationTarget names a candidate rename target and the similarity score
// that triggered the suggestion.
type MigrationTarget struct {
	NewEntityID string
	Similarity  float64
}

const renameThreshold = 0.7

// VerifyFile re-checks every anchor touching path's previously-persisted
// functions against the freshly parsed ones, per the five-case table:
// valid, body changed, signature changed, possibly renamed (body similarity
// >= 0.7), deleted. It is called by the sync pipeline's phase 7 hook, after
// persistence but before the new function set fully replaces the old one in
// the index used to look anchors up.
func (m *Manager) VerifyFile(projectID, path string, newFunctions []model.Function) ([]VerificationResult, error) {
	previous, err := m.graph.ListFunctionsByFile(projectID, path)
	if err != nil {
		return nil, fmt.Errorf("load previous functions for %s: %w", path, err)
	}

	byID := make(map[string]model.Function, len(newFunctions))
	for _, fn := range newFunctions {
		byID[fn.ID] = fn
	}

	var results []VerificationResult
	for _, prevFn := range previous {
		anchors, err := m.graph.AnchorsByEntity(model.AnchorFunction, prevFn.ID)
		if err != nil {
			return nil, fmt.Errorf("load anchors for %s: %w", prevFn.ID, err)
		}
		for _, a := range anchors {
			var r VerificationResult
			if fn, ok := byID[prevFn.ID]; ok {
				r = verifyFunctionAnchor(a, fn)
			} else {
				r = resolveMissingTarget(a, newFunctions)
			}
			results = append(results, r)
		}
	}

	for _, r := range results {
		if r.Valid || r.SuggestedStatus == "" {
			continue
		}
		n, err := m.graph.GetNote(r.Anchor.NoteID)
		if err != nil {
			logging.GraphWarn("notes: verification found orphaned anchor %s: %v", r.Anchor.ID, err)
			continue
		}
		if statusRank(r.SuggestedStatus) > statusRank(n.Status) {
			n.Status = r.SuggestedStatus
			n.UpdatedAt = time.Now().UTC()
			if err := m.graph.PutNote(*n); err != nil {
				logging.GraphWarn("notes: failed to transition note %s to %s: %v", n.ID, r.SuggestedStatus, err)
			}
		}
	}

	return results, nil
}

func verifyFunctionAnchor(a model.NoteAnchor, fn model.Function) VerificationResult {
	sigHash := hashing.FunctionSignatureHash(fn)
	if sigHash != a.SignatureHash {
		return VerificationResult{Anchor: a, Valid: false, Reason: "signature changed", SuggestedStatus: model.NoteObsolete}
	}
	if a.BodyHash != "" && fn.BodyHash != "" && fn.BodyHash != a.BodyHash {
		return VerificationResult{Anchor: a, Valid: false, Reason: "body changed", SuggestedStatus: model.NoteObsolete}
	}
	return VerificationResult{Anchor: a, Valid: true}
}

// resolveMissingTarget handles an anchor whose function no longer exists
// under its old ID. It compares the anchor's own recorded body hash (set
// when the anchor was created or last re-verified) against every function
// now in the file; a close match is flagged for migration review rather
// than marked obsolete outright.
func resolveMissingTarget(a model.NoteAnchor, candidates []model.Function) VerificationResult {
	var best *model.Function
	var bestSim float64
	for i := range candidates {
		sim := hashing.Similarity(a.BodyHash, candidates[i].BodyHash)
		if sim > bestSim {
			bestSim = sim
			best = &candidates[i]
		}
	}
	if best != nil && bestSim >= renameThreshold {
		return VerificationResult{
			Anchor: a, Valid: false, Reason: "possibly renamed", SuggestedStatus: model.NoteNeedsReview,
			MigrationTarget: &MigrationTarget{NewEntityID: best.ID, Similarity: bestSim},
		}
	}
	return VerificationResult{Anchor: a, Valid: false, Reason: "deleted", SuggestedStatus: model.NoteObsolete}
}

func statusRank(s model.NoteStatus) int {
	switch s {
	case model.NoteActive:
		return 0
	case model.NoteNeedsReview:
		return 1
	case model.NoteStale:
		return 2
	case model.NoteObsolete:
		return 3
	case model.NoteArchived:
		return 4
	}
	return -1
}
