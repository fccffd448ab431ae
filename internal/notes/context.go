package notes

import (
	"github.com/antigravity-dev/codegraph/internal/model"
)

// workspacePropagationFactor scales relevance for notes inherited from a
// project's parent Workspace, applied once regardless of graph distance
// since workspace scope sits above the project's own entity graph.
const workspacePropagationFactor = 0.8

// ContextNotes is the result of GetContextNotes: direct anchors plus
// everything reached by propagation, kept separate so callers can render
// "this note is about the exact thing you're looking at" distinctly from
// "this note might be relevant."
type ContextNotes struct {
	Direct      []model.Note
	Propagated  []PropagatedResult
	TotalCount  int
}

// PropagatedResult pairs a propagated note with the score it was reached at.
type PropagatedResult struct {
	Note           model.Note
	RelevanceScore float64
	Depth          int
}

// GetContextNotes implements the four-step retrieval: direct anchors, graph
// propagation, parent-workspace notes (for a Project entity) at a fixed
// 0.8 factor, then a descending sort of the propagated set.
func (m *Manager) GetContextNotes(projectID string, entityType model.NoteAnchorEntityType, entityID string, maxDepth int, minScore float64, workspaceOf func(projectID string) (*model.Workspace, error)) (*ContextNotes, error) {
	out := &ContextNotes{}

	anchors, err := m.graph.AnchorsByEntity(entityType, entityID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(anchors))
	for _, a := range anchors {
		n, err := m.graph.GetNote(a.NoteID)
		if err != nil || n == nil || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out.Direct = append(out.Direct, *n)
	}

	propagated, err := m.graph.GetPropagatedNotes(projectID, entityType, entityID, maxDepth, minScore)
	if err != nil {
		return nil, err
	}
	for _, p := range propagated {
		if seen[p.NoteID] {
			continue
		}
		n, err := m.graph.GetNote(p.NoteID)
		if err != nil || n == nil {
			continue
		}
		seen[n.ID] = true
		out.Propagated = append(out.Propagated, PropagatedResult{Note: *n, RelevanceScore: p.RelevanceScore, Depth: p.Depth})
	}

	// Step 3: if the entity in view is itself a Project (entityType is
	// being used here as a file/function/struct anchor kind, so a project
	// "entity" is represented by callers passing workspaceOf), pull the
	// parent Workspace's notes in at a flat propagation factor.
	if workspaceOf != nil {
		ws, err := workspaceOf(projectID)
		if err == nil && ws != nil {
			wsNotes, err := m.graph.ListNotesByScope("", model.ScopeWorkspace, ws.ID)
			if err == nil {
				for _, n := range wsNotes {
					if seen[n.ID] {
						continue
					}
					seen[n.ID] = true
					out.Propagated = append(out.Propagated, PropagatedResult{
						Note:           n,
						RelevanceScore: importanceWeightFor(n.Importance) * workspacePropagationFactor,
						Depth:          -1,
					})
				}
			}
		}
	}

	sortPropagatedDescending(out.Propagated)
	out.TotalCount = len(out.Direct) + len(out.Propagated)
	return out, nil
}

func importanceWeightFor(imp model.NoteImportance) float64 {
	switch imp {
	case model.ImportanceCritical:
		return 1.0
	case model.ImportanceHigh:
		return 0.8
	case model.ImportanceMedium:
		return 0.5
	case model.ImportanceLow:
		return 0.25
	default:
		return 0.5
	}
}

func sortPropagatedDescending(results []PropagatedResult) {
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j-1].RelevanceScore < results[j].RelevanceScore {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}
