package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/model"
	"github.com/antigravity-dev/codegraph/internal/neural"
	"github.com/antigravity-dev/codegraph/internal/notes"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
	gosync "github.com/antigravity-dev/codegraph/internal/sync"
)

func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredArg, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgType, key)
	}
	return s, nil
}

func argInt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func argFloat(args map[string]any, key string, def float64) float64 {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

func jsonResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(b), nil
}

// RegisterDomainOperations wires the C9 named operation table: every
// handler parses its own JSON-decoded args, validates required fields
// before touching a store, and calls straight into C4/C5/C7/C8. A caller
// may pass nil for any dependency it doesn't use; operations needing a nil
// dependency are simply not registered.
func RegisterDomainOperations(reg *Registry, graph *graphstore.Store, search searchstore.Index, noteMgr *notes.Manager, neuralEngine *neural.Engine, pipeline *gosync.Pipeline) error {
	if graph != nil {
		if err := registerGraphOperations(reg, graph); err != nil {
			return err
		}
	}
	if search != nil {
		if err := registerSearchOperations(reg, search); err != nil {
			return err
		}
	}
	if noteMgr != nil && graph != nil {
		if err := registerNoteOperations(reg, noteMgr, graph); err != nil {
			return err
		}
	}
	if neuralEngine != nil {
		if err := registerNeuralOperations(reg, neuralEngine); err != nil {
			return err
		}
	}
	if pipeline != nil && graph != nil {
		if err := registerSyncOperations(reg, pipeline, graph); err != nil {
			return err
		}
	}
	return nil
}

func registerGraphOperations(reg *Registry, graph *graphstore.Store) error {
	if err := reg.Register(&Tool{
		Name:        "find_dependent_files",
		Description: "Find files that depend on a given file, up to max_depth hops.",
		Category:    CategoryGraph,
		Schema: ToolSchema{
			Required: []string{"project_id", "file_path"},
			Properties: map[string]Property{
				"project_id": {Type: "string"},
				"file_path":  {Type: "string"},
				"max_depth":  {Type: "integer", Default: 3},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			filePath, err := argString(args, "file_path")
			if err != nil {
				return "", err
			}
			files, err := graph.FindDependentFiles(projectID, filePath, argInt(args, "max_depth", 3))
			if err != nil {
				return "", err
			}
			return jsonResult(files)
		},
	}); err != nil {
		return err
	}

	if err := reg.Register(&Tool{
		Name:        "get_function_callers",
		Description: "List functions that call the given function.",
		Category:    CategoryGraph,
		Schema: ToolSchema{
			Required:   []string{"project_id", "function_id"},
			Properties: map[string]Property{"project_id": {Type: "string"}, "function_id": {Type: "string"}},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			functionID, err := argString(args, "function_id")
			if err != nil {
				return "", err
			}
			ids, err := graph.GetFunctionCallers(projectID, functionID)
			if err != nil {
				return "", err
			}
			return jsonResult(ids)
		},
	}); err != nil {
		return err
	}

	if err := reg.Register(&Tool{
		Name:        "get_function_callees",
		Description: "List functions the given function calls.",
		Category:    CategoryGraph,
		Schema: ToolSchema{
			Required:   []string{"project_id", "function_id"},
			Properties: map[string]Property{"project_id": {Type: "string"}, "function_id": {Type: "string"}},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			functionID, err := argString(args, "function_id")
			if err != nil {
				return "", err
			}
			ids, err := graph.GetFunctionCallees(projectID, functionID)
			if err != nil {
				return "", err
			}
			return jsonResult(ids)
		},
	}); err != nil {
		return err
	}

	return reg.Register(&Tool{
		Name:        "traverse_path",
		Description: "Find a path of a given edge kind between two nodes.",
		Category:    CategoryGraph,
		Schema: ToolSchema{
			Required: []string{"project_id", "from", "to", "kind"},
			Properties: map[string]Property{
				"project_id": {Type: "string"}, "from": {Type: "string"}, "to": {Type: "string"},
				"kind": {Type: "string"}, "max_depth": {Type: "integer", Default: 6},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			from, err := argString(args, "from")
			if err != nil {
				return "", err
			}
			to, err := argString(args, "to")
			if err != nil {
				return "", err
			}
			kind, err := argString(args, "kind")
			if err != nil {
				return "", err
			}
			edges, err := graph.TraversePath(projectID, from, to, model.EdgeKind(kind), argInt(args, "max_depth", 6))
			if err != nil {
				return "", err
			}
			return jsonResult(edges)
		},
	})
}

func registerSearchOperations(reg *Registry, search searchstore.Index) error {
	return reg.Register(&Tool{
		Name:        "search",
		Description: "Full-text search over code, decision, or note documents.",
		Category:    CategorySearch,
		Schema: ToolSchema{
			Required: []string{"kind", "query"},
			Properties: map[string]Property{
				"kind": {Type: "string", Enum: []any{"code", "decision", "note"}},
				"query": {Type: "string"}, "project_slug": {Type: "string"}, "limit": {Type: "integer", Default: 20},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			kindStr, err := argString(args, "kind")
			if err != nil {
				return "", err
			}
			query, err := argString(args, "query")
			if err != nil {
				return "", err
			}
			var kind searchstore.DocumentKind
			switch kindStr {
			case "code":
				kind = searchstore.KindCode
			case "decision":
				kind = searchstore.KindDecision
			case "note":
				kind = searchstore.KindNote
			default:
				return "", fmt.Errorf("%w: kind must be code, decision, or note", ErrInvalidArgType)
			}
			filters := searchstore.Filters{}
			if slug, ok := args["project_slug"].(string); ok {
				filters.ProjectSlug = slug
			}
			results, err := search.Search(kind, query, filters, argInt(args, "limit", 20))
			if err != nil {
				return "", err
			}
			return jsonResult(results)
		},
	})
}

func registerNoteOperations(reg *Registry, mgr *notes.Manager, graph *graphstore.Store) error {
	if err := reg.Register(&Tool{
		Name:        "get_context_notes",
		Description: "Retrieve direct and propagated notes for an entity.",
		Category:    CategoryNotes,
		Schema: ToolSchema{
			Required: []string{"project_id", "entity_type", "entity_id"},
			Properties: map[string]Property{
				"project_id": {Type: "string"}, "entity_type": {Type: "string"}, "entity_id": {Type: "string"},
				"max_depth": {Type: "integer", Default: 3}, "min_score": {Type: "number", Default: 0.1},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			entityType, err := argString(args, "entity_type")
			if err != nil {
				return "", err
			}
			entityID, err := argString(args, "entity_id")
			if err != nil {
				return "", err
			}
			workspaceOf := func(projectID string) (*model.Workspace, error) {
				project, err := graph.GetProject(projectID)
				if err != nil || project == nil || project.WorkspaceID == "" {
					return nil, err
				}
				return &model.Workspace{ID: project.WorkspaceID}, nil
			}
			result, err := mgr.GetContextNotes(projectID, model.NoteAnchorEntityType(entityType), entityID,
				argInt(args, "max_depth", 3), argFloat(args, "min_score", 0.1), workspaceOf)
			if err != nil {
				return "", err
			}
			return jsonResult(result)
		},
	}); err != nil {
		return err
	}

	if err := reg.Register(&Tool{
		Name:        "confirm_note",
		Description: "Reset a note's staleness clock after review.",
		Category:    CategoryNotes,
		Schema:      ToolSchema{Required: []string{"note_id"}, Properties: map[string]Property{"note_id": {Type: "string"}}},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			noteID, err := argString(args, "note_id")
			if err != nil {
				return "", err
			}
			if err := mgr.Confirm(noteID); err != nil {
				return "", err
			}
			return jsonResult(map[string]bool{"confirmed": true})
		},
	}); err != nil {
		return err
	}

	return reg.Register(&Tool{
		Name:        "update_staleness_scores",
		Description: "Run the staleness decay sweep over a project's active notes.",
		Category:    CategoryNotes,
		Schema:      ToolSchema{Required: []string{"project_id"}, Properties: map[string]Property{"project_id": {Type: "string"}}},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			updated, transitioned, err := mgr.UpdateStalenessScores(projectID)
			if err != nil {
				return "", err
			}
			return jsonResult(map[string]int{"updated": updated, "transitioned_to_stale": transitioned})
		},
	})
}

func registerNeuralOperations(reg *Registry, engine *neural.Engine) error {
	if err := reg.Register(&Tool{
		Name:        "neural_retrieve",
		Description: "Run spreading-activation retrieval for a query over a project's notes.",
		Category:    CategoryNeural,
		Schema: ToolSchema{
			Required: []string{"project_id", "query"},
			Properties: map[string]Property{
				"project_id": {Type: "string"}, "query": {Type: "string"},
				"top_k": {Type: "integer", Default: 10},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			query, err := argString(args, "query")
			if err != nil {
				return "", err
			}
			opts := neural.DefaultOptions()
			opts.TopK = argInt(args, "top_k", opts.TopK)
			results, err := engine.Retrieve(ctx, projectID, query, opts)
			if err != nil {
				return "", err
			}
			return jsonResult(results)
		},
	}); err != nil {
		return err
	}

	return reg.Register(&Tool{
		Name:        "boost_note_energy",
		Description: "Additively boost a note's energy after it proves useful.",
		Category:    CategoryNeural,
		Schema: ToolSchema{
			Required:   []string{"note_id"},
			Properties: map[string]Property{"note_id": {Type: "string"}, "amount": {Type: "number", Default: 0.2}},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			noteID, err := argString(args, "note_id")
			if err != nil {
				return "", err
			}
			if err := engine.BoostEnergy(noteID, argFloat(args, "amount", 0.2)); err != nil {
				return "", err
			}
			return jsonResult(map[string]bool{"boosted": true})
		},
	})
}

func registerSyncOperations(reg *Registry, pipeline *gosync.Pipeline, graph *graphstore.Store) error {
	return reg.Register(&Tool{
		Name:        "sync_project",
		Description: "Run the walk/parse/persist/index/reconcile pipeline for a project.",
		Category:    CategorySync,
		Schema:      ToolSchema{Required: []string{"project_id"}, Properties: map[string]Property{"project_id": {Type: "string"}}},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			project, err := graph.GetProject(projectID)
			if err != nil {
				return "", err
			}
			if project == nil {
				return "", fmt.Errorf("project %s not found", projectID)
			}
			result, err := pipeline.Sync(ctx, *project)
			if err != nil {
				return "", err
			}
			return jsonResult(result)
		},
	})
}
