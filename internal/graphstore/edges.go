package graphstore

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/model"
)

// Edge is a typed, weighted, directed relationship between two graph
// entities, identified by their node ids (a file path, function id, etc).
type Edge struct {
	Kind     model.EdgeKind
	SrcID    string
	DstID    string
	Weight   float64
	Metadata map[string]interface{}
}

// PutEdge inserts or replaces an edge, grounded on the teacher's
// LocalStore.StoreLink.
func (s *Store) PutEdge(projectID string, e Edge) error {
	timer := logging.StartTimer(logging.CategoryGraph, "PutEdge")
	defer timer.Stop()

	if e.SrcID == "" || e.DstID == "" || e.Kind == "" {
		return fmt.Errorf("invalid edge: kind/src/dst must be non-empty")
	}
	if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
		return fmt.Errorf("invalid edge weight: %v", e.Weight)
	}
	if e.Weight == 0 {
		e.Weight = 1.0
	}

	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal edge metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO edges (project_id, kind, src_id, dst_id, weight, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, kind, src_id, dst_id)
		 DO UPDATE SET weight = excluded.weight, metadata = excluded.metadata`,
		projectID, string(e.Kind), e.SrcID, e.DstID, e.Weight, string(metaJSON),
	)
	return err
}

// PutEdges batches PutEdge in a single transaction.
func (s *Store) PutEdges(projectID string, edges []Edge) error {
	if len(edges) == 0 {
		return nil
	}
	timer := logging.StartTimer(logging.CategoryGraph, "PutEdges")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin edge batch: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO edges (project_id, kind, src_id, dst_id, weight, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, kind, src_id, dst_id)
		 DO UPDATE SET weight = excluded.weight, metadata = excluded.metadata`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare edge batch: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if e.SrcID == "" || e.DstID == "" || e.Kind == "" {
			continue
		}
		weight := e.Weight
		if weight == 0 {
			weight = 1.0
		}
		metaJSON, _ := json.Marshal(e.Metadata)
		if _, err := stmt.Exec(projectID, string(e.Kind), e.SrcID, e.DstID, weight, string(metaJSON)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert edge %s->%s: %w", e.SrcID, e.DstID, err)
		}
	}
	return tx.Commit()
}

// queryEdgesLocked assumes the caller already holds at least s.mu.RLock();
// mirrors the teacher's queryLinksLocked split to avoid nested RLock
// acquisition deadlocking against a pending writer.
func (s *Store) queryEdgesLocked(projectID, nodeID string, kind model.EdgeKind, direction string) ([]Edge, error) {
	var query string
	args := []interface{}{projectID}
	switch direction {
	case "outgoing":
		query = "SELECT kind, src_id, dst_id, weight, metadata FROM edges WHERE project_id = ? AND src_id = ?"
		args = append(args, nodeID)
	case "incoming":
		query = "SELECT kind, src_id, dst_id, weight, metadata FROM edges WHERE project_id = ? AND dst_id = ?"
		args = append(args, nodeID)
	default:
		query = "SELECT kind, src_id, dst_id, weight, metadata FROM edges WHERE project_id = ? AND (src_id = ? OR dst_id = ?)"
		args = append(args, nodeID, nodeID)
	}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var kindStr, metaJSON string
		if err := rows.Scan(&kindStr, &e.SrcID, &e.DstID, &e.Weight, &metaJSON); err != nil {
			logging.GraphWarn("edge row scan failed: %v", err)
			continue
		}
		e.Kind = model.EdgeKind(kindStr)
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &e.Metadata)
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// QueryEdges retrieves edges touching nodeID, optionally filtered by kind.
func (s *Store) QueryEdges(projectID, nodeID string, kind model.EdgeKind, direction string) ([]Edge, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "QueryEdges")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryEdgesLocked(projectID, nodeID, kind, direction)
}

// FindDependentFiles returns the files that import/depend on filePath,
// transitively up to maxDepth hops, via DEPENDS_ON edges.
func (s *Store) FindDependentFiles(projectID, filePath string, maxDepth int) ([]string, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "FindDependentFiles")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = 5
	}

	visited := map[string]bool{filePath: true}
	frontier := []string{filePath}
	var result []string

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, node := range frontier {
			edges, err := s.queryEdgesLocked(projectID, node, model.EdgeDependsOn, "incoming")
			if err != nil {
				continue
			}
			for _, e := range edges {
				if !visited[e.SrcID] {
					visited[e.SrcID] = true
					result = append(result, e.SrcID)
					next = append(next, e.SrcID)
				}
			}
		}
		frontier = next
	}
	return result, nil
}

// GetFunctionCallers returns functions that call functionID.
func (s *Store) GetFunctionCallers(projectID, functionID string) ([]string, error) {
	edges, err := s.QueryEdges(projectID, functionID, model.EdgeCalls, "incoming")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.SrcID)
	}
	return ids, nil
}

// GetFunctionCallees returns functions that functionID calls.
func (s *Store) GetFunctionCallees(projectID, functionID string) ([]string, error) {
	edges, err := s.QueryEdges(projectID, functionID, model.EdgeCalls, "outgoing")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.DstID)
	}
	return ids, nil
}

// TraversePath finds a hop-path between two nodes using BFS with a
// cameFrom backtracking map, grounded on the teacher's
// LocalStore.TraversePath (O(V) memory instead of storing full paths per
// queue entry).
func (s *Store) TraversePath(projectID, from, to string, kind model.EdgeKind, maxDepth int) ([]Edge, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "TraversePath")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = 10
	}

	type queueItem struct {
		node  string
		depth int
	}

	cameFrom := make(map[string]*Edge)
	cameFrom[from] = nil
	queue := []queueItem{{node: from, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.node == to {
			path := make([]Edge, cur.depth)
			node := to
			for i := cur.depth - 1; i >= 0; i-- {
				e := cameFrom[node]
				if e == nil {
					break
				}
				path[i] = *e
				node = e.SrcID
			}
			return path, nil
		}
		if cur.depth >= maxDepth {
			continue
		}

		edges, err := s.queryEdgesLocked(projectID, cur.node, kind, "outgoing")
		if err != nil {
			continue
		}
		for _, e := range edges {
			if _, seen := cameFrom[e.DstID]; !seen {
				edgeCopy := e
				cameFrom[e.DstID] = &edgeCopy
				queue = append(queue, queueItem{node: e.DstID, depth: cur.depth + 1})
			}
		}
	}
	return nil, fmt.Errorf("no path found from %s to %s", from, to)
}

// propagationDecay is the per-hop multiplier applied in GetPropagatedNotes.
// It is a separate constant from the 0.7 rename-similarity threshold: at
// 0.75 a note three hops away keeps 0.75³ ≈ 0.42 of its importance weight,
// and about 0.32 at four hops.
const propagationDecay = 0.75

func importanceWeight(imp model.NoteImportance) float64 {
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

// PropagatedNote is a note reached by breadth-first traversal from an
// entity, annotated with the depth and score it was reached at.
type PropagatedNote struct {
	NoteID         string
	Depth          int
	RelevanceScore float64
}

var propagationEdgeKinds = []model.EdgeKind{
	model.EdgeContains, model.EdgeCalls, model.EdgeImports, model.EdgeImplements,
}

// resolveNodeEntityType looks up what kind of node id actually is, since a
// BFS over CONTAINS/CALLS/IMPORTS/IMPLEMENTS edges crosses node kinds (a
// file contains functions, a function calls another function) and a node
// reached mid-walk is not necessarily the same kind as the seed it started
// from. Checked in order: function id, symbol id (struct/trait/impl/enum),
// then file path.
func (s *Store) resolveNodeEntityType(projectID, nodeID string) (model.NoteAnchorEntityType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dummy string
	if err := s.db.QueryRow(`SELECT id FROM functions WHERE project_id = ? AND id = ?`, projectID, nodeID).Scan(&dummy); err == nil {
		return model.AnchorFunction, true
	}
	var kind string
	if err := s.db.QueryRow(`SELECT kind FROM symbols WHERE project_id = ? AND id = ?`, projectID, nodeID).Scan(&kind); err == nil {
		switch model.SymbolKind(kind) {
		case model.SymbolTrait:
			return model.AnchorTrait, true
		default:
			return model.AnchorStruct, true
		}
	}
	if err := s.db.QueryRow(`SELECT path FROM files WHERE project_id = ? AND path = ?`, projectID, nodeID).Scan(&dummy); err == nil {
		return model.AnchorFile, true
	}
	return "", false
}

// GetPropagatedNotes does a breadth-first walk from (entityType, entityID)
// over CONTAINS/CALLS/IMPORTS/IMPLEMENTS edges, returning every note
// anchored to a reached node whose relevance_score = importance_weight ·
// decay^depth is at least minScore.
func (s *Store) GetPropagatedNotes(projectID string, entityType model.NoteAnchorEntityType, entityID string, maxDepth int, minScore float64) ([]PropagatedNote, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "GetPropagatedNotes")
	defer timer.Stop()

	if maxDepth <= 0 {
		maxDepth = 3
	}

	s.mu.RLock()
	visited := map[string]bool{entityID: true}
	frontier := []string{entityID}
	depths := map[string]int{entityID: 0}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, node := range frontier {
			for _, kind := range propagationEdgeKinds {
				edges, err := s.queryEdgesLocked(projectID, node, kind, "outgoing")
				if err != nil {
					continue
				}
				for _, e := range edges {
					if !visited[e.DstID] {
						visited[e.DstID] = true
						depths[e.DstID] = depth + 1
						next = append(next, e.DstID)
					}
				}
			}
		}
		frontier = next
	}
	s.mu.RUnlock()

	var out []PropagatedNote
	for node, depth := range depths {
		kind := entityType
		if node != entityID {
			resolved, ok := s.resolveNodeEntityType(projectID, node)
			if !ok {
				continue
			}
			kind = resolved
		}
		anchors, err := s.AnchorsByEntity(kind, node)
		if err != nil {
			continue
		}
		for _, a := range anchors {
			note, err := s.GetNote(a.NoteID)
			if err != nil || note == nil {
				continue
			}
			score := importanceWeight(note.Importance) * math.Pow(propagationDecay, float64(depth))
			if score >= minScore {
				out = append(out, PropagatedNote{NoteID: note.ID, Depth: depth, RelevanceScore: score})
			}
		}
	}
	return out, nil
}

// DeleteEdgesForNode removes every edge touching nodeID, used when a file
// or symbol is deleted during stale-file reconciliation.
func (s *Store) DeleteEdgesForNode(projectID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`DELETE FROM edges WHERE project_id = ? AND (src_id = ? OR dst_id = ?)`,
		projectID, nodeID, nodeID,
	)
	return err
}
