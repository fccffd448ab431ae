package graphstore

import (
	"fmt"

	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/model"
)

// PutPendingCalls stages unresolved call sites extracted by the parser,
// awaiting scoped resolution once the whole project has been ingested.
func (s *Store) PutPendingCalls(projectID string, calls []model.FunctionCall) error {
	if len(calls) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin pending calls: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO pending_calls (project_id, caller_id, callee_name, line) VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id, caller_id, callee_name, line) DO NOTHING`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare pending calls: %w", err)
	}
	defer stmt.Close()
	for _, c := range calls {
		if _, err := stmt.Exec(projectID, c.CallerID, c.CalleeName, c.Line); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert pending call %s: %w", c.CalleeName, err)
		}
	}
	return tx.Commit()
}

// ResolveCalls matches every pending call against functions defined within
// the same project (scoped call resolution: create_call_relationship never
// considers callees outside project_id) and materializes CALLS edges for
// the matches. Returns the number of edges created and the number of call
// sites left unresolved (callee not found in-project, e.g. stdlib/external
// calls).
func (s *Store) ResolveCalls(projectID string) (resolved, unresolved int, err error) {
	timer := logging.StartTimer(logging.CategoryGraph, "ResolveCalls")
	defer timer.Stop()

	byName, err := s.ListFunctionsByProject(projectID)
	if err != nil {
		return 0, 0, fmt.Errorf("list functions for call resolution: %w", err)
	}

	s.mu.RLock()
	rows, err := s.db.Query(
		`SELECT caller_id, callee_name FROM pending_calls WHERE project_id = ?`, projectID,
	)
	if err != nil {
		s.mu.RUnlock()
		return 0, 0, fmt.Errorf("query pending calls: %w", err)
	}
	type pending struct{ callerID, calleeName string }
	var all []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.callerID, &p.calleeName); err != nil {
			continue
		}
		all = append(all, p)
	}
	rows.Close()
	s.mu.RUnlock()

	var edges []Edge
	for _, p := range all {
		calleeID, ok := byName[p.calleeName]
		if !ok {
			unresolved++
			continue
		}
		edges = append(edges, Edge{Kind: model.EdgeCalls, SrcID: p.callerID, DstID: calleeID, Weight: 1.0})
	}
	if err := s.PutEdges(projectID, edges); err != nil {
		return 0, unresolved, fmt.Errorf("materialize call edges: %w", err)
	}

	s.mu.Lock()
	_, delErr := s.db.Exec(`DELETE FROM pending_calls WHERE project_id = ?`, projectID)
	s.mu.Unlock()
	if delErr != nil {
		logging.GraphWarn("failed to clear pending calls for %s: %v", projectID, delErr)
	}

	return len(edges), unresolved, nil
}

// CleanupCrossProjectCalls removes any CALLS edge whose endpoints straddle
// two projects — a defensive pass that should rarely fire, since
// create_call_relationship is scoped to a single project by construction.
func (s *Store) CleanupCrossProjectCalls() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM edges
		WHERE kind = ? AND EXISTS (
			SELECT 1 FROM functions fa, functions fb
			WHERE fa.id = edges.src_id AND fb.id = edges.dst_id
			AND fa.project_id != fb.project_id
		)`, string(model.EdgeCalls),
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup cross-project calls: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.GraphWarn("cleaned up %d cross-project CALLS edges", n)
	}
	return n, nil
}
