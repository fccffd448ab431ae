package graphstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/model"
)

// UpsertFile inserts or updates a File node.
func (s *Store) UpsertFile(f model.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertFileLocked(f)
}

func (s *Store) upsertFileLocked(f model.File) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO files (project_id, path, language, content_hash, last_parsed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, path) DO UPDATE SET
		   language = excluded.language,
		   content_hash = excluded.content_hash,
		   last_parsed = excluded.last_parsed,
		   updated_at = excluded.updated_at`,
		f.ProjectID, f.Path, f.Language, f.ContentHash, f.LastParsed, now, now,
	)
	return err
}

// UpsertFiles batches UpsertFile in a single transaction, grounded on the
// teacher's batch-insert pattern in vector_store.go's
// StoreVectorBatchWithEmbedding.
func (s *Store) UpsertFiles(files []model.File) error {
	if len(files) == 0 {
		return nil
	}
	timer := logging.StartTimer(logging.CategoryGraph, "UpsertFiles")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin file batch: %w", err)
	}
	now := time.Now().UTC()
	stmt, err := tx.Prepare(
		`INSERT INTO files (project_id, path, language, content_hash, last_parsed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, path) DO UPDATE SET
		   language = excluded.language,
		   content_hash = excluded.content_hash,
		   last_parsed = excluded.last_parsed,
		   updated_at = excluded.updated_at`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare file batch: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.Exec(f.ProjectID, f.Path, f.Language, f.ContentHash, f.LastParsed, now, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert file %s: %w", f.Path, err)
		}
	}
	return tx.Commit()
}

// GetFileHashes returns the stored content_hash for every file currently
// recorded under projectID, keyed by path — used by the sync pipeline's
// hash-check phase to skip unchanged files without re-reading the graph
// store per file.
func (s *Store) GetFileHashes(projectID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT path, content_hash FROM files WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query file hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			continue
		}
		hashes[path] = hash
	}
	return hashes, nil
}

// DeleteFile removes a File node and all edges touching it.
func (s *Store) DeleteFile(projectID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM files WHERE project_id = ? AND path = ?`, projectID, path); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM edges WHERE project_id = ? AND (src_id = ? OR dst_id = ?)`, projectID, path, path)
	return err
}

// ReconcileFiles deletes every file node for projectID whose path is not in
// present, plus their functions/symbols/imports/edges — the delete-by-
// absence step of the sync pipeline for files removed from disk between
// syncs.
func (s *Store) ReconcileFiles(projectID string, present map[string]bool) (int, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "ReconcileFiles")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path FROM files WHERE project_id = ?`, projectID)
	if err != nil {
		return 0, fmt.Errorf("reconcile files query: %w", err)
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			continue
		}
		if !present[path] {
			stale = append(stale, path)
		}
	}
	rows.Close()

	for _, path := range stale {
		if _, err := s.db.Exec(`DELETE FROM files WHERE project_id = ? AND path = ?`, projectID, path); err != nil {
			return 0, fmt.Errorf("delete stale file %s: %w", path, err)
		}
		if _, err := s.db.Exec(`DELETE FROM functions WHERE project_id = ? AND file_path = ?`, projectID, path); err != nil {
			return 0, fmt.Errorf("delete functions for stale file %s: %w", path, err)
		}
		if _, err := s.db.Exec(`DELETE FROM symbols WHERE project_id = ? AND file_path = ?`, projectID, path); err != nil {
			return 0, fmt.Errorf("delete symbols for stale file %s: %w", path, err)
		}
		if _, err := s.db.Exec(`DELETE FROM imports WHERE project_id = ? AND file_path = ?`, projectID, path); err != nil {
			return 0, fmt.Errorf("delete imports for stale file %s: %w", path, err)
		}
		if _, err := s.db.Exec(`DELETE FROM edges WHERE project_id = ? AND (src_id = ? OR dst_id = ? OR src_id LIKE ? OR dst_id LIKE ?)`,
			projectID, path, path, path+"#%", path+"#%"); err != nil {
			return 0, fmt.Errorf("delete edges for stale file %s: %w", path, err)
		}
	}
	logging.GraphDebug("reconciled %d stale files for project %s", len(stale), projectID)
	return len(stale), nil
}

// UpsertFunction inserts or updates a single Function node.
func (s *Store) UpsertFunction(projectID string, fn model.Function) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paramsJSON, _ := json.Marshal(fn.Params)
	genericsJSON, _ := json.Marshal(fn.Generics)
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO functions (
			id, project_id, file_path, name, visibility, params_json, return_type,
			generics_json, is_async, is_unsafe, cyclomatic_complexity, line_start,
			line_end, docstring, signature_hash, body_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path, name = excluded.name,
			visibility = excluded.visibility, params_json = excluded.params_json,
			return_type = excluded.return_type, generics_json = excluded.generics_json,
			is_async = excluded.is_async, is_unsafe = excluded.is_unsafe,
			cyclomatic_complexity = excluded.cyclomatic_complexity,
			line_start = excluded.line_start, line_end = excluded.line_end,
			docstring = excluded.docstring, signature_hash = excluded.signature_hash,
			body_hash = excluded.body_hash, updated_at = excluded.updated_at`,
		fn.ID, projectID, fn.FilePath, fn.Name, string(fn.Visibility),
		string(paramsJSON), fn.ReturnType, string(genericsJSON), fn.IsAsync, fn.IsUnsafe,
		fn.CyclomaticComplexity, fn.LineStart, fn.LineEnd, fn.Docstring, fn.SignatureHash,
		fn.BodyHash, now, now,
	)
	return err
}

// UpsertFunctions batches function upserts in a single transaction.
func (s *Store) UpsertFunctions(projectID string, fns []model.Function) error {
	if len(fns) == 0 {
		return nil
	}
	timer := logging.StartTimer(logging.CategoryGraph, "UpsertFunctions")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin function batch: %w", err)
	}
	now := time.Now().UTC()
	stmt, err := tx.Prepare(
		`INSERT INTO functions (
			id, project_id, file_path, name, visibility, params_json, return_type,
			generics_json, is_async, is_unsafe, cyclomatic_complexity, line_start,
			line_end, docstring, signature_hash, body_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path, name = excluded.name,
			visibility = excluded.visibility, params_json = excluded.params_json,
			return_type = excluded.return_type, generics_json = excluded.generics_json,
			is_async = excluded.is_async, is_unsafe = excluded.is_unsafe,
			cyclomatic_complexity = excluded.cyclomatic_complexity,
			line_start = excluded.line_start, line_end = excluded.line_end,
			docstring = excluded.docstring, signature_hash = excluded.signature_hash,
			body_hash = excluded.body_hash, updated_at = excluded.updated_at`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare function batch: %w", err)
	}
	defer stmt.Close()

	for _, fn := range fns {
		paramsJSON, _ := json.Marshal(fn.Params)
		genericsJSON, _ := json.Marshal(fn.Generics)
		if _, err := stmt.Exec(
			fn.ID, projectID, fn.FilePath, fn.Name, string(fn.Visibility), string(paramsJSON),
			fn.ReturnType, string(genericsJSON), fn.IsAsync, fn.IsUnsafe, fn.CyclomaticComplexity,
			fn.LineStart, fn.LineEnd, fn.Docstring, fn.SignatureHash, fn.BodyHash, now, now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert function %s: %w", fn.ID, err)
		}
	}
	return tx.Commit()
}

// GetFunction fetches a function by id.
func (s *Store) GetFunction(id string) (*model.Function, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, project_id, file_path, name, visibility, params_json, return_type,
		        generics_json, is_async, is_unsafe, cyclomatic_complexity, line_start,
		        line_end, docstring, signature_hash, body_hash, created_at, updated_at
		 FROM functions WHERE id = ?`, id,
	)
	var fn model.Function
	var projectID, paramsJSON, genericsJSON string
	if err := row.Scan(
		&fn.ID, &projectID, &fn.FilePath, &fn.Name, &fn.Visibility, &paramsJSON, &fn.ReturnType,
		&genericsJSON, &fn.IsAsync, &fn.IsUnsafe, &fn.CyclomaticComplexity, &fn.LineStart,
		&fn.LineEnd, &fn.Docstring, &fn.SignatureHash, &fn.BodyHash, &fn.CreatedAt, &fn.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	_ = json.Unmarshal([]byte(paramsJSON), &fn.Params)
	_ = json.Unmarshal([]byte(genericsJSON), &fn.Generics)
	return &fn, nil
}

// UpsertSymbol inserts or updates a struct/enum/trait/impl node.
func (s *Store) UpsertSymbol(projectID string, sym model.Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	genericsJSON, _ := json.Marshal(sym.Generics)
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO symbols (
			id, project_id, file_path, kind, name, generics_json, visibility, docstring,
			line_start, line_end, for_type, trait_name, signature_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path, kind = excluded.kind, name = excluded.name,
			generics_json = excluded.generics_json, visibility = excluded.visibility,
			docstring = excluded.docstring, line_start = excluded.line_start,
			line_end = excluded.line_end, for_type = excluded.for_type,
			trait_name = excluded.trait_name, signature_hash = excluded.signature_hash,
			updated_at = excluded.updated_at`,
		sym.ID, projectID, sym.FilePath, string(sym.Kind), sym.Name, string(genericsJSON),
		string(sym.Visibility), sym.Docstring, sym.LineStart, sym.LineEnd, sym.ForType,
		sym.TraitName, sym.SignatureHash, now, now,
	)
	return err
}

// PutImports replaces the import set for a file (delete-then-insert, since
// import lines shift on every edit and there is no stable natural key
// beyond (file, path, line)).
func (s *Store) PutImports(projectID, filePath string, imports []model.Import) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin imports replace: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM imports WHERE project_id = ? AND file_path = ?`, projectID, filePath); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear imports for %s: %w", filePath, err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO imports (project_id, file_path, path, alias, items_json, line) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare imports insert: %w", err)
	}
	defer stmt.Close()
	for _, imp := range imports {
		itemsJSON, _ := json.Marshal(imp.Items)
		if _, err := stmt.Exec(projectID, filePath, imp.Path, imp.Alias, string(itemsJSON), imp.Line); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert import %s: %w", imp.Path, err)
		}
	}
	return tx.Commit()
}

// ListFunctionsByFile returns every function node for a file; note
// lifecycle verification uses it to compare a file's stored functions with
// its freshly parsed ones.
func (s *Store) ListFunctionsByFile(projectID, filePath string) ([]model.Function, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, name FROM functions WHERE project_id = ? AND file_path = ?`, projectID, filePath,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Function
	for rows.Next() {
		var fn model.Function
		if err := rows.Scan(&fn.ID, &fn.Name); err != nil {
			continue
		}
		fn.FilePath = filePath
		out = append(out, fn)
	}
	return out, nil
}

// ListFunctionsByProject returns every function id/name pair in a project,
// the candidate set scoped call resolution matches callee names against.
func (s *Store) ListFunctionsByProject(projectID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, name FROM functions WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			continue
		}
		byName[name] = id
	}
	return byName, nil
}
