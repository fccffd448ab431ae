// Package graphstore persists the code property graph, the planning
// substrate, and notes/synapses in an embedded SQLite database, with vector
// columns served by sqlite-vec for nearest-neighbor search.
package graphstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// Store is the embedded relational projection of the property graph: node
// tables per kind, one typed edge table, planning tables, and note tables, all
// behind a single writer lock.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	dbPath    string
	vectorExt bool
	vecDims   int
}

// New opens (creating if necessary) the graph store at path.
func New(path string, vecDims int) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "New")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create graph store dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.GraphDebug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.GraphDebug("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.GraphDebug("failed to set synchronous=NORMAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.GraphDebug("failed to enable foreign_keys: %v", err)
	}

	s := &Store{db: db, dbPath: path, vecDims: vecDims}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	s.detectVecExtension()
	if s.vectorExt {
		if err := s.initVecTables(); err != nil {
			logging.Get(logging.CategoryGraph).Warn("vec table init failed: %v", err)
		}
		logging.Graph("sqlite-vec extension detected, vector search enabled")
	} else {
		logging.Get(logging.CategoryGraph).Warn("sqlite-vec extension not available; vector_search_* will fall back to brute force")
	}

	logging.Graph("graph store ready at %s", path)
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			workspace_id TEXT,
			slug TEXT NOT NULL,
			root_path TEXT NOT NULL UNIQUE,
			last_synced DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_workspace ON projects(workspace_id)`,

		`CREATE TABLE IF NOT EXISTS workspaces (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS files (
			path TEXT NOT NULL,
			project_id TEXT NOT NULL,
			language TEXT,
			content_hash TEXT,
			embedding BLOB,
			last_parsed DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (project_id, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_project ON files(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_files_hash ON files(content_hash)`,

		`CREATE TABLE IF NOT EXISTS functions (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			name TEXT NOT NULL,
			visibility TEXT,
			params_json TEXT,
			return_type TEXT,
			generics_json TEXT,
			is_async BOOLEAN DEFAULT FALSE,
			is_unsafe BOOLEAN DEFAULT FALSE,
			cyclomatic_complexity INTEGER DEFAULT 0,
			line_start INTEGER,
			line_end INTEGER,
			docstring TEXT,
			signature_hash TEXT,
			body_hash TEXT,
			embedding BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_functions_project_file ON functions(project_id, file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_functions_name ON functions(name)`,
		`CREATE INDEX IF NOT EXISTS idx_functions_sig_hash ON functions(signature_hash)`,

		`CREATE TABLE IF NOT EXISTS symbols (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			generics_json TEXT,
			visibility TEXT,
			docstring TEXT,
			line_start INTEGER,
			line_end INTEGER,
			for_type TEXT,
			trait_name TEXT,
			signature_hash TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_project_file ON symbols(project_id, file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind)`,

		`CREATE TABLE IF NOT EXISTS imports (
			project_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			path TEXT NOT NULL,
			alias TEXT,
			items_json TEXT,
			line INTEGER,
			PRIMARY KEY (project_id, file_path, path, line)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_imports_path ON imports(path)`,

		// Generic typed-edge table, grounded on the teacher's knowledge_graph
		// table shape (entity_a/relation/entity_b/weight), specialized with a
		// project scope and a fixed edge-kind vocabulary.
		`CREATE TABLE IF NOT EXISTS edges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			src_id TEXT NOT NULL,
			dst_id TEXT NOT NULL,
			weight REAL DEFAULT 1.0,
			metadata TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(project_id, kind, src_id, dst_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_src ON edges(project_id, src_id, kind)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(project_id, dst_id, kind)`,

		// Unresolved call sites awaiting scoped resolution within a project.
		`CREATE TABLE IF NOT EXISTS pending_calls (
			project_id TEXT NOT NULL,
			caller_id TEXT NOT NULL,
			callee_name TEXT NOT NULL,
			line INTEGER,
			PRIMARY KEY (project_id, caller_id, callee_name, line)
		)`,

		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_project ON plans(project_id)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			priority INTEGER DEFAULT 0,
			depends_on_json TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_plan ON tasks(plan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,

		`CREATE TABLE IF NOT EXISTS steps (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			summary TEXT NOT NULL,
			done BOOLEAN DEFAULT FALSE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_steps_task ON steps(task_id, ordinal)`,

		`CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL,
			summary TEXT NOT NULL,
			rationale TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_plan ON decisions(plan_id)`,

		`CREATE TABLE IF NOT EXISTS constraints (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_constraints_plan ON constraints(plan_id)`,

		`CREATE TABLE IF NOT EXISTS milestones (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			name TEXT NOT NULL,
			due_at DATETIME,
			reached BOOLEAN DEFAULT FALSE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_milestones_project ON milestones(project_id)`,

		`CREATE TABLE IF NOT EXISTS releases (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			version TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_releases_project ON releases(project_id)`,

		`CREATE TABLE IF NOT EXISTS commits (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			sha TEXT NOT NULL,
			message TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_commits_project ON commits(project_id)`,

		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			note_type TEXT NOT NULL,
			status TEXT NOT NULL,
			importance TEXT NOT NULL,
			scope_kind TEXT NOT NULL,
			scope_value TEXT,
			content TEXT NOT NULL,
			tags_json TEXT,
			created_by TEXT,
			last_confirmed_at DATETIME,
			staleness_score REAL DEFAULT 0,
			assertion_rule_json TEXT,
			supersedes TEXT,
			embedding BLOB,
			energy REAL DEFAULT 1.0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_project ON notes(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_scope ON notes(scope_kind, scope_value)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_status ON notes(status)`,

		`CREATE TABLE IF NOT EXISTS note_anchors (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			signature_hash TEXT,
			body_hash TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anchors_note ON note_anchors(note_id)`,
		`CREATE INDEX IF NOT EXISTS idx_anchors_entity ON note_anchors(entity_type, entity_id)`,

		`CREATE TABLE IF NOT EXISTS synapses (
			from_note_id TEXT NOT NULL,
			to_note_id TEXT NOT NULL,
			weight REAL DEFAULT 1.0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (from_note_id, to_note_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_synapses_from ON synapses(from_note_id)`,
		`CREATE INDEX IF NOT EXISTS idx_synapses_to ON synapses(to_note_id)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("graph store schema: %w", err)
		}
	}
	return nil
}

// detectVecExtension probes whether the sqlite-vec virtual table type is
// registered on this connection, following the teacher's LocalStore probe.
func (s *Store) detectVecExtension() {
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])"); err == nil {
		s.vectorExt = true
		_, _ = s.db.Exec("DROP TABLE IF EXISTS vec_probe")
		return
	}
	s.vectorExt = false
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	logging.Graph("closing graph store")
	return s.db.Close()
}

// DB exposes the underlying connection for components (e.g. migrations,
// ad-hoc diagnostics) that need raw access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Stats returns row counts per table, for diagnostics.
func (s *Store) Stats() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := []string{
		"projects", "workspaces", "files", "functions", "symbols", "imports",
		"edges", "plans", "tasks", "steps", "decisions", "constraints",
		"milestones", "releases", "commits", "notes", "note_anchors", "synapses",
	}
	stats := make(map[string]int64, len(tables))
	for _, t := range tables {
		var n int64
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&n); err != nil {
			continue
		}
		stats[t] = n
	}
	return stats, nil
}
