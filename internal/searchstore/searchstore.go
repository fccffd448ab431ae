// Package searchstore mirrors symbol-level, decision, and note documents
// into a scored text index for retrieval, independent of the graph store's
// relational projection.
package searchstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// DocumentKind distinguishes the three document shapes the store indexes.
type DocumentKind string

const (
	KindCode     DocumentKind = "code"
	KindDecision DocumentKind = "decision"
	KindNote     DocumentKind = "note"
)

// Document is one indexed unit: a file's joined symbols/docstrings/
// signatures/imports (CodeDocument), a decision summary+rationale
// (DecisionDocument), or a note's content (NoteDocument).
type Document struct {
	ID         string
	Kind       DocumentKind
	ProjectID  string
	Language   string
	Content    string
	NoteType   string
	NoteStatus string
	Importance string
}

// Scored pairs a document with its [0,1] relevance to a query.
type Scored struct {
	Document Document
	Score    float64
}

// Filters narrows a Search call.
type Filters struct {
	Language     string
	ProjectSlug  string
	NoteType     string
	NoteStatus   string
	Importance   string
}

// Index is the abstract contract both the sqlite-backed Store and the
// in-memory Mock satisfy, so tests can substitute one for the other without
// touching caller code (spec calls this "store polymorphism").
type Index interface {
	IndexDocument(doc Document) error
	IndexBatch(docs []Document) error
	Search(kind DocumentKind, query string, filters Filters, limit int) ([]Scored, error)
	Delete(id string) error
	CleanupOrphans(validProjectIDs map[string]bool) (int64, error)
}

// Store is the sqlite-backed scored text index. It tokenizes document
// content into a term-frequency table and scores queries by weighted term
// overlap, grounded on the teacher's retrieval.SparseRetriever keyword
// weighting (primary/secondary/tertiary term weights, boosted by the
// number of distinct matched terms).
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (creating if necessary) the search store at path.
func New(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategorySearch, "New")
	defer timer.Stop()

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create search store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open search store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.SearchDebug("failed to set journal_mode=WAL: %v", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Search("search store ready at %s", path)
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			project_id TEXT NOT NULL,
			language TEXT,
			content TEXT NOT NULL,
			note_type TEXT,
			note_status TEXT,
			importance TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_kind_project ON documents(kind, project_id)`,
		`CREATE TABLE IF NOT EXISTS document_terms (
			document_id TEXT NOT NULL,
			term TEXT NOT NULL,
			freq INTEGER NOT NULL,
			PRIMARY KEY (document_id, term)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_terms_term ON document_terms(term)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("search store schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var tokenPattern = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)

func tokenize(content string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range tokenPattern.FindAllString(content, -1) {
		if len(tok) <= 2 {
			continue
		}
		freq[strings.ToLower(tok)]++
	}
	return freq
}

// IndexDocument inserts or replaces a document and its term index.
func (s *Store) IndexDocument(doc Document) error {
	timer := logging.StartTimer(logging.CategorySearch, "IndexDocument")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexDocumentLocked(doc)
}

func (s *Store) indexDocumentLocked(doc Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin index document: %w", err)
	}
	if err := s.writeDocumentTx(tx, doc); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) writeDocumentTx(tx *sql.Tx, doc Document) error {
	if _, err := tx.Exec(
		`INSERT INTO documents (id, kind, project_id, language, content, note_type, note_status, importance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   kind = excluded.kind, project_id = excluded.project_id, language = excluded.language,
		   content = excluded.content, note_type = excluded.note_type,
		   note_status = excluded.note_status, importance = excluded.importance`,
		doc.ID, string(doc.Kind), doc.ProjectID, doc.Language, doc.Content,
		doc.NoteType, doc.NoteStatus, doc.Importance,
	); err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM document_terms WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clear terms for %s: %w", doc.ID, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO document_terms (document_id, term, freq) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare term insert: %w", err)
	}
	defer stmt.Close()
	for term, freq := range tokenize(doc.Content) {
		if _, err := stmt.Exec(doc.ID, term, freq); err != nil {
			return fmt.Errorf("insert term %q for %s: %w", term, doc.ID, err)
		}
	}
	return nil
}

// IndexBatch indexes many documents in a single transaction, chunking at
// 500 documents per transaction to bound memory and lock hold time.
func (s *Store) IndexBatch(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	timer := logging.StartTimer(logging.CategorySearch, "IndexBatch")
	defer timer.Stop()

	const chunkSize = 500
	s.mu.Lock()
	defer s.mu.Unlock()

	for start := 0; start < len(docs); start += chunkSize {
		end := start + chunkSize
		if end > len(docs) {
			end = len(docs)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin index batch: %w", err)
		}
		for _, doc := range docs[start:end] {
			if err := s.writeDocumentTx(tx, doc); err != nil {
				tx.Rollback()
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit index batch: %w", err)
		}
	}
	return nil
}

// Delete removes a document and its term index.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM document_terms WHERE document_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	return err
}

// CleanupOrphans removes code documents whose project_id is empty or
// references a project no longer present in validProjectIDs.
func (s *Store) CleanupOrphans(validProjectIDs map[string]bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, project_id FROM documents WHERE kind = ?`, string(KindCode))
	if err != nil {
		return 0, fmt.Errorf("cleanup orphans query: %w", err)
	}
	var orphans []string
	for rows.Next() {
		var id, projectID string
		if err := rows.Scan(&id, &projectID); err != nil {
			continue
		}
		if projectID == "" || !validProjectIDs[projectID] {
			orphans = append(orphans, id)
		}
	}
	rows.Close()

	for _, id := range orphans {
		if _, err := s.db.Exec(`DELETE FROM document_terms WHERE document_id = ?`, id); err != nil {
			return 0, err
		}
		if _, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id); err != nil {
			return 0, err
		}
	}
	if len(orphans) > 0 {
		logging.SearchDebug("cleaned up %d orphaned code documents", len(orphans))
	}
	return int64(len(orphans)), nil
}
