package graphstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// ScoredID is one nearest-neighbor hit: the entity id and its cosine
// similarity in [-1, 1], 1 being identical.
type ScoredID struct {
	ID         string
	Similarity float64
}

// vecTables maps an entity kind to its vec0 virtual table name.
var vecTables = map[string]string{
	"function": "vec_functions",
	"file":     "vec_files",
	"note":     "vec_notes",
}

// initVecTables creates the vec0 virtual tables backing vector_search_*,
// mirroring the teacher's single vec_index table but split per entity kind
// so each table's ids map directly onto functions.id / files.path /
// notes.id instead of a synthetic rowid.
func (s *Store) initVecTables() error {
	for _, table := range vecTables {
		stmt := fmt.Sprintf(
			"CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(entity_id TEXT PRIMARY KEY, embedding float[%d])",
			table, s.vecDims,
		)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init vec table %s: %w", table, err)
		}
	}
	return nil
}

func encodeFloat32(vec []float32) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, vec)
	return buf.Bytes()
}

func decodeFloat32(blob []byte) []float32 {
	n := len(blob) / 4
	out := make([]float32, n)
	_ = binary.Read(bytes.NewReader(blob), binary.LittleEndian, &out)
	return out
}

// UpsertEmbedding stores the embedding for an entity (kind: "function",
// "file", or "note") both on its row (for brute-force fallback) and in the
// matching vec0 table (for ANN search), following the teacher's dual
// storage of JSON-column + vec_index row.
func (s *Store) UpsertEmbedding(kind, entityID string, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob := encodeFloat32(vec)

	switch kind {
	case "function":
		if _, err := s.db.Exec(`UPDATE functions SET embedding = ? WHERE id = ?`, blob, entityID); err != nil {
			return fmt.Errorf("store function embedding: %w", err)
		}
	case "file":
		if _, err := s.db.Exec(`UPDATE files SET embedding = ? WHERE path = ?`, blob, entityID); err != nil {
			return fmt.Errorf("store file embedding: %w", err)
		}
	case "note":
		if _, err := s.db.Exec(`UPDATE notes SET embedding = ? WHERE id = ?`, blob, entityID); err != nil {
			return fmt.Errorf("store note embedding: %w", err)
		}
	default:
		return fmt.Errorf("unknown embedding kind %q", kind)
	}

	if !s.vectorExt {
		return nil
	}
	table, ok := vecTables[kind]
	if !ok {
		return fmt.Errorf("unknown embedding kind %q", kind)
	}
	if _, err := s.db.Exec(
		fmt.Sprintf("INSERT INTO %s(entity_id, embedding) VALUES (?, ?) ON CONFLICT(entity_id) DO UPDATE SET embedding = excluded.embedding", table),
		entityID, blob,
	); err != nil {
		logging.GraphWarn("vec table upsert failed for %s %s: %v", kind, entityID, err)
	}
	return nil
}

// VectorSearch returns the top-k nearest neighbors of query within the
// given entity kind, optionally scoped to a project. Falls back to a
// brute-force cosine scan when sqlite-vec is unavailable, grounded on the
// teacher's vectorRecallBruteForce.
func (s *Store) VectorSearch(kind, projectID string, query []float32, k int) ([]ScoredID, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "VectorSearch")
	defer timer.Stop()

	if k <= 0 {
		k = 10
	}
	if s.vectorExt {
		return s.vectorSearchANN(kind, projectID, query, k)
	}
	return s.vectorSearchBruteForce(kind, projectID, query, k)
}

func (s *Store) vectorSearchANN(kind, projectID string, query []float32, k int) ([]ScoredID, error) {
	table, ok := vecTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown embedding kind %q", kind)
	}
	blob := encodeFloat32(query)

	// Join back to the owning table to apply the project scope; sqlite-vec
	// itself has no notion of project.
	var joinSQL string
	switch kind {
	case "function":
		joinSQL = "JOIN functions f ON f.id = v.entity_id WHERE f.project_id = ?"
	case "file":
		joinSQL = "JOIN files f ON f.path = v.entity_id WHERE f.project_id = ?"
	case "note":
		joinSQL = "JOIN notes f ON f.id = v.entity_id WHERE f.project_id = ?"
	}

	sqlStr := fmt.Sprintf(
		"SELECT v.entity_id, vec_distance_cosine(v.embedding, ?) AS dist FROM %s v %s ORDER BY dist ASC LIMIT ?",
		table, joinSQL,
	)

	s.mu.RLock()
	rows, err := s.db.Query(sqlStr, blob, projectID, k)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var out []ScoredID
	for rows.Next() {
		var id string
		var dist float64
		if err := rows.Scan(&id, &dist); err != nil {
			continue
		}
		out = append(out, ScoredID{ID: id, Similarity: 1 - dist})
	}
	return out, nil
}

func (s *Store) vectorSearchBruteForce(kind, projectID string, query []float32, k int) ([]ScoredID, error) {
	var table, idCol string
	switch kind {
	case "function":
		table, idCol = "functions", "id"
	case "file":
		table, idCol = "files", "path"
	case "note":
		table, idCol = "notes", "id"
	default:
		return nil, fmt.Errorf("unknown embedding kind %q", kind)
	}

	s.mu.RLock()
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT %s, embedding FROM %s WHERE project_id = ? AND embedding IS NOT NULL", idCol, table),
		projectID,
	)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("vector search brute force: %w", err)
	}
	defer rows.Close()

	var scored []ScoredID
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			continue
		}
		sim := cosineSimilarity32(query, decodeFloat32(blob))
		scored = append(scored, ScoredID{ID: id, Similarity: sim})
	}

	// Partial selection sort for the top k; result sets are expected to be
	// small enough (single project) that this beats pulling in a heap.
	for i := 0; i < len(scored) && i < k; i++ {
		best := i
		for j := i + 1; j < len(scored); j++ {
			if scored[j].Similarity > scored[best].Similarity {
				best = j
			}
		}
		scored[i], scored[best] = scored[best], scored[i]
	}
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func cosineSimilarity32(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
