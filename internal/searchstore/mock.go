package searchstore

import "sync"

// Mock is an in-memory Index with the literal scoring contract tests rely
// on: 1.0 for a case-insensitive exact match of the query against a
// document's content, 0.5 for a substring match, 0 otherwise. It trades the
// Store's weighted-term realism for determinism, so callers can assert on
// exact scores without depending on tokenization details.
type Mock struct {
	mu   sync.RWMutex
	docs map[string]Document
}

var (
	_ Index = (*Store)(nil)
	_ Index = (*Mock)(nil)
)

// NewMock returns an empty Mock index.
func NewMock() *Mock {
	return &Mock{docs: make(map[string]Document)}
}

func (m *Mock) IndexDocument(doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *Mock) IndexBatch(docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return nil
}

func (m *Mock) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *Mock) Search(kind DocumentKind, query string, filters Filters, limit int) ([]Scored, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []Scored
	for _, d := range m.docs {
		if d.Kind != kind {
			continue
		}
		if filters.Language != "" && d.Language != filters.Language {
			continue
		}
		if filters.ProjectSlug != "" && d.ProjectID != filters.ProjectSlug {
			continue
		}
		if kind == KindNote {
			if filters.NoteType != "" && d.NoteType != filters.NoteType {
				continue
			}
			if filters.NoteStatus != "" && d.NoteStatus != filters.NoteStatus {
				continue
			}
			if filters.Importance != "" && d.Importance != filters.Importance {
				continue
			}
		}

		var score float64
		switch {
		case equalFold(d.Content, query):
			score = 1.0
		case containsFold(d.Content, query):
			score = 0.5
		default:
			score = 0
		}
		if score > 0 {
			results = append(results, Scored{Document: d, Score: score})
		}
	}

	// Highest score first; ties keep insertion-independent but stable order
	// by document ID since map iteration order is randomized.
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && less(results[j], results[j-1]); j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func less(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Document.ID < b.Document.ID
}

func (m *Mock) CleanupOrphans(validProjectIDs map[string]bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.docs {
		if d.Kind != KindCode {
			continue
		}
		if d.ProjectID == "" || !validProjectIDs[d.ProjectID] {
			delete(m.docs, id)
			n++
		}
	}
	return n, nil
}

func equalFold(a, b string) bool {
	return len(a) > 0 && len(b) > 0 && sameFold(a, b)
}

func sameFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
