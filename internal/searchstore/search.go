package searchstore

import (
	"sort"
	"strings"
)

// Search scores every document of kind against query by weighted term
// overlap, grounded on the teacher's RankFiles weighting: a document's score
// is the sum of matched-term frequencies, boosted by 1.0 + (uniqueMatches-1)
// * 0.2 when more than one distinct query term hits, then normalized into
// [0,1] against the query's own best-case (self-match) score, capped at 1.
func (s *Store) Search(kind DocumentKind, query string, filters Filters, limit int) ([]Scored, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sqlQuery := `SELECT id, kind, project_id, language, content, note_type, note_status, importance
	             FROM documents WHERE kind = ?`
	args := []interface{}{string(kind)}
	if filters.Language != "" {
		sqlQuery += ` AND language = ?`
		args = append(args, filters.Language)
	}
	if filters.ProjectSlug != "" {
		sqlQuery += ` AND project_id = ?`
		args = append(args, filters.ProjectSlug)
	}
	if kind == KindNote {
		if filters.NoteType != "" {
			sqlQuery += ` AND note_type = ?`
			args = append(args, filters.NoteType)
		}
		if filters.NoteStatus != "" {
			sqlQuery += ` AND note_status = ?`
			args = append(args, filters.NoteStatus)
		}
		if filters.Importance != "" {
			sqlQuery += ` AND importance = ?`
			args = append(args, filters.Importance)
		}
	}

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	var results []Scored
	for rows.Next() {
		var d Document
		var k string
		if err := rows.Scan(&d.ID, &k, &d.ProjectID, &d.Language, &d.Content, &d.NoteType, &d.NoteStatus, &d.Importance); err != nil {
			continue
		}
		d.Kind = DocumentKind(k)
		score := scoreDocument(d.Content, queryTerms)
		if score > 0 {
			results = append(results, Scored{Document: d, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func scoreDocument(content string, queryTerms map[string]int) float64 {
	docTerms := tokenize(content)
	var matched float64
	var uniqueMatches int
	for term, qfreq := range queryTerms {
		if dfreq, ok := docTerms[term]; ok {
			matched += float64(qfreq * dfreq)
			uniqueMatches++
		}
	}
	if matched == 0 {
		return 0
	}
	boost := 1.0
	if uniqueMatches > 1 {
		boost = 1.0 + float64(uniqueMatches-1)*0.2
	}
	raw := matched * boost

	// Normalize against the query's own best-case match against itself so
	// the result stays within [0,1] regardless of document length.
	var selfMatch float64
	for _, qfreq := range queryTerms {
		selfMatch += float64(qfreq * qfreq)
	}
	if selfMatch == 0 {
		return 0
	}
	selfBoost := 1.0
	if len(queryTerms) > 1 {
		selfBoost = 1.0 + float64(len(queryTerms)-1)*0.2
	}
	norm := raw / (selfMatch * selfBoost)
	if norm > 1.0 {
		norm = 1.0
	}
	return norm
}

// containsFold reports whether haystack contains needle, case-insensitively.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
