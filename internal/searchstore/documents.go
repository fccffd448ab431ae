package searchstore

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/antigravity-dev/codegraph/internal/model"
)

// CodeDocumentID derives a stable id for a file's code document from a
// digest of its path, grounded on the teacher's DataFlowCache.cacheFilePath
// convention (sha256 of the path, hex-encoded).
func CodeDocumentID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:8])
}

// BuildCodeDocument joins a file's symbols, docstrings, signatures, and
// imports into one searchable document.
func BuildCodeDocument(file model.File, functions []model.Function, symbols []model.Symbol, imports []model.Import) Document {
	var b strings.Builder
	b.WriteString(file.Path)
	b.WriteByte('\n')
	for _, fn := range functions {
		b.WriteString(fn.Name)
		b.WriteByte(' ')
		b.WriteString(fn.Docstring)
		b.WriteByte('\n')
		b.WriteString(functionSignature(fn))
		b.WriteByte('\n')
	}
	for _, sym := range symbols {
		b.WriteString(sym.Name)
		b.WriteByte(' ')
		b.WriteString(sym.Docstring)
		b.WriteByte('\n')
	}
	for _, imp := range imports {
		b.WriteString(imp.Path)
		b.WriteByte(' ')
		b.WriteString(strings.Join(imp.Items, " "))
		b.WriteByte('\n')
	}

	return Document{
		ID:        CodeDocumentID(file.Path),
		Kind:      KindCode,
		ProjectID: file.ProjectID,
		Language:  file.Language,
		Content:   b.String(),
	}
}

func functionSignature(fn model.Function) string {
	var b strings.Builder
	b.WriteString(fn.Name)
	b.WriteByte('(')
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteByte(' ')
		b.WriteString(p.Type)
	}
	b.WriteString(") ")
	b.WriteString(fn.ReturnType)
	return b.String()
}

// BuildDecisionDocument mirrors a plan decision into a document keyed by its
// own UUID.
func BuildDecisionDocument(projectID string, d model.Decision) Document {
	return Document{
		ID:        d.ID,
		Kind:      KindDecision,
		ProjectID: projectID,
		Content:   d.Summary + "\n" + d.Rationale,
	}
}

// BuildNoteDocument mirrors a knowledge note into a document keyed by its
// own UUID, carrying the extra facets notes can be filtered by.
func BuildNoteDocument(n model.Note) Document {
	return Document{
		ID:         n.ID,
		Kind:       KindNote,
		ProjectID:  n.ProjectID,
		Content:    n.Content + "\n" + strings.Join(n.Tags, " "),
		NoteType:   string(n.Type),
		NoteStatus: string(n.Status),
		Importance: string(n.Importance),
	}
}
