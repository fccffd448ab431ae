// Package hashing produces the stable signature/body/struct/file digests the
// note lifecycle uses to detect when anchored code has changed or moved.
package hashing

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/antigravity-dev/codegraph/internal/model"
)

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum[:8])
}

// FunctionSignatureHash hashes a function's externally-visible shape: async/
// unsafe prefix, name, params sorted by name, return type. Two functions
// that differ only in param order or body hash identically here.
func FunctionSignatureHash(fn model.Function) string {
	var b strings.Builder
	if fn.IsAsync {
		b.WriteString("async ")
	}
	if fn.IsUnsafe {
		b.WriteString("unsafe ")
	}
	b.WriteString(fn.Name)
	b.WriteByte('(')

	params := make([]model.Param, len(fn.Params))
	copy(params, fn.Params)
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Name)
		b.WriteByte(':')
		b.WriteString(collapseWhitespace(p.Type))
	}
	b.WriteByte(')')
	if fn.ReturnType != "" {
		b.WriteString("->")
		b.WriteString(collapseWhitespace(fn.ReturnType))
	}
	return digest(b.String())
}

var (
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	stringLit    = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	charLit      = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)
	whitespace   = regexp.MustCompile(`\s+`)
)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// BodyHash normalizes a function body (comments stripped, literals
// redacted, whitespace collapsed) before hashing, so reformatting doesn't
// register as a semantic change but literal or logic edits do.
func BodyHash(body string) string {
	normalized := blockComment.ReplaceAllString(body, "")
	normalized = lineComment.ReplaceAllString(normalized, "")
	normalized = stringLit.ReplaceAllString(normalized, `"STR"`)
	normalized = charLit.ReplaceAllString(normalized, `'C'`)
	normalized = collapseWhitespace(normalized)
	return digest(normalized)
}

// StructSignatureHash hashes a struct/enum/trait/impl's shape: name,
// sorted generics, sorted fields.
func StructSignatureHash(name string, generics []string, fields []model.Param, pub map[string]bool) string {
	var b strings.Builder
	b.WriteString("struct:")
	b.WriteString(name)

	if len(generics) > 0 {
		sorted := append([]string(nil), generics...)
		sort.Strings(sorted)
		b.WriteByte('<')
		b.WriteString(strings.Join(sorted, ","))
		b.WriteByte('>')
	}

	fieldsCopy := make([]model.Param, len(fields))
	copy(fieldsCopy, fields)
	sort.Slice(fieldsCopy, func(i, j int) bool { return fieldsCopy[i].Name < fieldsCopy[j].Name })
	b.WriteByte('{')
	for i, f := range fieldsCopy {
		if i > 0 {
			b.WriteByte(',')
		}
		if pub != nil && pub[f.Name] {
			b.WriteString("pub:")
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(collapseWhitespace(f.Type))
	}
	b.WriteByte('}')
	return digest(b.String())
}

// FileStructureHash hashes a file's overall shape: sorted symbol names and
// sorted import paths, changing whenever the file's public surface shifts.
func FileStructureHash(symbolNames []string, importPaths []string) string {
	symbols := append([]string(nil), symbolNames...)
	sort.Strings(symbols)
	imports := append([]string(nil), importPaths...)
	sort.Strings(imports)

	var b strings.Builder
	b.WriteString(strings.Join(symbols, ";"))
	b.WriteString("|")
	b.WriteString(strings.Join(imports, ";"))
	return digest(b.String())
}

// Similarity computes a character-wise match ratio between two hex hashes
// of equal shape, used as a cheap rename-detection signal. Identical
// strings return 1.0 regardless of length.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	matches := 0
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(maxLen)
}
