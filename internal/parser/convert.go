package parser

import (
	"regexp"
	"strings"

	"github.com/antigravity-dev/codegraph/internal/model"
)

// ParsedFile is the unified projection a CodeElementParser pass produces for
// one file: functions, symbols (structs/enums/traits/impls), imports, and
// unresolved call sites, ready for C4 persistence.
type ParsedFile struct {
	Path      string
	Language  string
	Functions []model.Function
	Symbols   []model.Symbol
	Imports   []model.Import
	Calls     []model.FunctionCall
}

// BuildParsedFile converts a flat CodeElement list plus the raw source into
// a ParsedFile, deriving call sites and import records. It computes no
// hashes; the Function hash fields are left empty.
func BuildParsedFile(path, language string, content []byte, elements []CodeElement) ParsedFile {
	pf := ParsedFile{Path: path, Language: language}

	for _, el := range elements {
		switch el.Type {
		case ElementFunction, ElementMethod:
			pf.Functions = append(pf.Functions, toFunction(path, el))
		case ElementStruct, ElementInterface, ElementType_:
			pf.Symbols = append(pf.Symbols, toSymbol(path, el))
		}
	}

	pf.Imports = extractImports(path, language, content)
	for _, el := range elements {
		if el.Type != ElementFunction && el.Type != ElementMethod {
			continue
		}
		for _, callee := range extractCalls(el.Body) {
			pf.Calls = append(pf.Calls, model.FunctionCall{
				CallerID:   el.Ref,
				CalleeName: callee,
				Line:       el.StartLine,
			})
		}
	}

	return pf
}

func toVisibility(v Visibility) model.Visibility {
	if v == VisibilityPublic {
		return model.VisibilityPublic
	}
	return model.VisibilityPrivate
}

func toFunction(path string, el CodeElement) model.Function {
	return model.Function{
		ID:                    el.Ref,
		FilePath:              path,
		Name:                  el.Name,
		Visibility:            toVisibility(el.Visibility),
		LineStart:             el.StartLine,
		LineEnd:               el.EndLine,
		CyclomaticComplexity:  cyclomaticComplexity(el.Body),
		Docstring:             extractDocstring(el.Body),
	}
}

func toSymbol(path string, el CodeElement) model.Symbol {
	kind := model.SymbolStruct
	if el.Type == ElementInterface {
		kind = model.SymbolTrait
	}
	return model.Symbol{
		ID:         el.Ref,
		FilePath:   path,
		Kind:       kind,
		Name:       el.Name,
		Visibility: toVisibility(el.Visibility),
		Docstring:  extractDocstring(el.Body),
		LineStart:  el.StartLine,
		LineEnd:    el.EndLine,
	}
}

var docCommentLine = regexp.MustCompile(`^\s*(///|//!|#|\*)\s?`)

// extractDocstring walks the lines immediately preceding the body's own
// declaration line looking for a contiguous comment block, the simplified
// analogue of spec.md's "walks prior siblings" rule — CodeElement.Body
// already starts at the declaration, so this looks at its own leading
// comment lines instead of true prior siblings.
func extractDocstring(body string) string {
	lines := strings.Split(body, "\n")
	var doc []string
	for _, line := range lines {
		if docCommentLine.MatchString(line) {
			doc = append(doc, docCommentLine.ReplaceAllString(line, ""))
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(doc, " "))
}

var branchKeyword = regexp.MustCompile(`\b(if|for|while|case|catch|else if|elif)\b|\?\?|&&|\|\||\?:`)

// cyclomaticComplexity starts at 1 and adds 1 per branching keyword or
// operator found in the body text, a token-level approximation of
// spec.md's per-branching-node walk.
func cyclomaticComplexity(body string) int {
	return 1 + len(branchKeyword.FindAllString(body, -1))
}

var callPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\(`)

var callKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "func": true, "def": true, "fn": true, "match": true,
}

// extractCalls finds call-expression-shaped identifiers in a function body
// and returns the rightmost identifier of each qualified call, e.g.
// "pkg.Thing.Do(" yields "Do". Left unresolved; C4 resolves scoped callees.
func extractCalls(body string) []string {
	var calls []string
	for _, m := range callPattern.FindAllStringSubmatch(body, -1) {
		qualified := m[1]
		parts := strings.Split(qualified, ".")
		name := parts[len(parts)-1]
		if callKeywords[name] || name == "" {
			continue
		}
		calls = append(calls, name)
	}
	return calls
}

var (
	goImport         = regexp.MustCompile(`"([^"]+)"`)
	pyImport         = regexp.MustCompile(`^\s*(?:from\s+(\S+)\s+import\s+(.+)|import\s+(.+))`)
	jsImport         = regexp.MustCompile(`import\s+.*?\s+from\s+['"]([^'"]+)['"]|require\(['"]([^'"]+)['"]\)`)
	rustUse          = regexp.MustCompile(`^\s*use\s+([\w:]+)(?:::\{([^}]+)\})?`)
	shellSource      = regexp.MustCompile(`^\s*(?:source|\.)\s+(\S+)`)
	cInclude         = regexp.MustCompile(`^\s*#include\s*[<"]([^>"]+)[>"]`)
)

// extractImports scans raw content for per-language import/include/use
// statements, a line-oriented simplification of a full tree-sitter import
// field walk.
func extractImports(path, language string, content []byte) []model.Import {
	var imports []model.Import
	lines := strings.Split(string(content), "\n")

	for i, line := range lines {
		lineNo := i + 1
		switch language {
		case "go":
			if strings.Contains(line, `"`) && (strings.Contains(line, "import") || isInGoImportBlock(lines, i)) {
				if m := goImport.FindStringSubmatch(line); m != nil {
					imports = append(imports, model.Import{Path: m[1], Line: lineNo})
				}
			}
		case "python":
			if m := pyImport.FindStringSubmatch(line); m != nil {
				if m[1] != "" {
					items := strings.Split(m[2], ",")
					for i := range items {
						items[i] = strings.TrimSpace(items[i])
					}
					imports = append(imports, model.Import{Path: m[1], Items: items, Line: lineNo})
				} else {
					imports = append(imports, model.Import{Path: strings.TrimSpace(m[3]), Line: lineNo})
				}
			}
		case "typescript", "javascript":
			if m := jsImport.FindStringSubmatch(line); m != nil {
				p := m[1]
				if p == "" {
					p = m[2]
				}
				imports = append(imports, model.Import{Path: p, Line: lineNo})
			}
		case "rust":
			if m := rustUse.FindStringSubmatch(line); m != nil {
				imp := model.Import{Path: m[1], Line: lineNo}
				if m[2] != "" {
					items := strings.Split(m[2], ",")
					for i := range items {
						items[i] = strings.TrimSpace(items[i])
					}
					imp.Items = items
				}
				imports = append(imports, imp)
			}
		case "shell":
			if m := shellSource.FindStringSubmatch(line); m != nil {
				imports = append(imports, model.Import{Path: m[1], Line: lineNo})
			}
		case "c":
			if m := cInclude.FindStringSubmatch(line); m != nil {
				imports = append(imports, model.Import{Path: m[1], Line: lineNo})
			}
		}
	}
	_ = path
	return imports
}

func isInGoImportBlock(lines []string, idx int) bool {
	for i := idx; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "import (" {
			return true
		}
		if trimmed == ")" || (trimmed != "" && !strings.HasPrefix(trimmed, "\"") && i != idx) {
			return false
		}
	}
	return false
}
