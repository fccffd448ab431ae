package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// CCodeParser implements CodeParser for C source files.
// It uses Tree-sitter for accurate AST parsing.
type CCodeParser struct {
	projectRoot string
	parser      *sitter.Parser
}

// NewCCodeParser creates a new C parser.
func NewCCodeParser(projectRoot string) *CCodeParser {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	return &CCodeParser{
		projectRoot: projectRoot,
		parser:      parser,
	}
}

// Language returns "c" for Ref URI generation.
func (p *CCodeParser) Language() string {
	return "c"
}

// SupportedExtensions returns [".c", ".h"].
func (p *CCodeParser) SupportedExtensions() []string {
	return []string{".c", ".h"}
}

// Parse extracts CodeElements from C source code.
func (p *CCodeParser) Parse(path string, content []byte) ([]CodeElement, error) {
	start := time.Now()
	logging.ParserDebug("CCodeParser: parsing file: %s", filepath.Base(path))

	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("CCodeParser: parse failed: %s - %v", path, err)
		return nil, err
	}
	defer tree.Close()

	lines := strings.Split(string(content), "\n")
	relPath := p.relativePath(path)

	var elements []CodeElement
	root := tree.RootNode()
	defaultActions := []ActionType{ActionView, ActionReplace, ActionInsertBefore, ActionInsertAfter, ActionDelete}

	p.walkNode(root, path, relPath, content, lines, defaultActions, &elements)

	logging.ParserDebug("CCodeParser: parsed %s - %d elements in %v",
		filepath.Base(path), len(elements), time.Since(start))
	return elements, nil
}

// walkNode walks top-level translation-unit declarations. C has no
// nested semantic scope worth modeling beyond file scope, so only
// top-level declarations are visited.
func (p *CCodeParser) walkNode(
	node *sitter.Node,
	absPath, relPath string,
	content []byte,
	lines []string,
	actions []ActionType,
	elements *[]CodeElement,
) {
	getText := func(n *sitter.Node) string {
		return string(content[n.StartByte():n.EndByte()])
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "function_definition":
			elem := p.parseFunctionDefinition(child, absPath, relPath, lines, actions, getText)
			if elem != nil {
				*elements = append(*elements, *elem)
			}
		case "struct_specifier":
			elem := p.parseStructSpecifier(child, absPath, relPath, lines, actions, getText)
			if elem != nil {
				*elements = append(*elements, *elem)
			}
		case "type_definition":
			elem := p.parseTypeDefinition(child, absPath, relPath, lines, actions, getText)
			if elem != nil {
				*elements = append(*elements, *elem)
			}
		case "declaration":
			elem := p.parseDeclaration(child, absPath, relPath, lines, actions, getText)
			if elem != nil {
				*elements = append(*elements, *elem)
			}
		case "preproc_def", "preproc_function_def":
			elem := p.parseMacro(child, absPath, relPath, lines, actions, getText)
			if elem != nil {
				*elements = append(*elements, *elem)
			}
		}
	}
}

// parseFunctionDefinition parses a C function definition. The declarator
// may be wrapped in a pointer_declarator for pointer-returning functions,
// so the identifier is located by descending through declarator layers.
func (p *CCodeParser) parseFunctionDefinition(
	node *sitter.Node,
	absPath, relPath string,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
) *CodeElement {
	declarator := node.ChildByFieldName("declarator")
	name := functionDeclaratorName(declarator, getText)
	if name == "" {
		return nil
	}

	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	ref := fmt.Sprintf("c:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPublic
	if strings.HasPrefix(strings.TrimSpace(signature), "static ") {
		visibility = VisibilityPrivate
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementFunction,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: visibility,
		Actions:    actions,
		Package:    "c",
		Name:       name,
	}
}

// functionDeclaratorName descends through pointer/function declarator
// wrappers to find the named identifier of a function declarator.
func functionDeclaratorName(node *sitter.Node, getText func(*sitter.Node) string) string {
	for node != nil {
		switch node.Type() {
		case "function_declarator":
			node = node.ChildByFieldName("declarator")
		case "pointer_declarator":
			node = node.ChildByFieldName("declarator")
		case "identifier":
			return getText(node)
		default:
			return ""
		}
	}
	return ""
}

// parseStructSpecifier parses a top-level `struct Name { ... };` definition.
func (p *CCodeParser) parseStructSpecifier(
	node *sitter.Node,
	absPath, relPath string,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	ref := fmt.Sprintf("c:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementStruct,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: VisibilityPublic,
		Actions:    actions,
		Package:    "c",
		Name:       name,
	}
}

// parseTypeDefinition parses a `typedef ... Name;` declaration.
func (p *CCodeParser) parseTypeDefinition(
	node *sitter.Node,
	absPath, relPath string,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
) *CodeElement {
	declarator := node.ChildByFieldName("declarator")
	if declarator == nil || declarator.Type() != "type_identifier" {
		return nil
	}

	name := getText(declarator)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	ref := fmt.Sprintf("c:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementType_,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: VisibilityPublic,
		Actions:    actions,
		Package:    "c",
		Name:       name,
	}
}

// parseDeclaration parses a top-level variable declaration, e.g.
// `static int counter = 0;` or `const char *version = "1.0";`.
func (p *CCodeParser) parseDeclaration(
	node *sitter.Node,
	absPath, relPath string,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
) *CodeElement {
	declarator := node.ChildByFieldName("declarator")
	name := declaratorName(declarator, getText)
	if name == "" {
		return nil
	}

	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	ref := fmt.Sprintf("c:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPublic
	if strings.HasPrefix(strings.TrimSpace(signature), "static ") {
		visibility = VisibilityPrivate
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementVar,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: visibility,
		Actions:    actions,
		Package:    "c",
		Name:       name,
	}
}

// declaratorName descends through pointer/array/init declarator wrappers
// to find the named identifier of a variable declarator.
func declaratorName(node *sitter.Node, getText func(*sitter.Node) string) string {
	for node != nil {
		switch node.Type() {
		case "init_declarator", "array_declarator", "pointer_declarator":
			node = node.ChildByFieldName("declarator")
		case "identifier":
			return getText(node)
		default:
			return ""
		}
	}
	return ""
}

// parseMacro parses a `#define NAME ...` or `#define NAME(...) ...` directive.
func (p *CCodeParser) parseMacro(
	node *sitter.Node,
	absPath, relPath string,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	ref := fmt.Sprintf("c:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementMacro,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: VisibilityPublic,
		Actions:    actions,
		Package:    "c",
		Name:       name,
	}
}

// relativePath returns the path relative to project root.
func (p *CCodeParser) relativePath(absPath string) string {
	rel, err := filepath.Rel(p.projectRoot, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}
