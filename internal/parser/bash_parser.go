package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// BashCodeParser implements CodeParser for shell script source files.
// It uses Tree-sitter for accurate AST parsing.
type BashCodeParser struct {
	projectRoot string
	parser      *sitter.Parser
}

// NewBashCodeParser creates a new shell script parser.
func NewBashCodeParser(projectRoot string) *BashCodeParser {
	parser := sitter.NewParser()
	parser.SetLanguage(bash.GetLanguage())
	return &BashCodeParser{
		projectRoot: projectRoot,
		parser:      parser,
	}
}

// Language returns "sh" for Ref URI generation.
func (p *BashCodeParser) Language() string {
	return "sh"
}

// SupportedExtensions returns [".sh", ".bash"].
func (p *BashCodeParser) SupportedExtensions() []string {
	return []string{".sh", ".bash"}
}

// Parse extracts CodeElements from shell script source.
func (p *BashCodeParser) Parse(path string, content []byte) ([]CodeElement, error) {
	start := time.Now()
	logging.ParserDebug("BashCodeParser: parsing file: %s", filepath.Base(path))

	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("BashCodeParser: parse failed: %s - %v", path, err)
		return nil, err
	}
	defer tree.Close()

	lines := strings.Split(string(content), "\n")
	relPath := p.relativePath(path)

	var elements []CodeElement
	root := tree.RootNode()
	defaultActions := []ActionType{ActionView, ActionReplace, ActionInsertBefore, ActionInsertAfter, ActionDelete}

	p.walkNode(root, path, relPath, content, lines, defaultActions, &elements)

	logging.ParserDebug("BashCodeParser: parsed %s - %d elements in %v",
		filepath.Base(path), len(elements), time.Since(start))
	return elements, nil
}

// walkNode walks the top-level script body extracting function
// definitions and top-level variable assignments. Shell has no nested
// scoping worth modeling beyond one level, so only top-level and
// function-body declarations are visited.
func (p *BashCodeParser) walkNode(
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
		case "variable_assignment":
			elem := p.parseVariableAssignment(child, absPath, relPath, lines, actions, getText, false)
			if elem != nil {
				*elements = append(*elements, *elem)
			}
		case "declaration_command":
			// `export NAME=value` wraps one or more variable_assignment
			// children; exported assignments are the closest shell analogue
			// to a public module-level variable.
			for j := 0; j < int(child.NamedChildCount()); j++ {
				grandchild := child.NamedChild(j)
				if grandchild.Type() == "variable_assignment" {
					elem := p.parseVariableAssignment(grandchild, absPath, relPath, lines, actions, getText, true)
					if elem != nil {
						*elements = append(*elements, *elem)
					}
				}
			}
		}
	}
}

// parseFunctionDefinition parses a shell function: `name() { ... }` or
// `function name { ... }`.
func (p *BashCodeParser) parseFunctionDefinition(
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
	ref := fmt.Sprintf("sh:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementFunction,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: VisibilityPublic, // shell functions have no access modifiers
		Actions:    actions,
		Package:    "shell",
		Name:       name,
	}
}

// parseVariableAssignment parses a `NAME=value` assignment. exported is
// true when this assignment was found nested inside a declaration_command
// (i.e. `export NAME=value`), the closest shell analogue to a public
// module-level variable; everything else stays script-local.
func (p *BashCodeParser) parseVariableAssignment(
	node *sitter.Node,
	absPath, relPath string,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	exported bool,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	ref := fmt.Sprintf("sh:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if exported {
		visibility = VisibilityPublic
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
		Package:    "shell",
		Name:       name,
	}
}

// relativePath returns the path relative to project root.
func (p *BashCodeParser) relativePath(absPath string) string {
	rel, err := filepath.Rel(p.projectRoot, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}
