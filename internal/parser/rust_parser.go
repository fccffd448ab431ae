package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// RustCodeParser implements CodeParser for Rust source files.
// It uses Tree-sitter for accurate AST parsing.
type RustCodeParser struct {
	projectRoot string
	parser      *sitter.Parser
}

// NewRustCodeParser creates a new Rust parser.
func NewRustCodeParser(projectRoot string) *RustCodeParser {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	return &RustCodeParser{
		projectRoot: projectRoot,
		parser:      parser,
	}
}

// Language returns "rs" for Ref URI generation.
func (p *RustCodeParser) Language() string {
	return "rs"
}

// SupportedExtensions returns [".rs"].
func (p *RustCodeParser) SupportedExtensions() []string {
	return []string{".rs"}
}

// Parse extracts CodeElements from Rust source code.
func (p *RustCodeParser) Parse(path string, content []byte) ([]CodeElement, error) {
	start := time.Now()
	logging.ParserDebug("RustCodeParser: parsing file: %s", filepath.Base(path))

	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("RustCodeParser: parse failed: %s - %v", path, err)
		return nil, err
	}
	defer tree.Close()

	lines := strings.Split(string(content), "\n")
	relPath := p.relativePath(path)

	var elements []CodeElement
	root := tree.RootNode()

	// Default actions for all elements
	defaultActions := []ActionType{ActionView, ActionReplace, ActionInsertBefore, ActionInsertAfter, ActionDelete}

	// Track struct/enum refs for impl block linking
	typeRefs := make(map[string]string)

	// Walk tree to extract elements
	p.walkNode(root, path, relPath, "", content, lines, defaultActions, &elements, typeRefs)

	logging.ParserDebug("RustCodeParser: parsed %s - %d elements in %v",
		filepath.Base(path), len(elements), time.Since(start))
	return elements, nil
}

// walkNode recursively walks the AST and extracts CodeElements.
func (p *RustCodeParser) walkNode(
	node *sitter.Node,
	absPath, relPath, parentRef string,
	content []byte,
	lines []string,
	actions []ActionType,
	elements *[]CodeElement,
	typeRefs map[string]string,
) {
	getText := func(n *sitter.Node) string {
		return string(content[n.StartByte():n.EndByte()])
	}

	hasPubVisibility := func(n *sitter.Node) bool {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() == "visibility_modifier" {
				text := getText(child)
				return strings.HasPrefix(text, "pub")
			}
		}
		return false
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		nodeType := child.Type()

		switch nodeType {
		case "struct_item":
			elem := p.parseStructItem(child, absPath, relPath, content, lines, actions, getText, hasPubVisibility(child))
			if elem != nil {
				*elements = append(*elements, *elem)
				typeRefs[elem.Name] = elem.Ref
			}

		case "enum_item":
			elem := p.parseEnumItem(child, absPath, relPath, content, lines, actions, getText, hasPubVisibility(child))
			if elem != nil {
				*elements = append(*elements, *elem)
				typeRefs[elem.Name] = elem.Ref
			}

		case "trait_item":
			elem := p.parseTraitItem(child, absPath, relPath, content, lines, actions, getText, hasPubVisibility(child))
			if elem != nil {
				*elements = append(*elements, *elem)
				typeRefs[elem.Name] = elem.Ref
			}

		case "impl_item":
			// Parse impl block and its methods
			elems := p.parseImplItem(child, absPath, relPath, content, lines, actions, getText, typeRefs)
			*elements = append(*elements, elems...)

		case "function_item":
			elem := p.parseFuncItem(child, absPath, relPath, parentRef, content, lines, actions, getText, hasPubVisibility(child))
			if elem != nil {
				*elements = append(*elements, *elem)
			}

		case "mod_item":
			elem := p.parseModItem(child, absPath, relPath, content, lines, actions, getText, hasPubVisibility(child))
			if elem != nil {
				*elements = append(*elements, *elem)
				// Recurse into module body
				body := child.ChildByFieldName("body")
				if body != nil {
					p.walkNode(body, absPath, relPath, elem.Ref, content, lines, actions, elements, typeRefs)
				}
			}

		case "const_item":
			elem := p.parseConstItem(child, absPath, relPath, content, lines, actions, getText, hasPubVisibility(child))
			if elem != nil {
				*elements = append(*elements, *elem)
			}

		case "static_item":
			elem := p.parseStaticItem(child, absPath, relPath, content, lines, actions, getText, hasPubVisibility(child))
			if elem != nil {
				*elements = append(*elements, *elem)
			}

		case "type_item":
			elem := p.parseTypeItem(child, absPath, relPath, content, lines, actions, getText, hasPubVisibility(child))
			if elem != nil {
				*elements = append(*elements, *elem)
			}

		default:
			// Recurse into other nodes
			p.walkNode(child, absPath, relPath, parentRef, content, lines, actions, elements, typeRefs)
		}
	}
}

// parseStructItem parses a Rust struct definition.
func (p *RustCodeParser) parseStructItem(
	node *sitter.Node,
	absPath, relPath string,
	content []byte,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	isPub bool,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("rs:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if isPub {
		visibility = VisibilityPublic
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementStruct,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: visibility,
		Actions:    actions,
		Package:    "rust",
		Name:       name,
	}
}

// parseEnumItem parses a Rust enum definition.
func (p *RustCodeParser) parseEnumItem(
	node *sitter.Node,
	absPath, relPath string,
	content []byte,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	isPub bool,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("rs:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if isPub {
		visibility = VisibilityPublic
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementType_, // Use Type_ for enums
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: visibility,
		Actions:    actions,
		Package:    "rust",
		Name:       name,
	}
}

// parseTraitItem parses a Rust trait definition.
func (p *RustCodeParser) parseTraitItem(
	node *sitter.Node,
	absPath, relPath string,
	content []byte,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	isPub bool,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("rs:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if isPub {
		visibility = VisibilityPublic
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementInterface, // Traits are like interfaces
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: visibility,
		Actions:    actions,
		Package:    "rust",
		Name:       name,
	}
}

// parseImplItem parses a Rust impl block and its methods.
func (p *RustCodeParser) parseImplItem(
	node *sitter.Node,
	absPath, relPath string,
	content []byte,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	typeRefs map[string]string,
) []CodeElement {
	var elements []CodeElement

	// Get the type being implemented
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return elements
	}

	typeName := getText(typeNode)
	// Clean up generic parameters
	if idx := strings.Index(typeName, "<"); idx > 0 {
		typeName = typeName[:idx]
	}

	// Check if implementing a trait
	traitNode := node.ChildByFieldName("trait")
	traitName := ""
	if traitNode != nil {
		traitName = getText(traitNode)
	}

	// Find the parent ref
	parentRef := ""
	if ref, ok := typeRefs[typeName]; ok {
		parentRef = ref
	} else {
		parentRef = fmt.Sprintf("rs:%s:%s", relPath, typeName)
	}

	// Extract methods from impl body
	body := node.ChildByFieldName("body")
	if body == nil {
		return elements
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "function_item" {
			elem := p.parseFuncItem(child, absPath, relPath, parentRef, content, lines, actions, getText, p.hasPubVisibility(child, content))
			if elem != nil {
				// Update ref to include type name
				elem.Ref = fmt.Sprintf("rs:%s:%s.%s", relPath, typeName, elem.Name)
				elem.Type = ElementMethod
				elem.Parent = parentRef

				// The implemented trait's name is not recorded on the element.
				if traitName != "" {
					// no trait data is stored
				}

				elements = append(elements, *elem)
			}
		}
	}

	return elements
}

// hasPubVisibility checks if a node has pub visibility.
func (p *RustCodeParser) hasPubVisibility(node *sitter.Node, content []byte) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "visibility_modifier" {
			text := string(content[child.StartByte():child.EndByte()])
			return strings.HasPrefix(text, "pub")
		}
	}
	return false
}

// parseFuncItem parses a Rust function definition.
func (p *RustCodeParser) parseFuncItem(
	node *sitter.Node,
	absPath, relPath, parentRef string,
	content []byte,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	isPub bool,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	var ref string
	elemType := ElementFunction
	if parentRef != "" {
		parts := strings.Split(parentRef, ":")
		parentName := parts[len(parts)-1]
		ref = fmt.Sprintf("rs:%s:%s.%s", relPath, parentName, name)
		elemType = ElementMethod
	} else {
		ref = fmt.Sprintf("rs:%s:%s", relPath, name)
	}

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if isPub {
		visibility = VisibilityPublic
	}

	return &CodeElement{
		Ref:        ref,
		Type:       elemType,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Parent:     parentRef,
		Visibility: visibility,
		Actions:    actions,
		Package:    "rust",
		Name:       name,
	}
}

// parseModItem parses a Rust module definition.
func (p *RustCodeParser) parseModItem(
	node *sitter.Node,
	absPath, relPath string,
	content []byte,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	isPub bool,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("rs:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if isPub {
		visibility = VisibilityPublic
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementType_, // Module as type
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: visibility,
		Actions:    actions,
		Package:    "rust",
		Name:       name,
	}
}

// parseConstItem parses a Rust const definition.
func (p *RustCodeParser) parseConstItem(
	node *sitter.Node,
	absPath, relPath string,
	content []byte,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	isPub bool,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("rs:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if isPub {
		visibility = VisibilityPublic
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementConst,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: visibility,
		Actions:    actions,
		Package:    "rust",
		Name:       name,
	}
}

// parseStaticItem parses a Rust static definition.
func (p *RustCodeParser) parseStaticItem(
	node *sitter.Node,
	absPath, relPath string,
	content []byte,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	isPub bool,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("rs:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if isPub {
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
		Package:    "rust",
		Name:       name,
	}
}

// parseTypeItem parses a Rust type alias definition.
func (p *RustCodeParser) parseTypeItem(
	node *sitter.Node,
	absPath, relPath string,
	content []byte,
	lines []string,
	actions []ActionType,
	getText func(*sitter.Node) string,
	isPub bool,
) *CodeElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := getText(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("rs:%s:%s", relPath, name)

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if isPub {
		visibility = VisibilityPublic
	}

	return &CodeElement{
		Ref:        ref,
		Type:       ElementType_,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: visibility,
		Actions:    actions,
		Package:    "rust",
		Name:       name,
	}
}

// relativePath returns the path relative to project root.
func (p *RustCodeParser) relativePath(absPath string) string {
	rel, err := filepath.Rel(p.projectRoot, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}
