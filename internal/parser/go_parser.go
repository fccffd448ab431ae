package parser

import (
	"fmt"
	goast "go/ast"
	goparser "go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"time"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// GoCodeParser implements CodeParser for Go source files.
// It uses the standard go/ast package for precise parsing.
type GoCodeParser struct {
	projectRoot string
}

// NewGoCodeParser creates a new Go parser with the given project root.
func NewGoCodeParser(projectRoot string) *GoCodeParser {
	return &GoCodeParser{
		projectRoot: projectRoot,
	}
}

// Language returns "go" for Ref URI generation.
func (p *GoCodeParser) Language() string {
	return "go"
}

// SupportedExtensions returns [".go"].
func (p *GoCodeParser) SupportedExtensions() []string {
	return []string{".go"}
}

// Parse extracts CodeElements from Go source code.
func (p *GoCodeParser) Parse(path string, content []byte) ([]CodeElement, error) {
	start := time.Now()
	logging.ParserDebug("GoCodeParser: parsing file: %s", filepath.Base(path))

	fset := token.NewFileSet()
	node, err := goparser.ParseFile(fset, path, content, goparser.ParseComments)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("GoCodeParser: parse failed: %s - %v", path, err)
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	pkgName := node.Name.Name
	logging.ParserDebug("GoCodeParser: package=%s, %d lines for %s", pkgName, len(lines), filepath.Base(path))

	// Default actions for all elements
	defaultActions := []ActionType{ActionView, ActionReplace, ActionInsertBefore, ActionInsertAfter, ActionDelete}

	// Track struct receivers for method parent linking
	structRefs := make(map[string]string) // receiver name -> struct ref

	// First pass: collect all struct names
	var structCount int
	for _, decl := range node.Decls {
		if genDecl, ok := decl.(*goast.GenDecl); ok && genDecl.Tok == token.TYPE {
			for _, spec := range genDecl.Specs {
				if typeSpec, ok := spec.(*goast.TypeSpec); ok {
					if _, isStruct := typeSpec.Type.(*goast.StructType); isStruct {
						name := typeSpec.Name.Name
						ref := p.buildRef("struct", pkgName, name, "")
						structRefs[name] = ref
						structCount++
					}
				}
			}
		}
	}
	logging.ParserDebug("GoCodeParser: found %d struct types", structCount)

	// Process all declarations
	var elements []CodeElement
	var funcCount, methodCount, typeCount int
	for _, decl := range node.Decls {
		switch d := decl.(type) {
		case *goast.FuncDecl:
			elem := p.parseFuncDecl(fset, d, path, pkgName, lines, structRefs, defaultActions)
			elements = append(elements, elem)
			if elem.Type == ElementMethod {
				methodCount++
			} else {
				funcCount++
			}

		case *goast.GenDecl:
			elems := p.parseGenDecl(fset, d, path, pkgName, lines, defaultActions, structRefs)
			elements = append(elements, elems...)
			typeCount += len(elems)
		}
	}

	logging.ParserDebug("GoCodeParser: parsed %s - %d elements (funcs=%d, methods=%d, types=%d) in %v",
		filepath.Base(path), len(elements), funcCount, methodCount, typeCount, time.Since(start))
	return elements, nil
}

// buildRef creates a package-qualified Ref (prefix:pkg.Name, or
// prefix:pkg.Parent.Name for methods); the file path is not part of it.
func (p *GoCodeParser) buildRef(prefix, pkgName, name, parent string) string {
	if parent != "" {
		return fmt.Sprintf("%s:%s.%s.%s", prefix, pkgName, parent, name)
	}
	return fmt.Sprintf("%s:%s.%s", prefix, pkgName, name)
}

// parseFuncDecl parses a function or method declaration.
func (p *GoCodeParser) parseFuncDecl(
	fset *token.FileSet,
	decl *goast.FuncDecl,
	path, pkgName string,
	lines []string,
	structRefs map[string]string,
	actions []ActionType,
) CodeElement {
	name := decl.Name.Name
	startLine := fset.Position(decl.Pos()).Line
	endLine := fset.Position(decl.End()).Line

	// Determine visibility
	visibility := VisibilityPrivate
	if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
		visibility = VisibilityPublic
	}

	// Determine if method and extract receiver info
	elemType := ElementFunction
	var parentRef string
	var recvType string
	var isPointer bool
	ref := p.buildRef("fn", pkgName, name, "")

	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		elemType = ElementMethod
		recv := decl.Recv.List[0]
		recvType, isPointer = extractReceiverTypeInfo(recv.Type)
		if recvType != "" {
			ref = p.buildRef("fn", pkgName, name, recvType)
			if sref, ok := structRefs[recvType]; ok {
				parentRef = sref
			}
		}
	}

	// Extract signature (first line of function)
	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	// Extract body
	body := extractBody(lines, startLine, endLine)

	elem := CodeElement{
		Ref:        ref,
		Type:       elemType,
		File:       path,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       body,
		Parent:     parentRef,
		Visibility: visibility,
		Actions:    actions,
		Package:    pkgName,
		Name:       name,
	}

	// Receiver type and pointer-ness are computed but not recorded on the element.
	_ = recvType
	_ = isPointer

	return elem
}

// parseGenDecl parses type, const, and var declarations.
func (p *GoCodeParser) parseGenDecl(
	fset *token.FileSet,
	decl *goast.GenDecl,
	path, pkgName string,
	lines []string,
	actions []ActionType,
	structRefs map[string]string,
) []CodeElement {
	var elements []CodeElement

	switch decl.Tok {
	case token.TYPE:
		for _, spec := range decl.Specs {
			if typeSpec, ok := spec.(*goast.TypeSpec); ok {
				elem := p.parseTypeSpec(fset, decl, typeSpec, path, pkgName, lines, actions)
				elements = append(elements, elem)
			}
		}

	case token.CONST:
		// Group constants together
		startLine := fset.Position(decl.Pos()).Line
		endLine := fset.Position(decl.End()).Line

		for _, spec := range decl.Specs {
			if valueSpec, ok := spec.(*goast.ValueSpec); ok {
				for _, name := range valueSpec.Names {
					elemName := name.Name
					visibility := VisibilityPrivate
					if len(elemName) > 0 && elemName[0] >= 'A' && elemName[0] <= 'Z' {
						visibility = VisibilityPublic
					}

					specStart := fset.Position(spec.Pos()).Line
					specEnd := fset.Position(spec.End()).Line
					signature := ""
					if specStart > 0 && specStart <= len(lines) {
						signature = strings.TrimSpace(lines[specStart-1])
					}

					elements = append(elements, CodeElement{
						Ref:        p.buildRef("const", pkgName, elemName, ""),
						Type:       ElementConst,
						File:       path,
						StartLine:  specStart,
						EndLine:    specEnd,
						Signature:  signature,
						Body:       extractBody(lines, startLine, endLine),
						Visibility: visibility,
						Actions:    actions,
						Package:    pkgName,
						Name:       elemName,
					})
				}
			}
		}

	case token.VAR:
		startLine := fset.Position(decl.Pos()).Line
		endLine := fset.Position(decl.End()).Line

		for _, spec := range decl.Specs {
			if valueSpec, ok := spec.(*goast.ValueSpec); ok {
				for _, name := range valueSpec.Names {
					elemName := name.Name
					visibility := VisibilityPrivate
					if len(elemName) > 0 && elemName[0] >= 'A' && elemName[0] <= 'Z' {
						visibility = VisibilityPublic
					}

					specStart := fset.Position(spec.Pos()).Line
					specEnd := fset.Position(spec.End()).Line
					signature := ""
					if specStart > 0 && specStart <= len(lines) {
						signature = strings.TrimSpace(lines[specStart-1])
					}

					elements = append(elements, CodeElement{
						Ref:        p.buildRef("var", pkgName, elemName, ""),
						Type:       ElementVar,
						File:       path,
						StartLine:  specStart,
						EndLine:    specEnd,
						Signature:  signature,
						Body:       extractBody(lines, startLine, endLine),
						Visibility: visibility,
						Actions:    actions,
						Package:    pkgName,
						Name:       elemName,
					})
				}
			}
		}
	}

	return elements
}

// parseTypeSpec parses a type specification (struct, interface, alias).
func (p *GoCodeParser) parseTypeSpec(
	fset *token.FileSet,
	decl *goast.GenDecl,
	spec *goast.TypeSpec,
	path, pkgName string,
	lines []string,
	actions []ActionType,
) CodeElement {
	name := spec.Name.Name
	startLine := fset.Position(decl.Pos()).Line
	endLine := fset.Position(decl.End()).Line

	// For single type declarations without parens, use spec positions
	if decl.Lparen == 0 {
		startLine = fset.Position(spec.Pos()).Line
		endLine = fset.Position(spec.End()).Line
	}

	visibility := VisibilityPrivate
	if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
		visibility = VisibilityPublic
	}

	elemType := ElementType_
	refPrefix := "type"

	switch spec.Type.(type) {
	case *goast.StructType:
		elemType = ElementStruct
		refPrefix = "struct"
	case *goast.InterfaceType:
		elemType = ElementInterface
		refPrefix = "interface"
	}

	ref := p.buildRef(refPrefix, pkgName, name, "")

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	return CodeElement{
		Ref:        ref,
		Type:       elemType,
		File:       path,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Visibility: visibility,
		Actions:    actions,
		Package:    pkgName,
		Name:       name,
	}
}

// extractReceiverTypeInfo extracts the type name and pointer-ness from a method receiver.
func extractReceiverTypeInfo(expr goast.Expr) (typeName string, isPointer bool) {
	switch t := expr.(type) {
	case *goast.Ident:
		return t.Name, false
	case *goast.StarExpr:
		name, _ := extractReceiverTypeInfo(t.X)
		return name, true
	}
	return "", false
}
