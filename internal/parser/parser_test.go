package parser

import (
	"os"
	"path/filepath"
	"testing"
)

// TestGoCodeParser_Parse tests Go source file parsing.
func TestGoCodeParser_Parse(t *testing.T) {
	tmpDir := t.TempDir()
	goFile := filepath.Join(tmpDir, "test.go")
	goContent := `package test

type User struct {
	ID   int    ` + "`json:\"user_id\"`" + `
	Name string ` + "`json:\"name\"`" + `
}

func NewUser(id int, name string) *User {
	return &User{ID: id, Name: name}
}

func (u *User) GetName() string {
	return u.Name
}
`
	if err := os.WriteFile(goFile, []byte(goContent), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	p := NewGoCodeParser(tmpDir)

	exts := p.SupportedExtensions()
	if len(exts) != 1 || exts[0] != ".go" {
		t.Errorf("Expected [.go], got %v", exts)
	}

	if p.Language() != "go" {
		t.Errorf("Expected 'go', got %s", p.Language())
	}

	content, _ := os.ReadFile(goFile)
	elements, err := p.Parse(goFile, content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(elements) < 3 {
		t.Errorf("Expected at least 3 elements, got %d", len(elements))
	}

	var foundStruct, foundFunc, foundMethod bool
	for _, elem := range elements {
		if elem.Type == ElementStruct && elem.Name == "User" {
			foundStruct = true
		}
		if elem.Type == ElementFunction && elem.Name == "NewUser" {
			foundFunc = true
		}
		if elem.Type == ElementMethod && elem.Name == "GetName" {
			foundMethod = true
			if elem.Parent == "" {
				t.Error("Method should have parent ref")
			}
		}
	}

	if !foundStruct {
		t.Error("Did not find User struct")
	}
	if !foundFunc {
		t.Error("Did not find NewUser function")
	}
	if !foundMethod {
		t.Error("Did not find GetName method")
	}
}

// TestParserFactory_Registration tests parser registration.
func TestParserFactory_Registration(t *testing.T) {
	factory := NewParserFactory("/project")

	goParser := NewGoCodeParser("/project")
	factory.Register(goParser)

	if !factory.HasParser("test.go") {
		t.Error("Factory should have parser for .go files")
	}
	if factory.HasParser("test.py") {
		t.Error("Factory should not have parser for .py files (yet)")
	}

	got := factory.GetParser("test.go")
	if got == nil {
		t.Error("GetParser returned nil for .go file")
	}
	if got.Language() != "go" {
		t.Error("GetParser returned wrong parser")
	}
}

// TestParserFactory_Parse tests factory-based parsing.
func TestParserFactory_Parse(t *testing.T) {
	tmpDir := t.TempDir()
	goFile := filepath.Join(tmpDir, "main.go")
	goContent := `package main

func main() {
	println("Hello")
}
`
	if err := os.WriteFile(goFile, []byte(goContent), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	factory := DefaultParserFactory(tmpDir)
	content, _ := os.ReadFile(goFile)

	elements, err := factory.Parse(goFile, content)
	if err != nil {
		t.Fatalf("Factory parse failed: %v", err)
	}

	if len(elements) != 1 {
		t.Errorf("Expected 1 element (main func), got %d", len(elements))
	}
}

// TestParserFactory_ParseWithResult exercises the combined result path
// including code-pattern detection.
func TestParserFactory_ParseWithResult(t *testing.T) {
	tmpDir := t.TempDir()
	goFile := filepath.Join(tmpDir, "gen.go")
	goContent := "// Code generated by protoc-gen-go. DO NOT EDIT.\npackage gen\n\nfunc Noop() {}\n"
	if err := os.WriteFile(goFile, []byte(goContent), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	factory := DefaultParserFactory(tmpDir)
	content, _ := os.ReadFile(goFile)

	result, err := factory.ParseWithResult(goFile, content)
	if err != nil {
		t.Fatalf("ParseWithResult failed: %v", err)
	}
	if !result.Patterns.IsGenerated {
		t.Error("expected generated-code pattern to be detected")
	}
}

// TestCodeElementParser_BackwardCompatibility tests legacy mode.
func TestCodeElementParser_BackwardCompatibility(t *testing.T) {
	tmpDir := t.TempDir()
	goFile := filepath.Join(tmpDir, "test.go")
	goContent := `package test

type Config struct{}

func Init() {}
`
	if err := os.WriteFile(goFile, []byte(goContent), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	p := NewCodeElementParser()
	elements, err := p.ParseFile(goFile)
	if err != nil {
		t.Fatalf("Legacy parse failed: %v", err)
	}

	if len(elements) != 2 {
		t.Errorf("Expected 2 elements, got %d", len(elements))
	}

	if p.Factory() != nil {
		t.Error("Legacy parser should have nil factory")
	}
}

// TestCodeElementParser_WithFactory tests polyglot mode.
func TestCodeElementParser_WithFactory(t *testing.T) {
	tmpDir := t.TempDir()
	goFile := filepath.Join(tmpDir, "app.go")
	goContent := `package app

type App struct{}

func Run() {}
`
	if err := os.WriteFile(goFile, []byte(goContent), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	p := NewCodeElementParserWithRoot(tmpDir)
	elements, err := p.ParseFile(goFile)
	if err != nil {
		t.Fatalf("Factory-based parse failed: %v", err)
	}

	if len(elements) != 2 {
		t.Errorf("Expected 2 elements, got %d", len(elements))
	}

	if p.Factory() == nil {
		t.Error("Factory-based parser should have factory")
	}
}
