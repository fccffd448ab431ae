package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewScanner(t *testing.T) {
	scanner := NewScanner(".")
	if scanner == nil {
		t.Fatal("NewScanner() returned nil")
	}
}

func TestScanWorkspace(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "scan_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	testFiles := []struct {
		name    string
		content string
	}{
		{"main.go", "package main\nfunc main() {}\n"},
		{"main_test.go", "package main\nfunc TestMain(t *testing.T) {}\n"},
		{"utils.py", "def helper(): pass\n"},
		{"test_utils.py", "def test_helper(): pass\n"},
	}

	for _, tf := range testFiles {
		path := filepath.Join(tmpDir, tf.name)
		if err := os.WriteFile(path, []byte(tf.content), 0644); err != nil {
			t.Fatalf("Failed to create test file %s: %v", tf.name, err)
		}
	}

	scanner := NewScanner(tmpDir)
	result, err := scanner.ScanWorkspace(tmpDir)
	if err != nil {
		t.Fatalf("ScanWorkspace() error = %v", err)
	}

	if result.FileCount != 4 {
		t.Errorf("expected 4 files, got %d", result.FileCount)
	}
	if result.TestFileCount != 2 {
		t.Errorf("expected 2 test files, got %d", result.TestFileCount)
	}
	if result.Languages["go"] != 2 {
		t.Errorf("expected 2 go files, got %d", result.Languages["go"])
	}
	if result.Languages["python"] != 2 {
		t.Errorf("expected 2 python files, got %d", result.Languages["python"])
	}
}

func TestScanWorkspace_ParsesGoElements(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "scan_parse_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	src := "package main\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "hello.go"), []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	scanner := NewScanner(tmpDir)
	result, err := scanner.ScanWorkspace(tmpDir)
	if err != nil {
		t.Fatalf("ScanWorkspace() error = %v", err)
	}

	if len(result.Files) != 1 {
		t.Fatalf("expected 1 scanned file, got %d", len(result.Files))
	}
	elems := result.Files[0].Elements
	found := false
	for _, e := range elems {
		if e.Name == "Hello" && e.Type == ElementFunction {
			found = true
		}
	}
	if !found {
		t.Errorf("expected to find function Hello in parsed elements: %+v", elems)
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"main.go":     "go",
		"script.py":   "python",
		"app.ts":      "typescript",
		"lib.rs":      "rust",
		"Dockerfile":  "dockerfile",
		"unknown.xyz": "unknown",
	}
	for path, want := range cases {
		got := detectLanguage(filepath.Ext(path), path)
		if got != want {
			t.Errorf("detectLanguage(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestIsTestFile(t *testing.T) {
	cases := map[string]bool{
		"foo_test.go":   true,
		"foo.go":        false,
		"test_bar.py":   true,
		"bar.test.ts":   true,
		"bar.ts":        false,
	}
	for path, want := range cases {
		got := isTestFile(path)
		if got != want {
			t.Errorf("isTestFile(%q) = %v, want %v", path, got, want)
		}
	}
}
