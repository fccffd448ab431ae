package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScanWorkspace_BlindSpotFix(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "blind_spot_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// path -> expected visibility
	files := map[string]bool{
		"main.go":                   true,
		".github/workflows/ci.yml":  true,
		".vscode/settings.json":     true,
		".git/config":               false,
		".secret/key.pem":           false,
	}

	for path := range files {
		fullPath := filepath.Join(tmpDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(fullPath, []byte("package main\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	scanner := NewScanner(tmpDir)
	result, err := scanner.ScanDirectory(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("ScanDirectory failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, f := range result.Files {
		rel, _ := filepath.Rel(tmpDir, f.Path)
		seen[filepath.ToSlash(rel)] = true
	}

	for path, expectVisible := range files {
		if seen[path] != expectVisible {
			t.Errorf("path %s: expected visible=%v, got visible=%v", path, expectVisible, seen[path])
		}
	}
}

func TestFileCache_HitAfterUpdate(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "file_cache_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "a.go")
	if err := os.WriteFile(path, []byte("package a\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewFileCache(tmpDir)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, hit := cache.Get(path, info); hit {
		t.Fatal("expected cache miss before Update")
	}

	cache.Update(path, info, "deadbeef")

	hash, hit := cache.Get(path, info)
	if !hit {
		t.Fatal("expected cache hit after Update")
	}
	if hash != "deadbeef" {
		t.Errorf("expected cached hash deadbeef, got %s", hash)
	}
}
