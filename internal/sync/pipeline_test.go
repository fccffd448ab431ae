package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/model"
	"github.com/antigravity-dev/codegraph/internal/notes"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
)

const sampleGo = `package main

func Helper() int {
	return 1
}

func Main() {
	Helper()
}
`

func TestSyncWalksParsesAndPersists(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte(sampleGo), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	graph, err := graphstore.New(":memory:", 8)
	if err != nil {
		t.Fatalf("graphstore.New: %v", err)
	}
	t.Cleanup(func() { graph.Close() })

	search := searchstore.NewMock()
	pipeline := New(graph, search)

	project := model.Project{ID: "p1", RootPath: root}
	if err := graph.PutProject(project); err != nil {
		t.Fatalf("PutProject: %v", err)
	}

	result, err := pipeline.Sync(context.Background(), project)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.FilesChanged != 1 {
		t.Fatalf("expected 1 changed file, got %d", result.FilesChanged)
	}
	if result.FunctionsIndexed != 2 {
		t.Fatalf("expected 2 functions indexed, got %d", result.FunctionsIndexed)
	}
	if result.CallsResolved != 1 {
		t.Fatalf("expected 1 resolved call (Main->Helper), got %d", result.CallsResolved)
	}

	// A second sync with unchanged content should find nothing to re-persist.
	result2, err := pipeline.Sync(context.Background(), project)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if result2.FilesChanged != 0 {
		t.Fatalf("expected 0 changed files on unchanged re-sync, got %d", result2.FilesChanged)
	}
}

func TestSyncRunsNoteLifecycleHookOnChangedFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte(sampleGo), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	graph, err := graphstore.New(":memory:", 8)
	if err != nil {
		t.Fatalf("graphstore.New: %v", err)
	}
	t.Cleanup(func() { graph.Close() })

	search := searchstore.NewMock()
	pipeline := New(graph, search)
	manager := notes.New(graph, search)

	var verifiedPaths []string
	pipeline.OnFileChanged = func(ctx context.Context, projectID, path string, functions []model.Function) error {
		verifiedPaths = append(verifiedPaths, path)
		_, err := manager.VerifyFile(projectID, path, functions)
		return err
	}

	project := model.Project{ID: "p1", RootPath: root}
	if err := graph.PutProject(project); err != nil {
		t.Fatalf("PutProject: %v", err)
	}
	if _, err := pipeline.Sync(context.Background(), project); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(verifiedPaths) != 1 {
		t.Fatalf("expected note lifecycle hook to run once, got %d calls", len(verifiedPaths))
	}
}

func TestSyncReconcilesDeletedFiles(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "main.go")
	if err := os.WriteFile(filePath, []byte(sampleGo), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	graph, err := graphstore.New(":memory:", 8)
	if err != nil {
		t.Fatalf("graphstore.New: %v", err)
	}
	t.Cleanup(func() { graph.Close() })

	search := searchstore.NewMock()
	pipeline := New(graph, search)

	project := model.Project{ID: "p1", RootPath: root}
	if err := graph.PutProject(project); err != nil {
		t.Fatalf("PutProject: %v", err)
	}
	if _, err := pipeline.Sync(context.Background(), project); err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}

	if err := os.Remove(filePath); err != nil {
		t.Fatalf("remove fixture: %v", err)
	}

	result, err := pipeline.Sync(context.Background(), project)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if result.FilesRemoved != 1 {
		t.Fatalf("expected 1 file removed by reconciliation, got %d", result.FilesRemoved)
	}
}
