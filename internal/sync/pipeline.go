// Package sync drives the per-project walk/parse/persist/index/reconcile
// pipeline, grounded on the teacher's world.fs.go walker and
// world.cartographer.go structural extraction, generalized from "world
// scanning for an agent" to "project sync for the graph."
package sync

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/model"
	"github.com/antigravity-dev/codegraph/internal/parser"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
)

// Pipeline runs project syncs against a Graph Store and Search Store.
// It is single-writer per project (enforced by a per-project lock); syncs
// for different projects run concurrently.
type Pipeline struct {
	graph  *graphstore.Store
	search searchstore.Index

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// OnFileChanged, if set, runs the note lifecycle (C7) for each changed
	// file during phase 7, given the file's freshly parsed functions so the
	// hook can re-verify anchors without a second parse. Left nil, phase 7
	// is skipped (e.g. in tests that exercise graph/search persistence only).
	OnFileChanged func(ctx context.Context, projectID, path string, functions []model.Function) error
}

// New builds a Pipeline over the given stores.
func New(graph *graphstore.Store, search searchstore.Index) *Pipeline {
	return &Pipeline{graph: graph, search: search, locks: make(map[string]*sync.Mutex)}
}

func (p *Pipeline) projectLock(projectID string) *sync.Mutex {
	p.locksMu.Lock()
	defer p.locksMu.Unlock()
	l, ok := p.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[projectID] = l
	}
	return l
}

// Result summarizes one Sync run.
type Result struct {
	ProjectID        string
	FilesWalked      int
	FilesChanged     int
	FilesRemoved     int
	FunctionsIndexed int
	CallsResolved    int
	CallsUnresolved  int
	Duration         time.Duration
}

// Sync runs the eight-phase pipeline for one project: walk, hash-check,
// parse, persist, index, reconcile, note lifecycle, touch last_synced.
func (p *Pipeline) Sync(ctx context.Context, project model.Project) (*Result, error) {
	lock := p.projectLock(project.ID)
	lock.Lock()
	defer lock.Unlock()

	timer := logging.StartTimer(logging.CategorySync, "Sync")
	defer timer.Stop()
	start := time.Now()
	logging.Sync("starting sync for project %s (%s)", project.ID, project.RootPath)

	// Phase 1 (walk) + phase 3 (parse): the scanner walks root_path and
	// parses every recognized extension in one pass.
	scanner := parser.NewScanner(project.RootPath)
	scanResult, err := scanner.ScanDirectory(ctx, project.RootPath)
	if err != nil && scanResult == nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	// Phase 2: hash check against what C4 already has for this project.
	existingHashes, err := p.graph.GetFileHashes(project.ID)
	if err != nil {
		return nil, fmt.Errorf("load existing file hashes: %w", err)
	}

	result := &Result{ProjectID: project.ID, FilesWalked: len(scanResult.Files)}
	present := make(map[string]bool, len(scanResult.Files))
	var changedFiles []parser.ScannedFile

	for _, sf := range scanResult.Files {
		present[sf.Path] = true
		if sf.IsTest || sf.ParseErr != nil {
			continue
		}
		if existingHashes[sf.Path] == sf.Hash {
			continue
		}
		changedFiles = append(changedFiles, sf)
	}
	result.FilesChanged = len(changedFiles)

	// Phase 4: persist through C4 using batched upserts, scoped per file
	// so a single file's parse failure doesn't drop the whole batch.
	var allFunctions []model.Function
	var codeDocs []searchstore.Document
	functionsByPath := make(map[string][]model.Function, len(changedFiles))

	for _, sf := range changedFiles {
		content, readErr := os.ReadFile(sf.Path)
		if readErr != nil {
			logging.SyncWarn("sync: failed to read %s for import extraction: %v", sf.Path, readErr)
			content = nil
		}
		pf := parser.BuildParsedFile(sf.Path, sf.Language, content, sf.Elements)

		if err := p.graph.UpsertFile(model.File{
			Path: sf.Path, ProjectID: project.ID, Language: sf.Language,
			ContentHash: sf.Hash, LastParsed: sf.ModTime,
		}); err != nil {
			logging.SyncWarn("sync: upsert file %s failed: %v", sf.Path, err)
			continue
		}

		if err := p.graph.UpsertFunctions(project.ID, pf.Functions); err != nil {
			logging.SyncWarn("sync: upsert functions for %s failed: %v", sf.Path, err)
		}
		for _, sym := range pf.Symbols {
			if err := p.graph.UpsertSymbol(project.ID, sym); err != nil {
				logging.SyncWarn("sync: upsert symbol %s failed: %v", sym.Name, err)
			}
		}
		if err := p.graph.PutImports(project.ID, sf.Path, pf.Imports); err != nil {
			logging.SyncWarn("sync: put imports for %s failed: %v", sf.Path, err)
		}
		if err := p.graph.PutPendingCalls(project.ID, pf.Calls); err != nil {
			logging.SyncWarn("sync: put pending calls for %s failed: %v", sf.Path, err)
		}

		allFunctions = append(allFunctions, pf.Functions...)
		functionsByPath[sf.Path] = pf.Functions

		var symbolsForDoc []model.Symbol
		codeDocs = append(codeDocs, searchstore.BuildCodeDocument(
			model.File{Path: sf.Path, ProjectID: project.ID, Language: sf.Language},
			pf.Functions, symbolsForDoc, pf.Imports,
		))
	}
	result.FunctionsIndexed = len(allFunctions)

	// Call resolution is scoped to the project, run once after every
	// changed file's calls have been staged.
	resolved, unresolved, err := p.graph.ResolveCalls(project.ID)
	if err != nil {
		logging.SyncWarn("sync: resolve calls failed for project %s: %v", project.ID, err)
	}
	result.CallsResolved, result.CallsUnresolved = resolved, unresolved

	// Phase 5: index derived CodeDocuments through C5.
	if len(codeDocs) > 0 {
		if err := p.search.IndexBatch(codeDocs); err != nil {
			logging.SyncWarn("sync: index batch failed for project %s: %v", project.ID, err)
		}
	}

	// Phase 6: reconcile stale files from both stores.
	removed, err := p.graph.ReconcileFiles(project.ID, present)
	if err != nil {
		logging.SyncWarn("sync: reconcile files failed for project %s: %v", project.ID, err)
	}
	result.FilesRemoved = removed

	validProjects := map[string]bool{project.ID: true}
	if _, err := p.search.CleanupOrphans(validProjects); err != nil {
		logging.SyncWarn("sync: search cleanup orphans failed: %v", err)
	}

	// Phase 7: note lifecycle per changed file.
	if p.OnFileChanged != nil {
		for _, sf := range changedFiles {
			if err := p.OnFileChanged(ctx, project.ID, sf.Path, functionsByPath[sf.Path]); err != nil {
				logging.SyncWarn("sync: note lifecycle failed for %s: %v", sf.Path, err)
			}
		}
	}

	// Phase 8: update project.last_synced.
	now := time.Now().UTC()
	if err := p.graph.TouchProjectSynced(project.ID, now); err != nil {
		logging.SyncWarn("sync: touch project synced failed: %v", err)
	}

	result.Duration = time.Since(start)
	logging.Sync("sync complete for project %s: walked=%d changed=%d removed=%d calls(resolved=%d,unresolved=%d) in %v",
		project.ID, result.FilesWalked, result.FilesChanged, result.FilesRemoved, result.CallsResolved, result.CallsUnresolved, result.Duration)

	return result, nil
}
