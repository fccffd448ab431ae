package parser

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// IncrementalOptions controls incremental scan behavior.
type IncrementalOptions struct {
	// SkipWhenUnchanged returns Unchanged=true when no deltas were detected.
	SkipWhenUnchanged bool
}

// IncrementalResult describes the delta produced by an incremental scan.
// If Full is true, Files contains every file in the workspace; otherwise it
// contains only the changed and newly-added files, and DeletedFiles lists
// paths that disappeared since the previous scan.
type IncrementalResult struct {
	Full           bool
	Unchanged      bool
	Files          []ScannedFile
	ChangedFiles   []string
	NewFiles       []string
	DeletedFiles   []string
	FileCount      int
	DirectoryCount int
	Duration       time.Duration
	ProjectLanguage string
	EntryPoints    []string
}

// ScanWorkspaceIncremental performs a fast, cache-aware scan, re-parsing only
// files whose size or modification time changed since the last run. The
// Sync Pipeline uses this to avoid re-walking and re-embedding an unchanged
// workspace.
func (s *Scanner) ScanWorkspaceIncremental(ctx context.Context, root string, opts IncrementalOptions) (*IncrementalResult, error) {
	start := time.Now()
	logging.Parser("Starting incremental workspace scan: %s", root)

	cache := NewFileCache(root)
	defer func() {
		if err := cache.Save(); err != nil {
			logging.Get(logging.CategoryParser).Error("Failed to save file cache: %v", err)
		}
	}()

	cache.mu.RLock()
	prevEntries := make(map[string]CacheEntry, len(cache.Entries))
	for k, v := range cache.Entries {
		prevEntries[k] = v
	}
	cache.mu.RUnlock()

	patterns := s.config.IgnorePatterns

	currentFiles := make(map[string]os.FileInfo)
	var fileCount, dirCount int

	if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		name := d.Name()

		if d.IsDir() {
			if strings.HasPrefix(name, ".") && name != "." && path != root {
				if name != ".github" && name != ".vscode" && name != ".circleci" && name != ".config" {
					return filepath.SkipDir
				}
			}
			if path != root && isIgnoredRel(rel, name, patterns) {
				return filepath.SkipDir
			}
			dirCount++
			return nil
		}

		if isIgnoredRel(rel, name, patterns) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		currentFiles[path] = info
		fileCount++
		return nil
	}); err != nil {
		logging.ParserWarn("ScanWorkspaceIncremental: walkdir failed for root %s: %v", root, err)
	}

	// First run: no prior cache entries, fall back to a full scan.
	if len(prevEntries) == 0 {
		full, err := s.ScanDirectory(ctx, root)
		if err != nil {
			return nil, err
		}
		res := &IncrementalResult{
			Full:           true,
			Files:          full.Files,
			FileCount:      full.FileCount,
			DirectoryCount: full.DirectoryCount,
			Duration:       time.Since(start),
		}
		res.ProjectLanguage = dominantLanguage(full.Languages)
		res.EntryPoints = detectEntryPoints(full.Files)
		return res, nil
	}

	changed := make([]string, 0)
	newFiles := make([]string, 0)
	for path, info := range currentFiles {
		if prev, ok := prevEntries[path]; ok {
			if prev.ModTime == info.ModTime().Unix() && prev.Size == info.Size() {
				continue
			}
			changed = append(changed, path)
		} else {
			newFiles = append(newFiles, path)
		}
	}

	deleted := make([]string, 0)
	for path := range prevEntries {
		if _, ok := currentFiles[path]; !ok {
			deleted = append(deleted, path)
		}
	}

	if len(changed) == 0 && len(newFiles) == 0 && len(deleted) == 0 && opts.SkipWhenUnchanged {
		return &IncrementalResult{
			Unchanged:      true,
			FileCount:      fileCount,
			DirectoryCount: dirCount,
			Duration:       time.Since(start),
		}, nil
	}

	pathsToParse := append([]string{}, changed...)
	pathsToParse = append(pathsToParse, newFiles...)

	maxConc := s.config.MaxConcurrency
	if maxConc <= 0 {
		maxConc = DefaultScannerConfig().MaxConcurrency
	}
	sem := make(chan struct{}, maxConc)

	var wg sync.WaitGroup
	var mu sync.Mutex
	files := make([]ScannedFile, 0, len(pathsToParse))

	for _, p := range pathsToParse {
		info := currentFiles[p]
		wg.Add(1)
		go func(path string, info os.FileInfo) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			hash, err := calculateHash(path)
			if err != nil {
				return
			}

			lang := detectLanguage(filepath.Ext(path), path)
			isTest := isTestFile(path)

			sf := ScannedFile{
				Path:     path,
				Hash:     hash,
				Language: lang,
				ModTime:  info.ModTime(),
				IsTest:   isTest,
			}

			if !isTest && (s.config.MaxASTFileBytes <= 0 || info.Size() <= s.config.MaxASTFileBytes) && s.factory.HasParser(path) {
				content, readErr := os.ReadFile(path)
				if readErr == nil {
					if elems, parseErr := s.factory.Parse(path, content); parseErr == nil {
						sf.Elements = elems
					} else {
						sf.ParseErr = parseErr
					}
				}
			}

			cache.Update(path, info, hash)

			mu.Lock()
			files = append(files, sf)
			mu.Unlock()
		}(p, info)
	}

	wg.Wait()

	for _, p := range deleted {
		cache.mu.Lock()
		delete(cache.Entries, p)
		cache.Dirty = true
		cache.mu.Unlock()
	}

	return &IncrementalResult{
		Files:          files,
		ChangedFiles:   changed,
		NewFiles:       newFiles,
		DeletedFiles:   deleted,
		FileCount:      fileCount,
		DirectoryCount: dirCount,
		Duration:       time.Since(start),
	}, nil
}

// dominantLanguage returns the language with the highest file count.
func dominantLanguage(counts map[string]int) string {
	best := ""
	max := 0
	for lang, count := range counts {
		if lang == "unknown" || lang == "text" {
			continue
		}
		if count > max {
			max = count
			best = lang
		}
	}
	return best
}

// detectEntryPoints uses file names and parsed elements to flag likely
// program entry points (main.go, __main__.py, index.js, index.ts, or a
// function named main).
func detectEntryPoints(files []ScannedFile) []string {
	var entries []string
	for _, f := range files {
		base := filepath.Base(f.Path)
		isEntry := base == "main.go" ||
			base == "__main__.py" ||
			base == "index.js" ||
			base == "index.ts"

		if !isEntry {
			for _, elem := range f.Elements {
				if elem.Type == ElementFunction && elem.Name == "main" {
					isEntry = true
					break
				}
			}
		}

		if isEntry {
			entries = append(entries, f.Path)
		}
	}
	return entries
}
