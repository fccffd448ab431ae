package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/scheduler"
)

// Scanner walks a workspace directory and parses every recognized file
// through a ParserFactory, producing a flat list of ScannedFiles.
type Scanner struct {
	factory *ParserFactory
	config  ScannerConfig
}

// NewScanner creates a new filesystem Scanner rooted at projectRoot.
func NewScanner(projectRoot string) *Scanner {
	logging.ParserDebug("Creating new filesystem Scanner")
	return &Scanner{
		factory: DefaultParserFactory(projectRoot),
		config:  DefaultScannerConfig(),
	}
}

// NewScannerWithConfig creates a Scanner with an explicit ScannerConfig.
func NewScannerWithConfig(projectRoot string, cfg ScannerConfig) *Scanner {
	return &Scanner{
		factory: DefaultParserFactory(projectRoot),
		config:  cfg,
	}
}

// ScannedFile is the result of scanning and parsing a single workspace file.
type ScannedFile struct {
	Path      string
	Hash      string
	Language  string
	ModTime   time.Time
	IsTest    bool
	Elements  []CodeElement
	ParseErr  error
}

// ScanResult is the aggregate outcome of a workspace scan.
type ScanResult struct {
	FileCount      int
	DirectoryCount int
	Files          []ScannedFile
	Languages      map[string]int
	TestFileCount  int
}

// calculateHash computes a SHA256 hash of file content.
func calculateHash(path string) (string, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("Failed to open file for hashing: %s - %v", path, err)
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		logging.Get(logging.CategoryParser).Error("Failed to read file for hashing: %s - %v", path, err)
		return "", err
	}

	hash := hex.EncodeToString(h.Sum(nil))
	logging.ParserDebug("Hash calculated for %s: %s (took %v)", filepath.Base(path), hash[:16], time.Since(start))
	return hash, nil
}

// ScanWorkspace scans the entire workspace and returns the scanned files.
func (s *Scanner) ScanWorkspace(root string) (*ScanResult, error) {
	logging.Parser("Starting workspace scan: %s", root)
	timer := logging.StartTimer(logging.CategoryParser, "ScanWorkspace")

	result, err := s.ScanDirectory(context.Background(), root)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("Workspace scan failed: %v", err)
		return nil, err
	}

	elapsed := timer.StopWithInfo()
	logging.Parser("Workspace scan completed: %d files, %d directories in %v", result.FileCount, result.DirectoryCount, elapsed)
	return result, nil
}

// ScanDirectory performs a comprehensive scan of a directory with context support.
func (s *Scanner) ScanDirectory(ctx context.Context, root string) (*ScanResult, error) {
	logging.Parser("Starting directory scan: %s", root)
	timer := logging.StartTimer(logging.CategoryParser, "ScanDirectory")

	result := &ScanResult{
		Languages: make(map[string]int),
	}
	var mu sync.Mutex
	cache := NewFileCache(root)
	defer func() {
		if err := cache.Save(); err != nil {
			logging.Get(logging.CategoryParser).Error("Failed to save file cache: %v", err)
		}
	}()

	var wg sync.WaitGroup
	maxConc := s.config.MaxConcurrency
	if maxConc <= 0 {
		maxConc = DefaultScannerConfig().MaxConcurrency
	}
	pool := scheduler.New("parser-scan", maxConc)
	var skippedDirs int
	var cacheHits, cacheMisses int

	excludedDirs := map[string]bool{
		".github":   true,
		".vscode":   true,
		".circleci": true,
		".config":   true,
		".git":      false,
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			logging.Parser("Directory scan cancelled via context")
			return ctx.Err()
		default:
		}

		if err != nil {
			logging.Get(logging.CategoryParser).Warn("Walk error at %s: %v", path, err)
			return err
		}

		if info.IsDir() {
			name := info.Name()
			if strings.HasPrefix(name, ".") && name != "." {
				if allow, exists := excludedDirs[name]; !exists || !allow {
					logging.ParserDebug("Skipping excluded directory: %s", path)
					skippedDirs++
					return filepath.SkipDir
				}
			}
			mu.Lock()
			result.DirectoryCount++
			mu.Unlock()
			return nil
		}

		wg.Add(1)
		go func(path string, info os.FileInfo) {
			defer wg.Done()
			_, _ = scheduler.Submit(ctx, pool, func(ctx context.Context) (struct{}, error) {
				parseFile(path, info, cache, result, &mu, s, &cacheHits, &cacheMisses)
				return struct{}{}, nil
			})
		}(path, info)

		return nil
	})

	wg.Wait()

	elapsed := timer.Stop()
	logging.Parser("Directory scan completed: %d files, %d dirs, %d skipped dirs, cache hits=%d misses=%d in %v",
		result.FileCount, result.DirectoryCount, skippedDirs, cacheHits, cacheMisses, elapsed)

	if len(result.Languages) > 0 {
		logging.ParserDebug("Language breakdown: %v", result.Languages)
	}

	return result, err
}

func parseFile(path string, info os.FileInfo, cache *FileCache, result *ScanResult, mu *sync.Mutex, s *Scanner, cacheHits, cacheMisses *int) {
	fileStart := time.Now()

	var hash string
	if cachedHash, hit := cache.Get(path, info); hit {
		hash = cachedHash
		mu.Lock()
		*cacheHits++
		mu.Unlock()
	} else {
		h, err := calculateHash(path)
		if err != nil {
			logging.Get(logging.CategoryParser).Warn("Skipping file (hash error): %s - %v", path, err)
			return
		}
		hash = h
		cache.Update(path, info, hash)
		mu.Lock()
		*cacheMisses++
		mu.Unlock()
	}

	ext := filepath.Ext(path)
	lang := detectLanguage(ext, path)
	isTest := isTestFile(path)

	sf := ScannedFile{
		Path:     path,
		Hash:     hash,
		Language: lang,
		ModTime:  info.ModTime(),
		IsTest:   isTest,
	}

	if !isTest && s.factory.HasParser(path) {
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			logging.Get(logging.CategoryParser).Warn("Failed to read file for parsing: %s - %v", path, readErr)
		} else {
			elems, parseErr := s.factory.Parse(path, content)
			if parseErr != nil {
				sf.ParseErr = parseErr
				logging.Get(logging.CategoryParser).Warn("Parse failed: %s - %v", path, parseErr)
			} else {
				sf.Elements = elems
				logging.ParserDebug("Parsed %s: %d elements in %v", filepath.Base(path), len(elems), time.Since(fileStart))
			}
		}
	}

	mu.Lock()
	result.FileCount++
	result.Languages[lang]++
	if isTest {
		result.TestFileCount++
	}
	result.Files = append(result.Files, sf)
	mu.Unlock()
}

// detectLanguage determines the programming language from file extension and path.
func detectLanguage(ext, path string) string {
	ext = strings.ToLower(ext)

	langMap := map[string]string{
		".go":    "go",
		".py":    "python",
		".js":    "javascript",
		".ts":    "typescript",
		".tsx":   "typescript",
		".jsx":   "javascript",
		".rs":    "rust",
		".java":  "java",
		".kt":    "kotlin",
		".rb":    "ruby",
		".php":   "php",
		".c":     "c",
		".cpp":   "cpp",
		".cc":    "cpp",
		".h":     "c",
		".hpp":   "cpp",
		".cs":    "csharp",
		".swift": "swift",
		".sh":    "shell",
		".bash":  "shell",
		".zsh":   "shell",
		".yaml":  "yaml",
		".yml":   "yaml",
		".json":  "json",
		".md":    "markdown",
		".toml":  "toml",
	}

	if lang, ok := langMap[ext]; ok {
		return lang
	}

	base := filepath.Base(path)
	switch base {
	case "Dockerfile", "dockerfile":
		return "dockerfile"
	case "Makefile", "makefile", "GNUmakefile":
		return "makefile"
	case "go.mod", "go.sum":
		return "go_mod"
	case "package.json":
		return "npm"
	case "Cargo.toml":
		return "cargo"
	}

	return "unknown"
}

// isTestFile determines if a file is a test file.
func isTestFile(path string) bool {
	base := filepath.Base(path)
	dir := filepath.Dir(path)

	if strings.HasSuffix(path, "_test.go") {
		return true
	}

	if strings.HasSuffix(path, "_test.py") || strings.HasPrefix(base, "test_") {
		return true
	}

	dirParts := strings.Split(filepath.ToSlash(dir), "/")
	inTestDir := false
	for _, part := range dirParts {
		if part == "tests" || part == "test" || part == "__tests__" {
			inTestDir = true
			break
		}
	}

	if inTestDir {
		ext := filepath.Ext(path)
		if ext == ".py" || ext == ".js" || ext == ".ts" || ext == ".tsx" || ext == ".rs" {
			return true
		}
	}

	if strings.HasSuffix(path, ".test.js") || strings.HasSuffix(path, ".test.ts") ||
		strings.HasSuffix(path, ".spec.js") || strings.HasSuffix(path, ".spec.ts") ||
		strings.HasSuffix(path, ".test.tsx") || strings.HasSuffix(path, ".spec.tsx") {
		return true
	}

	if strings.HasSuffix(path, "Test.java") || strings.HasSuffix(path, "Tests.java") {
		return true
	}

	if strings.Contains(dir, "tests") && strings.HasSuffix(path, ".rs") {
		return true
	}

	return false
}
