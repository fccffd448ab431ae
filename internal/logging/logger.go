// Package logging provides config-driven categorized logging for codegraph.
// Each category writes to its own file under .codegraph/logs/ through a
// dedicated zap core. Logging is controlled by debug_mode in
// .codegraph/config.json - when false, no logs are written.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/component.
type Category string

const (
	CategoryBoot        Category = "boot"        // startup, shutdown
	CategorySession     Category = "session"     // CLI/server session lifecycle
	CategoryPerformance Category = "performance"  // slow-operation accounting
	CategoryAPI         Category = "api"          // HTTP/JSON-RPC request handling
	CategoryConfig      Category = "config"       // config load/reload
	CategoryScheduler   Category = "scheduler"    // bounded worker pool
	CategoryParser      Category = "parser"       // workspace scanning, tree-sitter/go-ast parse
	CategoryHasher      Category = "hasher"       // semantic hashing
	CategoryEmbedding   Category = "embedding"    // embedding providers
	CategoryGraph       Category = "graph"        // graph store
	CategorySearch      Category = "search"       // search/vector store
	CategoryStore       Category = "store"        // shared sqlite storage layer
	CategorySync        Category = "sync"         // scan->graph->search sync pipeline
	CategoryNotes       Category = "notes"        // note lifecycle, staleness decay
	CategoryNeural      Category = "neural"       // spreading-activation retrieval
	CategoryTools       Category = "tools"        // tool dispatch
	CategoryRPC         Category = "rpc"          // JSON-RPC stdio shell
	CategoryHTTP        Category = "http"         // HTTP shell
)

// loggingConfig mirrors the relevant parts of config.Config to avoid a
// circular import between logging and config.
type loggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories"`
	Level      string          `json:"level"`
	JSONFormat bool            `json:"json_format"`
}

type configFile struct {
	Logging loggingConfig `json:"logging"`
}

// Logger wraps a zap.SugaredLogger scoped to a single category and file.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	core     *zap.Logger
}

var (
	loggers      = make(map[Category]*Logger)
	loggersMu    sync.RWMutex
	logsDir      string
	workspace    string
	cfg          loggingConfig
	configMu     sync.RWMutex
	zapLevel     zapcore.Level
)

// Initialize sets up the logging directory and loads config. Should be
// called once at startup with the workspace path.
func Initialize(ws string) error {
	if ws == "" {
		return fmt.Errorf("workspace path required")
	}

	workspace = ws
	logsDir = filepath.Join(workspace, ".codegraph", "logs")

	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not load config: %v\n", err)
		cfg.DebugMode = false
	}

	if !cfg.DebugMode {
		return nil // silent no-op in production mode
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("logging initialized", "workspace", workspace, "level", cfg.Level, "json", cfg.JSONFormat)
	if len(cfg.Categories) > 0 {
		enabled := 0
		for _, on := range cfg.Categories {
			if on {
				enabled++
			}
		}
		boot.Info("category filter active", "enabled", enabled, "total", len(cfg.Categories))
	}
	return nil
}

// loadConfig reads the logging block from .codegraph/config.json.
func loadConfig() error {
	configMu.Lock()
	defer configMu.Unlock()

	path := filepath.Join(workspace, ".codegraph", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.DebugMode = false
			return nil
		}
		return err
	}

	var cf configFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("parse logging config: %w", err)
	}
	cfg = cf.Logging

	switch cfg.Level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}
	return nil
}

// ReloadConfig reloads the config from disk. Call this if config changes
// at runtime.
func ReloadConfig() error {
	return loadConfig()
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return cfg.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !cfg.DebugMode {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) the logger for a category. Returns a no-op
// logger if debug mode is disabled or the category is filtered out.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if cfg.JSONFormat {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(file), zapLevel)
	zl := zap.New(core).With(zap.String("category", string(category)))

	l := &Logger{category: category, sugar: zl.Sugar(), core: zl}
	loggers[category] = l
	return l
}

// Debug logs a formatted debug message with optional key/value fields.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs a formatted info message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a formatted warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs a formatted error message. Always emitted if the logger exists.
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// StructuredLog writes a log entry with explicit structured fields.
func (l *Logger) StructuredLog(level string, msg string, fields map[string]interface{}) {
	if l.sugar == nil {
		return
	}
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	switch level {
	case "debug":
		l.sugar.Debugw(msg, kv...)
	case "warn":
		l.sugar.Warnw(msg, kv...)
	case "error":
		l.sugar.Errorw(msg, kv...)
	default:
		l.sugar.Infow(msg, kv...)
	}
}

// WithContext returns a context logger carrying a fixed set of fields.
func (l *Logger) WithContext(ctx map[string]interface{}) *ContextLogger {
	return &ContextLogger{logger: l, context: ctx}
}

// ContextLogger provides structured logging with key-value context attached
// to every call.
type ContextLogger struct {
	logger  *Logger
	context map[string]interface{}
}

func (c *ContextLogger) Debug(format string, args ...interface{}) {
	if c.logger.sugar == nil {
		return
	}
	c.logger.sugar.Debugf(format+" | ctx=%v", append(args, c.context)...)
}

func (c *ContextLogger) Info(format string, args ...interface{}) {
	if c.logger.sugar == nil {
		return
	}
	c.logger.sugar.Infof(format+" | ctx=%v", append(args, c.context)...)
}

func (c *ContextLogger) Warn(format string, args ...interface{}) {
	if c.logger.sugar == nil {
		return
	}
	c.logger.sugar.Warnf(format+" | ctx=%v", append(args, c.context)...)
}

func (c *ContextLogger) Error(format string, args ...interface{}) {
	if c.logger.sugar == nil {
		return
	}
	c.logger.sugar.Errorf(format+" | ctx=%v", append(args, c.context)...)
}

// CloseAll flushes and closes every open category logger. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.core != nil {
			_ = l.core.Sync()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// Convenience functions - quick logging without fetching a logger first.
// No-ops if the category is disabled.
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }
func BootError(format string, args ...interface{}) { Get(CategoryBoot).Error(format, args...) }

func Session(format string, args ...interface{})      { Get(CategorySession).Info(format, args...) }
func SessionDebug(format string, args ...interface{}) { Get(CategorySession).Debug(format, args...) }
func SessionWarn(format string, args ...interface{})  { Get(CategorySession).Warn(format, args...) }
func SessionError(format string, args ...interface{}) { Get(CategorySession).Error(format, args...) }

func API(format string, args ...interface{})      { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{}) { Get(CategoryAPI).Debug(format, args...) }
func APIWarn(format string, args ...interface{})  { Get(CategoryAPI).Warn(format, args...) }
func APIError(format string, args ...interface{}) { Get(CategoryAPI).Error(format, args...) }

func Config(format string, args ...interface{})      { Get(CategoryConfig).Info(format, args...) }
func ConfigDebug(format string, args ...interface{}) { Get(CategoryConfig).Debug(format, args...) }
func ConfigWarn(format string, args ...interface{})  { Get(CategoryConfig).Warn(format, args...) }
func ConfigError(format string, args ...interface{}) { Get(CategoryConfig).Error(format, args...) }

func Scheduler(format string, args ...interface{})      { Get(CategoryScheduler).Info(format, args...) }
func SchedulerDebug(format string, args ...interface{}) { Get(CategoryScheduler).Debug(format, args...) }
func SchedulerWarn(format string, args ...interface{})  { Get(CategoryScheduler).Warn(format, args...) }
func SchedulerError(format string, args ...interface{}) { Get(CategoryScheduler).Error(format, args...) }

// Parser is the category used by the workspace scanner and language parsers
// (kept as the one already wired through internal/parser).
func Parser(format string, args ...interface{})      { Get(CategoryParser).Info(format, args...) }
func ParserDebug(format string, args ...interface{}) { Get(CategoryParser).Debug(format, args...) }
func ParserWarn(format string, args ...interface{})  { Get(CategoryParser).Warn(format, args...) }
func ParserError(format string, args ...interface{}) { Get(CategoryParser).Error(format, args...) }

func Hasher(format string, args ...interface{})      { Get(CategoryHasher).Info(format, args...) }
func HasherDebug(format string, args ...interface{}) { Get(CategoryHasher).Debug(format, args...) }
func HasherWarn(format string, args ...interface{})  { Get(CategoryHasher).Warn(format, args...) }
func HasherError(format string, args ...interface{}) { Get(CategoryHasher).Error(format, args...) }

func Embedding(format string, args ...interface{})      { Get(CategoryEmbedding).Info(format, args...) }
func EmbeddingDebug(format string, args ...interface{}) { Get(CategoryEmbedding).Debug(format, args...) }
func EmbeddingWarn(format string, args ...interface{})  { Get(CategoryEmbedding).Warn(format, args...) }
func EmbeddingError(format string, args ...interface{}) { Get(CategoryEmbedding).Error(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreWarn(format string, args ...interface{})  { Get(CategoryStore).Warn(format, args...) }
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

func Graph(format string, args ...interface{})      { Get(CategoryGraph).Info(format, args...) }
func GraphDebug(format string, args ...interface{}) { Get(CategoryGraph).Debug(format, args...) }
func GraphWarn(format string, args ...interface{})  { Get(CategoryGraph).Warn(format, args...) }
func GraphError(format string, args ...interface{}) { Get(CategoryGraph).Error(format, args...) }

func Search(format string, args ...interface{})      { Get(CategorySearch).Info(format, args...) }
func SearchDebug(format string, args ...interface{}) { Get(CategorySearch).Debug(format, args...) }
func SearchWarn(format string, args ...interface{})  { Get(CategorySearch).Warn(format, args...) }
func SearchError(format string, args ...interface{}) { Get(CategorySearch).Error(format, args...) }

func Sync(format string, args ...interface{})      { Get(CategorySync).Info(format, args...) }
func SyncDebug(format string, args ...interface{}) { Get(CategorySync).Debug(format, args...) }
func SyncWarn(format string, args ...interface{})  { Get(CategorySync).Warn(format, args...) }
func SyncError(format string, args ...interface{}) { Get(CategorySync).Error(format, args...) }

func Notes(format string, args ...interface{})      { Get(CategoryNotes).Info(format, args...) }
func NotesDebug(format string, args ...interface{}) { Get(CategoryNotes).Debug(format, args...) }
func NotesWarn(format string, args ...interface{})  { Get(CategoryNotes).Warn(format, args...) }
func NotesError(format string, args ...interface{}) { Get(CategoryNotes).Error(format, args...) }

func Neural(format string, args ...interface{})      { Get(CategoryNeural).Info(format, args...) }
func NeuralDebug(format string, args ...interface{}) { Get(CategoryNeural).Debug(format, args...) }
func NeuralWarn(format string, args ...interface{})  { Get(CategoryNeural).Warn(format, args...) }
func NeuralError(format string, args ...interface{}) { Get(CategoryNeural).Error(format, args...) }

func Tools(format string, args ...interface{})      { Get(CategoryTools).Info(format, args...) }
func ToolsDebug(format string, args ...interface{}) { Get(CategoryTools).Debug(format, args...) }
func ToolsWarn(format string, args ...interface{})  { Get(CategoryTools).Warn(format, args...) }
func ToolsError(format string, args ...interface{}) { Get(CategoryTools).Error(format, args...) }

func RPC(format string, args ...interface{})      { Get(CategoryRPC).Info(format, args...) }
func RPCDebug(format string, args ...interface{}) { Get(CategoryRPC).Debug(format, args...) }
func RPCWarn(format string, args ...interface{})  { Get(CategoryRPC).Warn(format, args...) }
func RPCError(format string, args ...interface{}) { Get(CategoryRPC).Error(format, args...) }

func HTTP(format string, args ...interface{})      { Get(CategoryHTTP).Info(format, args...) }
func HTTPDebug(format string, args ...interface{}) { Get(CategoryHTTP).Debug(format, args...) }
func HTTPWarn(format string, args ...interface{})  { Get(CategoryHTTP).Warn(format, args...) }
func HTTPError(format string, args ...interface{}) { Get(CategoryHTTP).Error(format, args...) }

// =============================================================================
// Request ID tracing - for distributed/RPC request correlation.
// =============================================================================

// RequestLogger provides request-scoped logging with a correlation ID.
type RequestLogger struct {
	logger    *Logger
	requestID string
	fields    map[string]interface{}
}

// WithRequestID creates a request-scoped logger carrying a correlation ID.
func WithRequestID(category Category, requestID string) *RequestLogger {
	return &RequestLogger{
		logger:    Get(category),
		requestID: requestID,
		fields:    make(map[string]interface{}),
	}
}

// WithField adds a field to the request logger.
func (r *RequestLogger) WithField(key string, value interface{}) *RequestLogger {
	r.fields[key] = value
	return r
}

func (r *RequestLogger) Debug(format string, args ...interface{}) {
	if r.logger.sugar == nil {
		return
	}
	r.logger.sugar.Debugw(fmt.Sprintf(format, args...), "req", r.requestID, "fields", r.fields)
}

func (r *RequestLogger) Info(format string, args ...interface{}) {
	if r.logger.sugar == nil {
		return
	}
	r.logger.sugar.Infow(fmt.Sprintf(format, args...), "req", r.requestID, "fields", r.fields)
}

func (r *RequestLogger) Warn(format string, args ...interface{}) {
	if r.logger.sugar == nil {
		return
	}
	r.logger.sugar.Warnw(fmt.Sprintf(format, args...), "req", r.requestID, "fields", r.fields)
}

func (r *RequestLogger) Error(format string, args ...interface{}) {
	if r.logger.sugar == nil {
		return
	}
	r.logger.sugar.Errorw(fmt.Sprintf(format, args...), "req", r.requestID, "fields", r.fields)
}

// =============================================================================
// Timing helpers - for performance logging.
// =============================================================================

// Timer measures operation duration against the performance category.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation under the given category.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level.
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold, else debug.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
