// Package model defines the domain entities of the code property graph:
// files, symbols, execution-planning records, and notes. These are plain
// value types; persistence lives in internal/graphstore and
// internal/searchstore.
package model

import "time"

// Visibility mirrors the parser's visibility classification, widened with
// the modifiers non-Go languages expose.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityCrate     Visibility = "crate"
	VisibilitySuper     Visibility = "super"
	VisibilityInPath    Visibility = "in_path"
	VisibilityPrivate   Visibility = "private"
)

// Param is one function or method parameter.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// File is a unique source file within a project.
type File struct {
	Path        string    `json:"path"`
	ProjectID   string    `json:"project_id,omitempty"`
	Language    string    `json:"language"`
	ContentHash string    `json:"content_hash"`
	LastParsed  time.Time `json:"last_parsed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Function is a free function or method. Identity is (FilePath, Name,
// LineStart) within a project.
type Function struct {
	ID                string     `json:"id"`
	FilePath          string     `json:"file_path"`
	Name              string     `json:"name"`
	Visibility        Visibility `json:"visibility"`
	Params            []Param    `json:"params"`
	ReturnType        string     `json:"return_type,omitempty"`
	Generics          []string   `json:"generics,omitempty"`
	IsAsync           bool       `json:"is_async"`
	IsUnsafe          bool       `json:"is_unsafe"`
	CyclomaticComplexity int     `json:"cyclomatic_complexity"`
	LineStart         int        `json:"line_start"`
	LineEnd           int        `json:"line_end"`
	Docstring         string     `json:"docstring,omitempty"`
	SignatureHash     string     `json:"signature_hash,omitempty"`
	BodyHash          string     `json:"body_hash,omitempty"`
	Embedding         []float32  `json:"embedding,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// SymbolKind distinguishes the non-function symbol node kinds.
type SymbolKind string

const (
	SymbolStruct SymbolKind = "struct"
	SymbolEnum   SymbolKind = "enum"
	SymbolTrait  SymbolKind = "trait"
	SymbolImpl   SymbolKind = "impl"
)

// Symbol is a struct, enum, trait, or impl node.
type Symbol struct {
	ID         string     `json:"id"`
	FilePath   string     `json:"file_path"`
	Kind       SymbolKind `json:"kind"`
	Name       string     `json:"name"`
	Generics   []string   `json:"generics,omitempty"`
	Visibility Visibility `json:"visibility"`
	Docstring  string     `json:"docstring,omitempty"`
	LineStart  int        `json:"line_start"`
	LineEnd    int        `json:"line_end"`

	// Impl-only: the concrete type and optional trait it implements.
	ForType   string `json:"for_type,omitempty"`
	TraitName string `json:"trait_name,omitempty"`

	SignatureHash string    `json:"signature_hash,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Import is a raw import statement, resolved to an edge at sync time.
type Import struct {
	FilePath string   `json:"file_path"`
	Path     string   `json:"path"`
	Alias    string   `json:"alias,omitempty"`
	Items    []string `json:"items,omitempty"`
	Line     int      `json:"line"`
}

// FunctionCall is an unresolved call site extracted by the parser; it
// becomes a CALLS edge once the callee is resolved within the project.
type FunctionCall struct {
	CallerID   string `json:"caller_id"`
	CalleeName string `json:"callee_name"`
	Line       int    `json:"line"`
}

// Project is the unit of sync: one repository root.
type Project struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	Slug        string    `json:"slug"`
	RootPath    string    `json:"root_path"`
	LastSynced  time.Time `json:"last_synced"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Workspace groups projects and carries milestones/notes that propagate to
// member projects.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// PlanStatus is the lifecycle state of a Plan.
type PlanStatus string

const (
	PlanDraft      PlanStatus = "draft"
	PlanApproved   PlanStatus = "approved"
	PlanInProgress PlanStatus = "in_progress"
	PlanCompleted  PlanStatus = "completed"
	PlanCancelled  PlanStatus = "cancelled"
)

// Plan is an execution plan: an ordered set of tasks with a status.
type Plan struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	Status    PlanStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Task is a unit of work within a Plan. Tasks form a DAG via DependsOn.
type Task struct {
	ID         string     `json:"id"`
	PlanID     string     `json:"plan_id"`
	Title      string     `json:"title"`
	Status     TaskStatus `json:"status"`
	Priority   int        `json:"priority"`
	DependsOn  []string   `json:"depends_on,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Step is an ordered sub-action of a Task.
type Step struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Ordinal   int       `json:"ordinal"`
	Summary   string    `json:"summary"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// Decision records a design choice made during planning.
type Decision struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
	Summary   string    `json:"summary"`
	Rationale string    `json:"rationale,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Constraint is a binding rule a Plan or Task must respect.
type Constraint struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Milestone marks a target state for a Workspace or Project.
type Milestone struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Reached   bool       `json:"reached"`
	CreatedAt time.Time  `json:"created_at"`
}

// Release pins a Project to a shipped version.
type Release struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Commit is a source-control checkpoint tied to a Project.
type Commit struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	SHA       string    `json:"sha"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteType classifies the intent of a note.
type NoteType string

const (
	NoteGuideline   NoteType = "guideline"
	NoteGotcha      NoteType = "gotcha"
	NotePattern     NoteType = "pattern"
	NoteContext     NoteType = "context"
	NoteTip         NoteType = "tip"
	NoteObservation NoteType = "observation"
	NoteAssertion   NoteType = "assertion"
)

// NoteStatus is the lifecycle state of a Note.
type NoteStatus string

const (
	NoteActive      NoteStatus = "active"
	NoteNeedsReview NoteStatus = "needs_review"
	NoteStale       NoteStatus = "stale"
	NoteObsolete    NoteStatus = "obsolete"
	NoteArchived    NoteStatus = "archived"
)

// NoteImportance weights staleness decay and propagation relevance.
type NoteImportance string

const (
	ImportanceLow      NoteImportance = "low"
	ImportanceMedium   NoteImportance = "medium"
	ImportanceHigh     NoteImportance = "high"
	ImportanceCritical NoteImportance = "critical"
)

// NoteScopeKind is the kind of entity a Note is scoped to.
type NoteScopeKind string

const (
	ScopeWorkspace NoteScopeKind = "workspace"
	ScopeProject   NoteScopeKind = "project"
	ScopeModule    NoteScopeKind = "module"
	ScopeFile      NoteScopeKind = "file"
	ScopeFunction  NoteScopeKind = "function"
	ScopeStruct    NoteScopeKind = "struct"
	ScopeTrait     NoteScopeKind = "trait"
)

// NoteScope pins a Note to an entity, with an optional path/name qualifier
// for module/file/function/struct/trait scopes.
type NoteScope struct {
	Kind  NoteScopeKind `json:"kind"`
	Value string        `json:"value,omitempty"`
}

// AssertionRule is the machine-checkable rule carried by an assertion note.
type AssertionRule struct {
	CheckType   string            `json:"check_type"`
	Target      string            `json:"target"`
	FilePattern string            `json:"file_pattern,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// Note is a piece of durable knowledge attached to an entity in the graph.
type Note struct {
	ID               string         `json:"id"`
	ProjectID        string         `json:"project_id"`
	Type             NoteType       `json:"note_type"`
	Status           NoteStatus     `json:"status"`
	Importance       NoteImportance `json:"importance"`
	Scope            NoteScope      `json:"scope"`
	Content          string         `json:"content"`
	Tags             []string       `json:"tags,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	CreatedBy        string         `json:"created_by,omitempty"`
	LastConfirmedAt  *time.Time     `json:"last_confirmed_at,omitempty"`
	StalenessScore   float64        `json:"staleness_score"`
	AssertionRule    *AssertionRule `json:"assertion_rule,omitempty"`
	Supersedes       string         `json:"supersedes,omitempty"`
	Embedding        []float32      `json:"embedding,omitempty"`
	Energy           float64        `json:"energy"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NoteAnchorEntityType is the kind of entity a NoteAnchor points at.
type NoteAnchorEntityType string

const (
	AnchorFile     NoteAnchorEntityType = "file"
	AnchorFunction NoteAnchorEntityType = "function"
	AnchorStruct   NoteAnchorEntityType = "struct"
	AnchorTrait    NoteAnchorEntityType = "trait"
)

// NoteAnchor ties a Note to a specific graph entity with hashes that let the
// Note Lifecycle detect drift. Multiple anchors per note are permitted.
type NoteAnchor struct {
	ID            string               `json:"id"`
	NoteID        string               `json:"note_id"`
	EntityType    NoteAnchorEntityType `json:"entity_type"`
	EntityID      string               `json:"entity_id"`
	SignatureHash string               `json:"signature_hash,omitempty"`
	BodyHash      string               `json:"body_hash,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Synapse is a directed weighted edge between two Notes, traversed by the
// spreading-activation retrieval pass.
type Synapse struct {
	FromNoteID string    `json:"from_note_id"`
	ToNoteID   string    `json:"to_note_id"`
	Weight     float64   `json:"weight"`
	CreatedAt  time.Time `json:"created_at"`
}

// EdgeKind enumerates the typed relationships the Graph Store persists
// between nodes.
type EdgeKind string

const (
	EdgeContains   EdgeKind = "CONTAINS"
	EdgeImports    EdgeKind = "IMPORTS"
	EdgeCalls      EdgeKind = "CALLS"
	EdgeImplements EdgeKind = "IMPLEMENTS"
	EdgeDependsOn  EdgeKind = "DEPENDS_ON"
)
