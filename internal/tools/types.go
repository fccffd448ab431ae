// Package tools provides the C9 Tool Dispatch table: a named registry of
// operations backed by C4/C5/C7/C8, each taking JSON-decoded arguments and
// returning a JSON-encodable result. An unknown operation name fails
// unambiguously; missing required arguments are rejected before any store
// is touched.
package tools

import (
	"context"
)

// ToolCategory groups operations by the subsystem they dispatch into.
type ToolCategory string

const (
	// CategoryGraph covers C4 graph queries (dependents, callers/callees,
	// traversal, planning entities).
	CategoryGraph ToolCategory = "graph"

	// CategorySearch covers C5 search across code/decisions/notes.
	CategorySearch ToolCategory = "search"

	// CategoryNotes covers C7 note CRUD, verification, staleness, and
	// context retrieval.
	CategoryNotes ToolCategory = "notes"

	// CategoryNeural covers C8 spreading-activation retrieval and its
	// maintenance operations.
	CategoryNeural ToolCategory = "neural"

	// CategorySync covers C6 project sync triggers.
	CategorySync ToolCategory = "sync"

	// CategoryGeneral is for operations with no narrower home.
	CategoryGeneral ToolCategory = "general"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// ToolSchema defines the JSON schema for tool arguments.
// This enables LLM tool calling with proper validation.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution.
// Returns the result string and any error.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool defines a single named operation in the dispatch table.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description explains what the tool does.
	// Used for LLM tool calling and documentation.
	Description string

	// Category classifies the tool by the subsystem it dispatches into.
	Category ToolCategory

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema ToolSchema

	// Priority is used when multiple tools match.
	// Higher priority tools are preferred (default 50).
	Priority int

	// RequiresContext indicates if the tool needs session context.
	RequiresContext bool
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// WithPriority returns a copy of the tool with the given priority.
func (t *Tool) WithPriority(priority int) *Tool {
	copy := *t
	copy.Priority = priority
	return &copy
}

// ToolResult wraps the result of tool execution with metadata.
type ToolResult struct {
	// ToolName identifies which tool was executed.
	ToolName string

	// Result is the string output from the tool.
	Result string

	// Error is set if the tool failed.
	Error error

	// DurationMs is how long execution took.
	DurationMs int64
}

// IsSuccess returns true if the tool executed without error.
func (r *ToolResult) IsSuccess() bool {
	return r.Error == nil
}
