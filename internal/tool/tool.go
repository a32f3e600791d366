package tool

import (
	"context"
)

// Executor executes a single capability call.
type Executor interface {
	// Execute runs the tool with validated arguments.
	Execute(ctx context.Context, call Call) (*Result, error)

	// Definition returns the tool's parameter schema.
	Definition() Definition

	// Metadata returns tool metadata.
	Metadata() Metadata
}

// Call represents one requested tool invocation.
type Call struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Result is the execution result of one call. Content carries a compact
// human-readable rendering for answer synthesis; Value carries the
// structured payload.
type Result struct {
	CallID  string         `json:"call_id"`
	Content string         `json:"content"`
	Value   map[string]any `json:"value,omitempty"`
}

// Definition describes a tool's calling contract.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// Metadata contains tool identity information.
type Metadata struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Category string `json:"category"`
}

// ParameterSchema defines tool parameters (JSON Schema shaped).
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}
