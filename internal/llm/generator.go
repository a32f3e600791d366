// Package llm provides the text-generation backend the orchestrator calls
// once per turn. The generated text may embed <tool>...</tool> markers; the
// generator itself knows nothing about tool execution.
package llm

import (
	"context"
	"time"
)

// Request is one generation call.
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Metadata identifies the backend that produced a generation.
type Metadata struct {
	Name    string `json:"name"`
	Backend string `json:"backend"`
}

// Generation is the result of one call.
type Generation struct {
	Text       string
	Model      Metadata
	TokensUsed int
	Elapsed    time.Duration
}

// Generator produces a single text block for a prompt. Implementations
// must honor ctx cancellation and carry a bounded internal timeout.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Generation, error)
	Model() Metadata
}
