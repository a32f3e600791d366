package orchestrator

import (
	"fmt"
	"time"

	"tinygpt/internal/llm"
)

// State tracks a turn through its lifecycle. Terminal states are
// StateComplete, StateRejected and StateFailed.
type State string

const (
	StateAdmitted     State = "admitted"
	StateExtracting   State = "extracting"
	StateDispatching  State = "dispatching"
	StateSynthesizing State = "synthesizing"
	StateComplete     State = "complete"
	StateRejected     State = "rejected"
	StateFailed       State = "failed"
)

// ErrorKind classifies turn-level and per-outcome failures.
type ErrorKind string

const (
	// Turn-fatal kinds.
	ErrRateLimited       ErrorKind = "rate_limited"
	ErrGenerationFailure ErrorKind = "generation_failure"
	ErrTurnTimeout       ErrorKind = "turn_timeout"

	// Per-outcome kinds; never fatal to the turn.
	ErrUnknownTool          ErrorKind = "unknown_tool"
	ErrToolDisabled         ErrorKind = "tool_disabled"
	ErrInvalidArguments     ErrorKind = "invalid_arguments"
	ErrToolExecutionFailure ErrorKind = "tool_execution_failure"
)

// TurnRequest is one chat turn to process.
type TurnRequest struct {
	Prompt      string
	Identity    string
	Temperature float64
}

// Outcome records the result of attempting one extracted invocation.
// Exactly one of Result and ErrorKind is populated.
type Outcome struct {
	ToolName  string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Success   bool           `json:"success"`
	Result    string         `json:"result,omitempty"`
	ErrorKind ErrorKind      `json:"error_kind,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

// ResponseRecord is the unit returned for one successful chat turn.
// Outcomes preserve extraction order, not completion order. The record is
// immutable once returned.
type ResponseRecord struct {
	ID             string        `json:"id"`
	ReasoningTrace string        `json:"thought"`
	Outcomes       []Outcome     `json:"tool_calls"`
	FinalAnswer    string        `json:"final_answer"`
	Model          llm.Metadata  `json:"model_info"`
	TokensUsed     int           `json:"tokens_used"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// TurnError is the structured rejection for turn-fatal failures. A
// TurnTimeout may carry the outcomes that completed before cancellation;
// other kinds never carry partial results.
type TurnError struct {
	Kind       ErrorKind
	RetryAfter time.Duration
	Outcomes   []Outcome
	Err        error
}

func (e *TurnError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *TurnError) Unwrap() error { return e.Err }
