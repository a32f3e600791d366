// Package orchestrator coordinates one chat turn: admission, generation,
// tool-call extraction, bounded parallel dispatch and answer synthesis.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tinygpt/internal/llm"
	"tinygpt/internal/logging"
	"tinygpt/internal/parser"
	"tinygpt/internal/ratelimit"
	"tinygpt/internal/toolregistry"
)

// Recorder receives orchestration metrics. A nil Recorder disables them.
type Recorder interface {
	RecordTurn(status string, d time.Duration)
	RecordTool(name, status string, d time.Duration)
	RecordRejection(class string)
	RecordCacheHit(toolName string)
}

// Config bounds per-turn resource usage.
type Config struct {
	// MaxConcurrentTools caps in-flight tool dispatches per turn.
	MaxConcurrentTools int
	// ToolTimeout bounds each individual tool call.
	ToolTimeout time.Duration
	// TurnTimeout is the whole-turn safety net; zero disables it.
	TurnTimeout time.Duration
}

// DefaultConfig mirrors the engine defaults: five concurrent tools, 30s
// per call, no whole-turn deadline.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentTools: 5,
		ToolTimeout:        30 * time.Second,
	}
}

// Orchestrator runs chat turns. Safe for concurrent use; each turn is an
// independent unit of work sharing only the registry and the limiter.
type Orchestrator struct {
	admission *ratelimit.Limiter
	generator llm.Generator
	extractor *parser.Parser
	registry  *toolregistry.Registry
	cache     *toolregistry.ResultCache
	metrics   Recorder
	logger    logging.Logger
	config    Config
	now       func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithCache attaches a tool result cache.
func WithCache(cache *toolregistry.ResultCache) Option {
	return func(o *Orchestrator) { o.cache = cache }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(metrics Recorder) Option {
	return func(o *Orchestrator) { o.metrics = metrics }
}

// WithLogger overrides the default component logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func New(
	admission *ratelimit.Limiter,
	generator llm.Generator,
	extractor *parser.Parser,
	registry *toolregistry.Registry,
	config Config,
	opts ...Option,
) *Orchestrator {
	if config.MaxConcurrentTools <= 0 {
		config.MaxConcurrentTools = DefaultConfig().MaxConcurrentTools
	}
	if config.ToolTimeout <= 0 {
		config.ToolTimeout = DefaultConfig().ToolTimeout
	}
	o := &Orchestrator{
		admission: admission,
		generator: generator,
		extractor: extractor,
		registry:  registry,
		logger:    logging.NewComponentLogger("Orchestrator"),
		config:    config,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleTurn processes one chat turn and returns either a complete
// ResponseRecord or a *TurnError. Rejected turns never reach the
// generation backend; individual tool failures never fail the turn.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*ResponseRecord, error) {
	start := o.now()

	decision := o.admission.Check(req.Identity, ratelimit.ClassChat)
	if !decision.Allowed {
		o.logger.Info("turn rejected for %s: retry in %v", req.Identity, decision.RetryAfter)
		o.recordRejection(string(ratelimit.ClassChat))
		o.recordTurn(string(StateRejected), o.now().Sub(start))
		return nil, &TurnError{Kind: ErrRateLimited, RetryAfter: decision.RetryAfter}
	}

	turnCtx := ctx
	if o.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, o.config.TurnTimeout)
		defer cancel()
	}

	generation, err := o.generator.Generate(turnCtx, llm.Request{
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
	})
	if err != nil {
		o.recordTurn(string(StateFailed), o.now().Sub(start))
		if turnTimedOut(turnCtx, ctx) {
			return nil, &TurnError{Kind: ErrTurnTimeout, Err: err}
		}
		o.logger.Error("generation failed: %v", err)
		return nil, &TurnError{Kind: ErrGenerationFailure, Err: err}
	}

	invocations := o.extractor.Parse(generation.Text)
	o.logger.Debug("extracted %d invocations from %d bytes of generated text",
		len(invocations), len(generation.Text))

	var outcomes []Outcome
	if len(invocations) > 0 {
		var completed []Outcome
		outcomes, completed = o.dispatch(turnCtx, invocations)
		if turnTimedOut(turnCtx, ctx) {
			o.recordTurn(string(StateFailed), o.now().Sub(start))
			return nil, &TurnError{
				Kind:     ErrTurnTimeout,
				Outcomes: completed,
				Err:      fmt.Errorf("turn exceeded %v", o.config.TurnTimeout),
			}
		}
	}

	record := &ResponseRecord{
		ID:             fmt.Sprintf("turn_%d", start.UnixMilli()),
		ReasoningTrace: parser.Thought(generation.Text),
		Outcomes:       outcomes,
		FinalAnswer:    synthesize(generation.Text, invocations, outcomes),
		Model:          generation.Model,
		TokensUsed:     generation.TokensUsed,
		ProcessingTime: o.now().Sub(start),
	}

	o.recordTurn(string(StateComplete), record.ProcessingTime)
	return record, nil
}

// turnTimedOut reports whether the turn deadline fired, as opposed to the
// caller cancelling the parent context.
func turnTimedOut(turnCtx, parent context.Context) bool {
	return errors.Is(turnCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil
}

func (o *Orchestrator) recordTurn(status string, d time.Duration) {
	if o.metrics != nil {
		o.metrics.RecordTurn(status, d)
	}
}

func (o *Orchestrator) recordRejection(class string) {
	if o.metrics != nil {
		o.metrics.RecordRejection(class)
	}
}
