package orchestrator

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"tinygpt/internal/parser"
	"tinygpt/internal/tool"
)

// dispatch resolves and executes every invocation, returning one outcome
// per invocation in extraction order regardless of completion order. The
// second return value lists only the outcomes that were settled before the
// turn context was cancelled, for best-effort timeout reporting.
func (o *Orchestrator) dispatch(ctx context.Context, invocations []parser.Invocation) ([]Outcome, []Outcome) {
	results := make([]Outcome, len(invocations))
	settled := make([]bool, len(invocations))

	sem := semaphore.NewWeighted(int64(o.config.MaxConcurrentTools))
	var wg sync.WaitGroup

	for i, inv := range invocations {
		wg.Add(1)
		go func(idx int, inv parser.Invocation) {
			defer wg.Done()

			start := o.now()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[idx] = o.failedOutcome(inv.Name, inv.Arguments,
					ErrToolExecutionFailure, "turn cancelled before dispatch", start)
				return
			}
			defer sem.Release(1)

			results[idx] = o.executeOne(ctx, fmtCallID(idx), inv)
			settled[idx] = ctx.Err() == nil
		}(i, inv)
	}
	wg.Wait()

	var completed []Outcome
	for i, outcome := range results {
		if settled[i] {
			completed = append(completed, outcome)
		}
	}
	return results, completed
}

// executeOne resolves one invocation against the registry and runs it
// under the per-call timeout. Every failure mode becomes a typed outcome;
// nothing here aborts sibling dispatches.
func (o *Orchestrator) executeOne(ctx context.Context, callID string, inv parser.Invocation) Outcome {
	start := o.now()

	executor, enabled, err := o.registry.Get(inv.Name)
	if err != nil {
		o.logger.Warn("invocation of unknown tool %q", inv.Name)
		return o.failedOutcome(inv.Name, inv.Arguments, ErrUnknownTool, err.Error(), start)
	}
	if !enabled {
		o.logger.Info("invocation of disabled tool %q", inv.Name)
		return o.failedOutcome(inv.Name, inv.Arguments, ErrToolDisabled, "tool is disabled", start)
	}

	args, err := tool.CoerceArguments(inv.Arguments, executor.Definition().Parameters)
	if err != nil {
		o.logger.Info("argument validation failed for %q: %v", inv.Name, err)
		return o.failedOutcome(inv.Name, inv.Arguments, ErrInvalidArguments, err.Error(), start)
	}

	if o.cache != nil {
		if cached, ok := o.cache.Get(inv.Name, args, callID); ok {
			if o.metrics != nil {
				o.metrics.RecordCacheHit(inv.Name)
			}
			return o.successOutcome(inv.Name, args, cached.Content, start)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config.ToolTimeout)
	defer cancel()

	result, err := executor.Execute(callCtx, tool.Call{ID: callID, Name: inv.Name, Arguments: args})
	switch {
	case err != nil:
		detail := err.Error()
		if callCtx.Err() == context.DeadlineExceeded {
			detail = "tool execution timed out after " + o.config.ToolTimeout.String()
		}
		o.logger.Warn("tool %q failed: %s", inv.Name, detail)
		return o.failedOutcome(inv.Name, args, ErrToolExecutionFailure, detail, start)
	case result == nil:
		return o.failedOutcome(inv.Name, args, ErrToolExecutionFailure, "tool returned no result", start)
	}

	if o.cache != nil {
		o.cache.Put(inv.Name, args, result)
	}
	return o.successOutcome(inv.Name, args, result.Content, start)
}

func (o *Orchestrator) successOutcome(name string, args map[string]any, content string, start time.Time) Outcome {
	d := o.now().Sub(start)
	if o.metrics != nil {
		o.metrics.RecordTool(name, "success", d)
	}
	return Outcome{
		ToolName:  name,
		Arguments: args,
		Success:   true,
		Result:    content,
		Duration:  d,
	}
}

func (o *Orchestrator) failedOutcome(name string, args map[string]any, kind ErrorKind, detail string, start time.Time) Outcome {
	d := o.now().Sub(start)
	if o.metrics != nil {
		o.metrics.RecordTool(name, string(kind), d)
	}
	return Outcome{
		ToolName:  name,
		Arguments: args,
		ErrorKind: kind,
		Detail:    detail,
		Duration:  d,
	}
}

func fmtCallID(idx int) string {
	return "call_" + strconv.Itoa(idx)
}
