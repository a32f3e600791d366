package orchestrator

import (
	"strings"

	"tinygpt/internal/parser"
)

// synthesize folds tool outcomes back into the generated text. Successful
// results replace their markers in place; failed markers are removed and an
// unavailability note is appended per failed tool. When every tool failed
// the reasoning text alone would mislead, so a plain fallback is returned
// instead.
func synthesize(generated string, invocations []parser.Invocation, outcomes []Outcome) string {
	if len(invocations) == 0 {
		return strings.TrimSpace(generated)
	}

	answer := generated
	var failed []Outcome
	successes := 0
	for i, outcome := range outcomes {
		if outcome.Success {
			answer = strings.Replace(answer, invocations[i].Raw, outcome.Result, 1)
			successes++
			continue
		}
		answer = removeMarker(answer, invocations[i].Raw)
		failed = append(failed, outcome)
	}

	if successes == 0 {
		return "I tried to look that up for you, but none of the tools I needed " +
			"are available right now. Please try again in a moment."
	}

	answer = strings.TrimSpace(answer)
	for _, outcome := range failed {
		answer += "\n\nNote: " + outcome.ToolName + " is currently unavailable (" +
			failureNote(outcome) + ")."
	}
	return answer
}

func failureNote(outcome Outcome) string {
	switch outcome.ErrorKind {
	case ErrUnknownTool:
		return "no such tool"
	case ErrToolDisabled:
		return "disabled"
	case ErrInvalidArguments:
		return "invalid arguments"
	default:
		return "execution failed"
	}
}

// removeMarker deletes one marker from answer together with the run of
// spaces around it, touching no whitespace elsewhere so spliced tool
// results keep their formatting.
func removeMarker(answer, raw string) string {
	idx := strings.Index(answer, raw)
	if idx == -1 {
		return answer
	}
	left, right := idx, idx+len(raw)
	for left > 0 && (answer[left-1] == ' ' || answer[left-1] == '\t') {
		left--
	}
	for right < len(answer) && (answer[right] == ' ' || answer[right] == '\t') {
		right++
	}
	switch {
	case left > 0 && right < len(answer) && answer[left-1] == '\n' && answer[right] == '\n':
		// marker stood on its own line, drop the line entirely
		right++
	case left > 0 && right < len(answer) && answer[left-1] != '\n' && answer[right] != '\n':
		return answer[:left] + " " + answer[right:]
	}
	return answer[:left] + answer[right:]
}
