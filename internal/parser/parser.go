package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Invocation is one tool call extracted from generated text. The tool name
// is not resolved here; unknown names surface as failed outcomes downstream.
type Invocation struct {
	Name      string
	Arguments map[string]any
	Raw       string
}

// Parser extracts tool invocations from a block of generated text. It is a
// pure text scanner: no lookups, no network, never an error.
type Parser struct {
	positional map[string]string
}

var toolNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

const (
	openTag  = "<tool>"
	closeTag = "</tool>"
)

// marker is one well-formed <tool>...</tool> pair found in text.
type marker struct {
	raw   string
	inner string
	start int
}

// findMarkers scans content for <tool>...</tool> pairs case-insensitively.
// A reopened delimiter before the close means the previous marker was never
// terminated: the scan restarts at the new delimiter so the unterminated
// marker is dropped without swallowing the one that follows it.
func findMarkers(content string) []marker {
	lower := strings.ToLower(content)
	var found []marker
	pos := 0
	for {
		open := strings.Index(lower[pos:], openTag)
		if open == -1 {
			return found
		}
		open += pos
		inner := open + len(openTag)
		end := strings.Index(lower[inner:], closeTag)
		if end == -1 {
			return found
		}
		if next := strings.Index(lower[inner:], openTag); next != -1 && next < end {
			pos = inner + next
			continue
		}
		found = append(found, marker{
			raw:   content[open : inner+end+len(closeTag)],
			inner: content[inner : inner+end],
			start: open,
		})
		pos = inner + end + len(closeTag)
	}
}

// DefaultPositionalHints maps a tool name to the parameter a bare
// positional value binds to, e.g. <tool>weather(Paris)</tool>.
func DefaultPositionalHints() map[string]string {
	return map[string]string{
		"weather": "location",
		"crypto":  "symbol",
		"wiki":    "topic",
		"search":  "query",
		"news":    "topic",
	}
}

// New creates a parser with the default positional-parameter hints.
func New() *Parser {
	return &Parser{positional: DefaultPositionalHints()}
}

// NewWithHints creates a parser with a custom positional-parameter table.
func NewWithHints(hints map[string]string) *Parser {
	return &Parser{positional: hints}
}

// Parse returns the invocations found in content, in order of appearance.
// Extraction is best-effort: malformed markers are dropped, duplicates of
// the same tool are preserved as separate invocations.
func (p *Parser) Parse(content string) []Invocation {
	var calls []Invocation
	for _, m := range findMarkers(content) {
		inner := strings.TrimSpace(m.inner)
		name, argText, ok := splitNameAndArgs(inner)
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if !toolNameRe.MatchString(name) {
			continue
		}
		calls = append(calls, Invocation{
			Name:      name,
			Arguments: p.parseArguments(name, argText),
			Raw:       m.raw,
		})
	}
	return calls
}

// splitNameAndArgs splits "name(arg text)" into its parts. A marker with an
// opening paren but no closing one is malformed.
func splitNameAndArgs(inner string) (name, args string, ok bool) {
	open := strings.Index(inner, "(")
	if open == -1 {
		return inner, "", true
	}
	close := strings.LastIndex(inner, ")")
	if close < open {
		return "", "", false
	}
	return inner[:open], inner[open+1 : close], true
}

// parseArguments interprets the argument block. Supported forms:
// a JSON object (repaired when almost-JSON), a comma-separated key=value
// list with optional quoting, or a single positional value mapped through
// the hint table. Unparseable blocks yield empty arguments so the
// invocation still produces an outcome.
func (p *Parser) parseArguments(toolName, argText string) map[string]any {
	argText = strings.TrimSpace(argText)
	if argText == "" {
		return map[string]any{}
	}

	if strings.HasPrefix(argText, "{") {
		if args, ok := parseJSONArgs(argText); ok {
			return args
		}
		return map[string]any{}
	}

	if strings.Contains(argText, "=") {
		return parseKeyValueArgs(argText)
	}

	value := unquote(argText)
	if param, ok := p.positional[toolName]; ok {
		return map[string]any{param: value}
	}
	if toolName == "joke" {
		return map[string]any{}
	}
	return map[string]any{"query": value}
}

func parseJSONArgs(argText string) (map[string]any, bool) {
	var args map[string]any
	if err := json.Unmarshal([]byte(argText), &args); err == nil {
		return args, true
	}
	repaired, err := jsonrepair.JSONRepair(argText)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return nil, false
	}
	return args, true
}

// parseKeyValueArgs splits "a=1, b="two words"" respecting quotes, so
// string values may contain spaces and commas.
func parseKeyValueArgs(argText string) map[string]any {
	args := make(map[string]any)
	for _, pair := range splitTopLevel(argText, ',') {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		eq := strings.Index(pair, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(pair[:eq])
		value := unquote(strings.TrimSpace(pair[eq+1:]))
		if key == "" {
			continue
		}
		args[key] = value
	}
	return args
}

// splitTopLevel splits on sep outside single or double quotes.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		start int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Strip removes every well-formed tool marker from content, used when
// composing the final answer.
func Strip(content string) string {
	for _, m := range findMarkers(content) {
		content = strings.Replace(content, m.raw, "", 1)
	}
	return strings.TrimSpace(content)
}

// Thought returns the text before the first tool marker, the model's
// reasoning trace. Without markers the whole content is the thought.
func Thought(content string) string {
	markers := findMarkers(content)
	if len(markers) == 0 {
		return strings.TrimSpace(content)
	}
	thought := strings.TrimSpace(content[:markers[0].start])
	if thought == "" {
		return "Let me help you with that."
	}
	return thought
}
