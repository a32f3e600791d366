package parser

import (
	"strings"
	"testing"
)

func TestParseNoMarkers(t *testing.T) {
	p := New()
	for _, text := range []string{
		"",
		"plain answer with no tools",
		"angle brackets < tool > but no marker",
		"<tool>weather", // unterminated
	} {
		if calls := p.Parse(text); len(calls) != 0 {
			t.Fatalf("expected no invocations for %q, got %d", text, len(calls))
		}
	}
}

func TestParseSingleMarkerNoArgs(t *testing.T) {
	calls := New().Parse("Here's a joke for you! <tool>joke</tool>")
	if len(calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(calls))
	}
	if calls[0].Name != "joke" {
		t.Fatalf("expected joke, got %s", calls[0].Name)
	}
	if len(calls[0].Arguments) != 0 {
		t.Fatalf("expected empty arguments, got %v", calls[0].Arguments)
	}
}

func TestParsePreservesOrderAndDuplicates(t *testing.T) {
	text := "Checking both. <tool>weather(Paris)</tool> then <tool>crypto(bitcoin)</tool> and again <tool>weather(London)</tool>"
	calls := New().Parse(text)
	if len(calls) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(calls))
	}
	want := []string{"weather", "crypto", "weather"}
	for i, name := range want {
		if calls[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, calls[i].Name)
		}
	}
	if calls[0].Arguments["location"] != "Paris" || calls[2].Arguments["location"] != "London" {
		t.Fatalf("positional arguments not mapped independently: %v %v", calls[0].Arguments, calls[2].Arguments)
	}
}

func TestParseCaseInsensitiveAndTrimmed(t *testing.T) {
	calls := New().Parse("<TOOL>  Weather ( Paris ) </TOOL>")
	if len(calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(calls))
	}
	if calls[0].Name != "weather" {
		t.Fatalf("expected lowercase trimmed name, got %q", calls[0].Name)
	}
	if calls[0].Arguments["location"] != "Paris" {
		t.Fatalf("expected trimmed positional value, got %v", calls[0].Arguments)
	}
}

func TestParseKeyValueArguments(t *testing.T) {
	calls := New().Parse(`<tool>news(topic="machine learning", limit=3)</tool>`)
	if len(calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(calls))
	}
	args := calls[0].Arguments
	if args["topic"] != "machine learning" {
		t.Fatalf("quoted value with spaces not preserved: %v", args["topic"])
	}
	if args["limit"] != "3" {
		t.Fatalf("expected raw string value (coercion is downstream), got %v", args["limit"])
	}
}

func TestParseQuotedValueWithComma(t *testing.T) {
	calls := New().Parse(`<tool>weather(location="Washington, DC")</tool>`)
	if len(calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(calls))
	}
	if calls[0].Arguments["location"] != "Washington, DC" {
		t.Fatalf("comma inside quotes split incorrectly: %v", calls[0].Arguments)
	}
}

func TestParseJSONArguments(t *testing.T) {
	calls := New().Parse(`<tool>search({"query": "go generics", "max_results": 5})</tool>`)
	if len(calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(calls))
	}
	args := calls[0].Arguments
	if args["query"] != "go generics" {
		t.Fatalf("expected query from JSON, got %v", args)
	}
	if args["max_results"] != float64(5) {
		t.Fatalf("expected numeric from JSON, got %T", args["max_results"])
	}
}

func TestParseRepairsAlmostJSON(t *testing.T) {
	// trailing comma and single quotes, the kind of JSON models emit
	calls := New().Parse(`<tool>search({'query': 'rust vs go',})</tool>`)
	if len(calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(calls))
	}
	if calls[0].Arguments["query"] != "rust vs go" {
		t.Fatalf("repair did not recover arguments: %v", calls[0].Arguments)
	}
}

func TestParseMalformedMarkersSkipped(t *testing.T) {
	text := strings.Join([]string{
		"<tool>weather(</tool>",      // open paren never closed
		"<tool>123bad</tool>",        // invalid name
		"<tool>crypto(eth)</tool>",   // valid
		"<tool>weather(Paris)",       // unterminated marker
		"<tool></tool>",              // empty name
	}, " ")
	calls := New().Parse(text)
	if len(calls) != 1 {
		t.Fatalf("expected only the valid invocation, got %d: %+v", len(calls), calls)
	}
	if calls[0].Name != "crypto" || calls[0].Arguments["symbol"] != "eth" {
		t.Fatalf("unexpected surviving invocation: %+v", calls[0])
	}
}

func TestParseUnterminatedMarkerDoesNotBleed(t *testing.T) {
	// The unterminated weather marker must not capture the following
	// marker's delimiter and turn into a spurious invocation.
	if calls := New().Parse("<tool>weather(Paris) <tool></tool>"); len(calls) != 0 {
		t.Fatalf("expected no invocations, got %d: %+v", len(calls), calls)
	}

	calls := New().Parse("<tool>weather(Paris) <tool>crypto(eth)</tool> done")
	if len(calls) != 1 {
		t.Fatalf("expected only the terminated invocation, got %d: %+v", len(calls), calls)
	}
	if calls[0].Name != "crypto" || calls[0].Arguments["symbol"] != "eth" {
		t.Fatalf("unexpected surviving invocation: %+v", calls[0])
	}
	if calls[0].Raw != "<tool>crypto(eth)</tool>" {
		t.Fatalf("raw span includes the unterminated prefix: %q", calls[0].Raw)
	}
}

func TestParseUnknownToolPositionalFallsBackToQuery(t *testing.T) {
	calls := New().Parse("<tool>translate(bonjour)</tool>")
	if len(calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(calls))
	}
	if calls[0].Arguments["query"] != "bonjour" {
		t.Fatalf("expected query fallback, got %v", calls[0].Arguments)
	}
}

func TestThoughtAndStrip(t *testing.T) {
	text := "Let me check that. <tool>weather(Paris)</tool> Done."
	if got := Thought(text); got != "Let me check that." {
		t.Fatalf("unexpected thought: %q", got)
	}
	if got := Strip(text); got != "Let me check that.  Done." && got != "Let me check that. Done." {
		t.Fatalf("unexpected stripped text: %q", got)
	}
	if got := Thought("<tool>joke</tool>"); got != "Let me help you with that." {
		t.Fatalf("expected placeholder thought, got %q", got)
	}
	if got := Thought("no markers at all"); got != "no markers at all" {
		t.Fatalf("expected full text as thought, got %q", got)
	}
}
