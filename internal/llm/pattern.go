package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// intentPatterns maps a tool name to the prompt keywords that suggest it.
var intentPatterns = []struct {
	tool     string
	keywords []string
}{
	{"weather", []string{"weather", "temperature", "forecast", "climate", "rain", "sunny", "cloudy"}},
	{"crypto", []string{"price", "crypto", "bitcoin", "ethereum", "btc", "eth", "coin", "cryptocurrency"}},
	{"wiki", []string{"wikipedia", "wiki", "information about", "tell me about", "summary", "explain"}},
	{"search", []string{"search", "find", "look up", "who won", "latest", "recent"}},
	{"joke", []string{"joke", "funny", "humor", "laugh", "amusing", "comedy"}},
	{"news", []string{"news", "headlines", "current events", "breaking"}},
}

var intentReplies = map[string]string{
	"weather": "Let me check the weather information for you. <tool>weather</tool>",
	"crypto":  "I'll get the latest cryptocurrency prices. <tool>crypto</tool>",
	"wiki":    "Let me search Wikipedia for that information. <tool>wiki</tool>",
	"search":  "I'll search for the latest information on that. <tool>search</tool>",
	"joke":    "Here's a joke for you! <tool>joke</tool>",
	"news":    "Let me get the latest news on that topic. <tool>news</tool>",
}

// PatternGenerator is the self-contained fallback backend: it detects
// intent from prompt keywords and emits a reply carrying the matching tool
// markers. It keeps the service usable without any external model.
type PatternGenerator struct{}

func NewPatternGenerator() *PatternGenerator { return &PatternGenerator{} }

func (g *PatternGenerator) Model() Metadata {
	return Metadata{Name: "tinygpt-pattern", Backend: "pattern"}
}

func (g *PatternGenerator) Generate(ctx context.Context, req Request) (*Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	detected := DetectIntents(req.Prompt)
	text := composeReply(detected)

	return &Generation{
		Text:       text,
		Model:      g.Model(),
		TokensUsed: CountTokens(text),
		Elapsed:    time.Since(start),
	}, nil
}

// DetectIntents returns the tools whose keywords appear in the prompt, in
// the stable pattern-table order; search is the default when nothing hits.
func DetectIntents(prompt string) []string {
	lower := strings.ToLower(prompt)
	var detected []string
	for _, pattern := range intentPatterns {
		for _, keyword := range pattern.keywords {
			if strings.Contains(lower, keyword) {
				detected = append(detected, pattern.tool)
				break
			}
		}
	}
	if len(detected) == 0 {
		detected = []string{"search"}
	}
	return detected
}

func composeReply(tools []string) string {
	if len(tools) == 1 {
		return intentReplies[tools[0]]
	}
	markers := make([]string, len(tools))
	for i, name := range tools {
		markers[i] = fmt.Sprintf("<tool>%s</tool>", name)
	}
	return "I'll help you with that by using multiple tools. " + strings.Join(markers, " ")
}
