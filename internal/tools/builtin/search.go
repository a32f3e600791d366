package builtin

import (
	"context"
	"fmt"
	"net/url"

	"tinygpt/internal/tool"
)

type search struct {
	cfg Config
}

// NewSearch returns the web-search tool backed by the DuckDuckGo instant
// answer API.
func NewSearch(cfg Config) tool.Executor {
	return &search{cfg: cfg}
}

func (t *search) Metadata() tool.Metadata {
	return tool.Metadata{Name: "search", Version: "1.0.0", Category: "information"}
}

func (t *search) Definition() tool.Definition {
	return tool.Definition{
		Name:        "search",
		Description: "Search the web for information using DuckDuckGo",
		Parameters: tool.ParameterSchema{
			Type: "object",
			Properties: map[string]tool.Property{
				"query": {Type: "string", Description: "Search query or question", Default: "latest news"},
			},
		},
	}
}

type searchResponse struct {
	AbstractText   string `json:"AbstractText"`
	AbstractSource string `json:"AbstractSource"`
	AbstractURL    string `json:"AbstractURL"`
	RelatedTopics  []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (t *search) Execute(ctx context.Context, call tool.Call) (*tool.Result, error) {
	query := stringArg(call.Arguments, "query", "q")
	if query == "" {
		query = "latest news"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	var payload searchResponse
	if err := fetchJSON(ctx, t.cfg, t.cfg.SearchBaseURL, params, &payload); err != nil {
		t.cfg.Logger.Warn("search upstream failed for %q: %v", query, err)
		return t.demo(call, query), nil
	}

	// Instant answer beats related topics.
	if payload.AbstractText != "" {
		source := payload.AbstractSource
		if source == "" {
			source = "DuckDuckGo"
		}
		return &tool.Result{
			CallID:  call.ID,
			Content: payload.AbstractText,
			Value: map[string]any{
				"query":  query,
				"result": payload.AbstractText,
				"source": source,
				"url":    payload.AbstractURL,
				"type":   "instant_answer",
			},
		}, nil
	}
	for _, topic := range payload.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		return &tool.Result{
			CallID:  call.ID,
			Content: topic.Text,
			Value: map[string]any{
				"query":  query,
				"result": topic.Text,
				"source": "DuckDuckGo",
				"url":    topic.FirstURL,
				"type":   "related_topic",
			},
		}, nil
	}
	return t.demo(call, query), nil
}

func (t *search) demo(call tool.Call, query string) *tool.Result {
	result := fmt.Sprintf("Search results for '%s': This is a demonstration search result. In production, this would contain actual results from the DuckDuckGo API.", query)
	return &tool.Result{
		CallID:  call.ID,
		Content: result,
		Value: map[string]any{
			"query":  query,
			"result": result,
			"source": "DuckDuckGo (demo)",
			"type":   "demo_result",
			"status": "demo_data",
		},
	}
}
