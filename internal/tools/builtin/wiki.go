package builtin

import (
	"context"
	"fmt"
	"strings"

	"tinygpt/internal/tool"
)

const wikiExtractLimit = 500

type wiki struct {
	cfg Config
}

// NewWiki returns the topic-summary tool backed by the Wikipedia REST API.
func NewWiki(cfg Config) tool.Executor {
	return &wiki{cfg: cfg}
}

func (t *wiki) Metadata() tool.Metadata {
	return tool.Metadata{Name: "wiki", Version: "1.0.0", Category: "information"}
}

func (t *wiki) Definition() tool.Definition {
	return tool.Definition{
		Name:        "wiki",
		Description: "Get Wikipedia summary and information about any topic",
		Parameters: tool.ParameterSchema{
			Type: "object",
			Properties: map[string]tool.Property{
				"topic": {Type: "string", Description: "Topic to search on Wikipedia", Default: "Artificial Intelligence"},
			},
		},
	}
}

type wikiResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (t *wiki) Execute(ctx context.Context, call tool.Call) (*tool.Result, error) {
	topic := stringArg(call.Arguments, "topic", "query")
	if topic == "" {
		topic = "Artificial Intelligence"
	}

	target := strings.TrimRight(t.cfg.WikiBaseURL, "/") + "/" + strings.ReplaceAll(topic, " ", "_")
	var payload wikiResponse
	if err := fetchJSON(ctx, t.cfg, target, nil, &payload); err != nil || payload.Extract == "" {
		if err != nil {
			t.cfg.Logger.Warn("wiki upstream failed for %q: %v", topic, err)
		}
		return t.demo(call, topic), nil
	}

	extract := payload.Extract
	if len(extract) > wikiExtractLimit {
		extract = extract[:wikiExtractLimit] + "..."
	}
	return &tool.Result{
		CallID:  call.ID,
		Content: fmt.Sprintf("%s: %s", payload.Title, extract),
		Value: map[string]any{
			"title":   payload.Title,
			"summary": extract,
			"url":     payload.ContentURLs.Desktop.Page,
			"source":  "Wikipedia",
		},
	}, nil
}

func (t *wiki) demo(call tool.Call, topic string) *tool.Result {
	summary := fmt.Sprintf("This is a demonstration summary for '%s'. In production, this would contain the actual Wikipedia extract with comprehensive information about the topic.", topic)
	return &tool.Result{
		CallID:  call.ID,
		Content: fmt.Sprintf("%s: %s", topic, summary),
		Value: map[string]any{
			"title":   topic,
			"summary": summary,
			"url":     "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(topic, " ", "_"),
			"source":  "Wikipedia (demo)",
			"status":  "demo_data",
		},
	}
}
