package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tinyerrors "tinygpt/internal/errors"
	"tinygpt/internal/logging"
)

const systemPrompt = `You are TinyGPT, an assistant with access to external tools.
To use a tool, emit a marker like <tool>weather(location=Paris)</tool> inside your reply.
Available tools: weather, crypto, wiki, search, joke, news.`

// OpenAIConfig configures the chat-completions client.
type OpenAIConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// openaiGenerator speaks the OpenAI-compatible chat completions API.
type openaiGenerator struct {
	config OpenAIConfig
	client *http.Client
	logger logging.Logger
}

// NewOpenAIGenerator constructs a generator for any OpenAI-compatible
// endpoint (OpenAI, OpenRouter, a local llama.cpp server, ...).
func NewOpenAIGenerator(config OpenAIConfig) Generator {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 500
	}
	return &openaiGenerator{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logging.NewComponentLogger("OpenAIGenerator"),
	}
}

func (g *openaiGenerator) Model() Metadata {
	return Metadata{Name: g.config.Model, Backend: "openai-compatible"}
}

func (g *openaiGenerator) Generate(ctx context.Context, req Request) (*Generation, error) {
	start := time.Now()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.config.MaxTokens
	}
	payload := map[string]any{
		"model": g.config.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": req.Prompt},
		},
		"temperature": req.Temperature,
		"max_tokens":  maxTokens,
		"stream":      false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(g.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Error("generation request failed: %v", err)
		return nil, fmt.Errorf("generation backend unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Error("generation backend returned %d: %s", resp.StatusCode, truncate(string(respBody), 300))
		return nil, tinyerrors.FromHTTPStatus(resp.StatusCode, fmt.Errorf("generation backend error"))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("generation backend returned no choices")
	}

	text := parsed.Choices[0].Message.Content
	tokens := parsed.Usage.CompletionTokens
	if tokens == 0 {
		tokens = CountTokens(text)
	}

	return &Generation{
		Text:       text,
		Model:      g.Model(),
		TokensUsed: tokens,
		Elapsed:    time.Since(start),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
