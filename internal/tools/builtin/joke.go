package builtin

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"

	"tinygpt/internal/tool"
)

var fallbackJokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs!",
	"Why don't scientists trust atoms? Because they make up everything!",
	"How do you organize a space party? You planet!",
	"Why did the scarecrow win an award? He was outstanding in his field!",
	"What do you call a fake noodle? An impasta!",
}

type joke struct {
	cfg Config
}

// NewJoke returns the entertainment tool backed by JokeAPI.
func NewJoke(cfg Config) tool.Executor {
	return &joke{cfg: cfg}
}

func (t *joke) Metadata() tool.Metadata {
	return tool.Metadata{Name: "joke", Version: "1.0.0", Category: "entertainment"}
}

func (t *joke) Definition() tool.Definition {
	return tool.Definition{
		Name:        "joke",
		Description: "Get a random clean joke for entertainment",
		Parameters: tool.ParameterSchema{
			Type: "object",
			Properties: map[string]tool.Property{
				"category": {
					Type:        "string",
					Description: "Joke category (Programming, Miscellaneous, Pun, Spooky, Christmas)",
					Default:     "Any",
				},
			},
		},
	}
}

type jokeResponse struct {
	Type     string `json:"type"`
	Joke     string `json:"joke"`
	Setup    string `json:"setup"`
	Delivery string `json:"delivery"`
}

func (t *joke) Execute(ctx context.Context, call tool.Call) (*tool.Result, error) {
	category := stringArg(call.Arguments, "category")
	if category == "" {
		category = "Any"
	}

	target := strings.TrimRight(t.cfg.JokeBaseURL, "/") + "/" + category
	params := url.Values{}
	params.Set("blacklistFlags", "nsfw,religious,political,racist,sexist,explicit")

	var payload jokeResponse
	if err := fetchJSON(ctx, t.cfg, target, params, &payload); err != nil {
		t.cfg.Logger.Warn("joke upstream failed: %v", err)
		return t.demo(call), nil
	}

	var text string
	switch payload.Type {
	case "single":
		text = payload.Joke
	case "twopart":
		text = fmt.Sprintf("%s %s", payload.Setup, payload.Delivery)
	}
	if text == "" {
		return t.demo(call), nil
	}
	return &tool.Result{CallID: call.ID, Content: text, Value: map[string]any{"joke": text}}, nil
}

func (t *joke) demo(call tool.Call) *tool.Result {
	text := fallbackJokes[rand.Intn(len(fallbackJokes))]
	return &tool.Result{
		CallID:  call.ID,
		Content: text,
		Value:   map[string]any{"joke": text, "status": "demo_data"},
	}
}
