// Package builtin provides the stock tool set: weather, crypto prices,
// Wikipedia summaries, web search, jokes and news headlines. Every tool
// degrades to canned demo data when its upstream is unreachable, so a
// turn keeps working offline.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	tinyerrors "tinygpt/internal/errors"
	"tinygpt/internal/logging"
	"tinygpt/internal/tool"
	"tinygpt/internal/toolregistry"
)

// Config carries upstream endpoints and credentials. Zero values fall back
// to the public production endpoints; tests point them at local servers.
type Config struct {
	HTTPClient *http.Client
	Logger     logging.Logger

	WeatherBaseURL string
	WeatherAPIKey  string
	CryptoBaseURL  string
	WikiBaseURL    string
	SearchBaseURL  string
	JokeBaseURL    string
	NewsBaseURL    string
	NewsAPIKey     string
	NewsScrapeURL  string

	Retry tinyerrors.RetryConfig
}

func (c *Config) applyDefaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	c.Logger = logging.OrNop(c.Logger)
	if c.WeatherBaseURL == "" {
		c.WeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	if c.CryptoBaseURL == "" {
		c.CryptoBaseURL = "https://api.coingecko.com/api/v3/simple/price"
	}
	if c.WikiBaseURL == "" {
		c.WikiBaseURL = "https://en.wikipedia.org/api/rest_v1/page/summary"
	}
	if c.SearchBaseURL == "" {
		c.SearchBaseURL = "https://api.duckduckgo.com/"
	}
	if c.JokeBaseURL == "" {
		c.JokeBaseURL = "https://v2.jokeapi.dev/joke"
	}
	if c.NewsBaseURL == "" {
		c.NewsBaseURL = "https://newsapi.org/v2/everything"
	}
	if c.NewsScrapeURL == "" {
		c.NewsScrapeURL = "https://news.ycombinator.com/"
	}
	if c.Retry.MaxAttempts == 0 && c.Retry.BaseDelay == 0 {
		c.Retry = tinyerrors.DefaultRetryConfig()
	}
}

// RegisterAll registers the stock tools with the registry.
func RegisterAll(registry *toolregistry.Registry, cfg Config) error {
	cfg.applyDefaults()
	for _, executor := range []tool.Executor{
		NewWeather(cfg),
		NewCrypto(cfg),
		NewWiki(cfg),
		NewSearch(cfg),
		NewJoke(cfg),
		NewNews(cfg),
	} {
		if err := registry.Register(executor); err != nil {
			return fmt.Errorf("register %s: %w", executor.Metadata().Name, err)
		}
	}
	return nil
}

// fetchJSON performs a GET with retries on transient failures and decodes
// the body into out. Non-2xx statuses come back classified so the retry
// loop can tell a 503 from a 404.
func fetchJSON(ctx context.Context, cfg Config, rawURL string, query url.Values, out any) error {
	return tinyerrors.Retry(ctx, cfg.Retry, cfg.Logger, func(ctx context.Context) error {
		target := rawURL
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return &tinyerrors.PermanentError{Err: err}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := cfg.HTTPClient.Do(req)
		if err != nil {
			return &tinyerrors.TransientError{Err: err}
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return tinyerrors.FromHTTPStatus(resp.StatusCode,
				fmt.Errorf("%s returned %d: %s", rawURL, resp.StatusCode, body))
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

func stringArg(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := args[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
