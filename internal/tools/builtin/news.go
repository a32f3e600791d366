package builtin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tinygpt/internal/tool"
)

const newsPageSize = 3

type news struct {
	cfg Config
}

// NewNews returns the headlines tool. It asks NewsAPI first, scrapes the
// configured HTML front page when the API is unavailable, and falls back
// to demo data when both fail.
func NewNews(cfg Config) tool.Executor {
	return &news{cfg: cfg}
}

func (t *news) Metadata() tool.Metadata {
	return tool.Metadata{Name: "news", Version: "1.0.0", Category: "information"}
}

func (t *news) Definition() tool.Definition {
	return tool.Definition{
		Name:        "news",
		Description: "Get latest news articles on any topic",
		Parameters: tool.ParameterSchema{
			Type: "object",
			Properties: map[string]tool.Property{
				"topic": {Type: "string", Description: "News topic or keyword to search for", Default: "technology"},
			},
		},
	}
}

type newsResponse struct {
	TotalResults int `json:"totalResults"`
	Articles     []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (t *news) Execute(ctx context.Context, call tool.Call) (*tool.Result, error) {
	topic := stringArg(call.Arguments, "topic", "query")
	if topic == "" {
		topic = "technology"
	}

	if result := t.fromAPI(ctx, call, topic); result != nil {
		return result, nil
	}
	if result := t.fromScrape(ctx, call, topic); result != nil {
		return result, nil
	}
	return t.demo(call, topic), nil
}

func (t *news) fromAPI(ctx context.Context, call tool.Call, topic string) *tool.Result {
	if t.cfg.NewsAPIKey == "" {
		return nil
	}

	params := url.Values{}
	params.Set("q", topic)
	params.Set("apiKey", t.cfg.NewsAPIKey)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprint(newsPageSize))

	var payload newsResponse
	if err := fetchJSON(ctx, t.cfg, t.cfg.NewsBaseURL, params, &payload); err != nil || len(payload.Articles) == 0 {
		if err != nil {
			t.cfg.Logger.Warn("news upstream failed for %q: %v", topic, err)
		}
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Latest news on %s:\n", topic)
	articles := make([]map[string]any, 0, newsPageSize)
	for i, article := range payload.Articles {
		if i == newsPageSize {
			break
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, article.Title, article.Source.Name)
		articles = append(articles, map[string]any{
			"title":       article.Title,
			"description": article.Description,
			"source":      article.Source.Name,
			"url":         article.URL,
			"published":   article.PublishedAt,
		})
	}
	return &tool.Result{
		CallID:  call.ID,
		Content: strings.TrimSpace(b.String()),
		Value: map[string]any{
			"topic":         topic,
			"articles":      articles,
			"total_results": payload.TotalResults,
		},
	}
}

// fromScrape pulls headline links off the configured front page. Keyless
// deployments get real headlines this way instead of demo text.
func (t *news) fromScrape(ctx context.Context, call tool.Call, topic string) *tool.Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.NewsScrapeURL, nil)
	if err != nil {
		return nil
	}
	resp, err := t.cfg.HTTPClient.Do(req)
	if err != nil {
		t.cfg.Logger.Warn("news scrape failed: %v", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil
	}

	var headlines []map[string]any
	doc.Find("span.titleline > a, a.storylink, h2 a, h3 a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return true
		}
		href, _ := sel.Attr("href")
		headlines = append(headlines, map[string]any{"title": title, "url": href})
		return len(headlines) < newsPageSize
	})
	if len(headlines) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top headlines:\n")
	for i, h := range headlines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h["title"])
	}
	return &tool.Result{
		CallID:  call.ID,
		Content: strings.TrimSpace(b.String()),
		Value: map[string]any{
			"topic":    topic,
			"articles": headlines,
			"source":   "scrape",
		},
	}
}

func (t *news) demo(call tool.Call, topic string) *tool.Result {
	title := fmt.Sprintf("Latest developments in %s", topic)
	return &tool.Result{
		CallID:  call.ID,
		Content: fmt.Sprintf("Latest news on %s:\n1. %s (Demo News)", topic, title),
		Value: map[string]any{
			"topic": topic,
			"articles": []map[string]any{{
				"title":       title,
				"description": fmt.Sprintf("This is a demonstration news article about %s.", topic),
				"source":      "Demo News",
				"url":         "https://example.com/news",
			}},
			"total_results": 1,
			"status":        "demo_data",
		},
	}
}
