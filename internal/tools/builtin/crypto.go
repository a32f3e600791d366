package builtin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"tinygpt/internal/tool"
)

// symbolAliases maps ticker shorthands to CoinGecko coin ids.
var symbolAliases = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"doge": "dogecoin",
	"ada":  "cardano",
	"dot":  "polkadot",
}

type crypto struct {
	cfg Config
}

// NewCrypto returns the price-lookup tool backed by CoinGecko.
func NewCrypto(cfg Config) tool.Executor {
	return &crypto{cfg: cfg}
}

func (t *crypto) Metadata() tool.Metadata {
	return tool.Metadata{Name: "crypto", Version: "1.0.0", Category: "finance"}
}

func (t *crypto) Definition() tool.Definition {
	return tool.Definition{
		Name:        "crypto",
		Description: "Get current cryptocurrency prices and 24h changes",
		Parameters: tool.ParameterSchema{
			Type: "object",
			Properties: map[string]tool.Property{
				"symbol": {Type: "string", Description: "Cryptocurrency symbol (e.g., bitcoin, ethereum, btc, eth)", Default: "bitcoin"},
			},
		},
	}
}

type coinQuote struct {
	USD       float64 `json:"usd"`
	EUR       float64 `json:"eur"`
	Change24h float64 `json:"usd_24h_change"`
}

func (t *crypto) Execute(ctx context.Context, call tool.Call) (*tool.Result, error) {
	symbol := strings.ToLower(stringArg(call.Arguments, "symbol", "coin"))
	if symbol == "" {
		symbol = "bitcoin"
	}
	if canonical, ok := symbolAliases[symbol]; ok {
		symbol = canonical
	}

	query := url.Values{}
	query.Set("ids", symbol)
	query.Set("vs_currencies", "usd,eur")
	query.Set("include_24hr_change", "true")

	payload := map[string]coinQuote{}
	if err := fetchJSON(ctx, t.cfg, t.cfg.CryptoBaseURL, query, &payload); err != nil {
		t.cfg.Logger.Warn("crypto upstream failed for %q: %v", symbol, err)
		return t.demo(call, symbol), nil
	}
	quote, ok := payload[symbol]
	if !ok {
		return t.demo(call, symbol), nil
	}

	content := fmt.Sprintf("%s: $%.2f (€%.2f), 24h change %+.2f%%",
		titleCase(symbol), quote.USD, quote.EUR, quote.Change24h)
	return &tool.Result{
		CallID:  call.ID,
		Content: content,
		Value: map[string]any{
			"symbol":     strings.ToUpper(symbol),
			"name":       titleCase(symbol),
			"price_usd":  fmt.Sprintf("$%.2f", quote.USD),
			"price_eur":  fmt.Sprintf("€%.2f", quote.EUR),
			"change_24h": fmt.Sprintf("%+.2f%%", quote.Change24h),
		},
	}, nil
}

var demoQuotes = map[string][2]string{
	"bitcoin":  {"$45,123.45", "+2.34%"},
	"ethereum": {"$2,456.78", "-1.23%"},
	"dogecoin": {"$0.08", "+5.67%"},
}

func (t *crypto) demo(call tool.Call, symbol string) *tool.Result {
	quote, ok := demoQuotes[symbol]
	if !ok {
		quote = [2]string{"$1,234.56", "+0.00%"}
	}
	return &tool.Result{
		CallID:  call.ID,
		Content: fmt.Sprintf("%s: %s, 24h change %s", titleCase(symbol), quote[0], quote[1]),
		Value: map[string]any{
			"symbol":     strings.ToUpper(symbol),
			"name":       titleCase(symbol),
			"price_usd":  quote[0],
			"change_24h": quote[1],
			"status":     "demo_data",
		},
	}
}
