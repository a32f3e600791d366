package builtin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"tinygpt/internal/tool"
)

type weather struct {
	cfg Config
}

// NewWeather returns the current-conditions tool backed by OpenWeatherMap.
func NewWeather(cfg Config) tool.Executor {
	return &weather{cfg: cfg}
}

func (t *weather) Metadata() tool.Metadata {
	return tool.Metadata{Name: "weather", Version: "1.0.0", Category: "information"}
}

func (t *weather) Definition() tool.Definition {
	return tool.Definition{
		Name:        "weather",
		Description: "Get current weather information for any city worldwide",
		Parameters: tool.ParameterSchema{
			Type: "object",
			Properties: map[string]tool.Property{
				"location": {Type: "string", Description: "City name or location to get weather for", Default: "London"},
			},
		},
	}
}

type weatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Pressure int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (t *weather) Execute(ctx context.Context, call tool.Call) (*tool.Result, error) {
	location := stringArg(call.Arguments, "location", "city")
	if location == "" {
		location = "London"
	}

	query := url.Values{}
	query.Set("q", location)
	query.Set("units", "metric")
	if t.cfg.WeatherAPIKey != "" {
		query.Set("appid", t.cfg.WeatherAPIKey)
	}

	var payload weatherResponse
	if err := fetchJSON(ctx, t.cfg, t.cfg.WeatherBaseURL, query, &payload); err != nil || len(payload.Weather) == 0 {
		if err != nil {
			t.cfg.Logger.Warn("weather upstream failed for %q: %v", location, err)
		}
		return t.demo(call, location), nil
	}

	description := titleCase(payload.Weather[0].Description)
	value := map[string]any{
		"location":    payload.Name,
		"temperature": fmt.Sprintf("%.1f°C", payload.Main.Temp),
		"description": description,
		"humidity":    fmt.Sprintf("%d%%", payload.Main.Humidity),
		"pressure":    fmt.Sprintf("%d hPa", payload.Main.Pressure),
		"wind_speed":  fmt.Sprintf("%.1f m/s", payload.Wind.Speed),
	}
	content := fmt.Sprintf("Weather in %s: %s, %.1f°C, humidity %d%%, wind %.1f m/s",
		payload.Name, description, payload.Main.Temp, payload.Main.Humidity, payload.Wind.Speed)
	return &tool.Result{CallID: call.ID, Content: content, Value: value}, nil
}

func (t *weather) demo(call tool.Call, location string) *tool.Result {
	return &tool.Result{
		CallID:  call.ID,
		Content: fmt.Sprintf("Weather in %s: Partly Cloudy, 22.0°C, humidity 65%%, wind 3.2 m/s", location),
		Value: map[string]any{
			"location":    location,
			"temperature": "22°C",
			"description": "Partly Cloudy",
			"humidity":    "65%",
			"pressure":    "1013 hPa",
			"wind_speed":  "3.2 m/s",
			"status":      "demo_data",
		},
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
