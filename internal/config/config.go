// Package config loads service configuration from an optional YAML file
// and TINYGPT_* environment variables, with environment taking precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type LLMConfig struct {
	// Backend selects the generator: "openai" or "pattern".
	Backend     string        `mapstructure:"backend"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

type RateLimitConfig struct {
	ChatPerMinute int `mapstructure:"chat_per_minute"`
	AuthPerMinute int `mapstructure:"auth_per_minute"`
}

type ToolsConfig struct {
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	TurnTimeout    time.Duration `mapstructure:"turn_timeout"`
	WeatherAPIKey  string        `mapstructure:"weather_api_key"`
	NewsAPIKey     string        `mapstructure:"news_api_key"`
	Disabled       []string      `mapstructure:"disabled"`
	WeatherBaseURL string        `mapstructure:"weather_base_url"`
	CryptoBaseURL  string        `mapstructure:"crypto_base_url"`
	WikiBaseURL    string        `mapstructure:"wiki_base_url"`
	SearchBaseURL  string        `mapstructure:"search_base_url"`
	JokeBaseURL    string        `mapstructure:"joke_base_url"`
	NewsBaseURL    string        `mapstructure:"news_base_url"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxSize int           `mapstructure:"max_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type AuthConfig struct {
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

// Load reads configuration. path may be empty, in which case only
// defaults, tinygpt.yaml in the working directory, and environment
// variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TINYGPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("tinygpt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tinygpt")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("llm.backend", "pattern")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("ratelimit.chat_per_minute", 30)
	v.SetDefault("ratelimit.auth_per_minute", 5)

	v.SetDefault("tools.max_concurrent", 5)
	v.SetDefault("tools.timeout", 30*time.Second)
	v.SetDefault("tools.turn_timeout", time.Duration(0))

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 256)
	v.SetDefault("cache.ttl", 2*time.Minute)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	switch c.LLM.Backend {
	case "openai", "pattern":
	default:
		return fmt.Errorf("config: unknown llm backend %q", c.LLM.Backend)
	}
	if c.LLM.Backend == "openai" && c.LLM.APIKey == "" {
		return fmt.Errorf("config: llm.api_key is required for the openai backend")
	}
	if c.RateLimit.ChatPerMinute < 0 || c.RateLimit.AuthPerMinute < 0 {
		return fmt.Errorf("config: rate limits must not be negative")
	}
	if c.Tools.MaxConcurrent <= 0 {
		return fmt.Errorf("config: tools.max_concurrent must be positive")
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
