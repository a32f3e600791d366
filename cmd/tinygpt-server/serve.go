package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tinygpt/internal/auth"
	"tinygpt/internal/config"
	"tinygpt/internal/llm"
	"tinygpt/internal/logging"
	"tinygpt/internal/observability"
	"tinygpt/internal/orchestrator"
	"tinygpt/internal/parser"
	"tinygpt/internal/ratelimit"
	httpserver "tinygpt/internal/server/http"
	"tinygpt/internal/tools/builtin"
	"tinygpt/internal/toolregistry"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	logger := logging.NewComponentLogger("Main")
	logger.Info("starting tinygpt-server %s", version)

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(ratelimit.Config{
		Classes: map[ratelimit.ActionClass]ratelimit.ClassConfig{
			ratelimit.ClassChat: {Limit: cfg.RateLimit.ChatPerMinute, Window: time.Minute},
			ratelimit.ClassAuth: {Limit: cfg.RateLimit.AuthPerMinute, Window: time.Minute},
		},
	})

	generator, err := buildGenerator(cfg)
	if err != nil {
		return err
	}
	logger.Info("generation backend: %s", generator.Model().Backend)

	metrics, err := observability.NewMetricsCollector(observability.Config{Enabled: cfg.Metrics.Enabled})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	opts := []orchestrator.Option{orchestrator.WithRecorder(metrics)}
	if cfg.Cache.Enabled {
		cache, err := toolregistry.NewResultCache(toolregistry.CacheConfig{
			MaxSize:      cfg.Cache.MaxSize,
			TTL:          cfg.Cache.TTL,
			ExcludeTools: []string{"joke"},
		})
		if err != nil {
			return fmt.Errorf("init result cache: %w", err)
		}
		opts = append(opts, orchestrator.WithCache(cache))
	}

	orch := orchestrator.New(limiter, generator, parser.New(), registry, orchestrator.Config{
		MaxConcurrentTools: cfg.Tools.MaxConcurrent,
		ToolTimeout:        cfg.Tools.Timeout,
		TurnTimeout:        cfg.Tools.TurnTimeout,
	}, opts...)

	secret := cfg.Auth.TokenSecret
	if secret == "" {
		logger.Warn("auth.token_secret not set, issued tokens will not survive restarts")
		secret = fmt.Sprintf("ephemeral-%d", time.Now().UnixNano())
	}
	authSvc := auth.NewService(auth.NewMemoryStore(), auth.Config{
		TokenSecret: secret,
		TokenTTL:    cfg.Auth.TokenTTL,
	}, logging.NewComponentLogger("Auth"))

	server := httpserver.NewServer(httpserver.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, orch, registry, authSvc, limiter, metrics, logging.NewComponentLogger("HTTP"))

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("received %v, shutting down", sig)
	}
	if err := server.Stop(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func buildRegistry(cfg *config.Config, logger logging.Logger) (*toolregistry.Registry, error) {
	registry := toolregistry.New()
	err := builtin.RegisterAll(registry, builtin.Config{
		Logger:         logging.NewComponentLogger("Tools"),
		WeatherAPIKey:  cfg.Tools.WeatherAPIKey,
		NewsAPIKey:     cfg.Tools.NewsAPIKey,
		WeatherBaseURL: cfg.Tools.WeatherBaseURL,
		CryptoBaseURL:  cfg.Tools.CryptoBaseURL,
		WikiBaseURL:    cfg.Tools.WikiBaseURL,
		SearchBaseURL:  cfg.Tools.SearchBaseURL,
		JokeBaseURL:    cfg.Tools.JokeBaseURL,
		NewsBaseURL:    cfg.Tools.NewsBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	for _, name := range cfg.Tools.Disabled {
		if _, err := registry.SetEnabled(name, false); err != nil {
			logger.Warn("cannot disable unknown tool %q", name)
			continue
		}
		logger.Info("tool %s disabled by config", name)
	}
	return registry, nil
}

func buildGenerator(cfg *config.Config) (llm.Generator, error) {
	switch cfg.LLM.Backend {
	case "openai":
		return llm.NewOpenAIGenerator(llm.OpenAIConfig{
			BaseURL:   cfg.LLM.BaseURL,
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			Timeout:   cfg.LLM.Timeout,
			MaxTokens: cfg.LLM.MaxTokens,
		}), nil
	case "pattern":
		return llm.NewPatternGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.LLM.Backend)
	}
}
