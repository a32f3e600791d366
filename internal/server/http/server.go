// Package http exposes the chat service over a REST API: chat turns,
// tool management, account registration and login, health and metrics.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tinygpt/internal/auth"
	"tinygpt/internal/logging"
	"tinygpt/internal/observability"
	"tinygpt/internal/orchestrator"
	"tinygpt/internal/ratelimit"
	"tinygpt/internal/toolregistry"
)

// Config configures the HTTP server.
type Config struct {
	Host            string
	Port            int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	Debug           bool
}

// Server wires the orchestrator, registry and auth service behind gin.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	orch     *orchestrator.Orchestrator
	registry *toolregistry.Registry
	authSvc  *auth.Service
	limiter  *ratelimit.Limiter
	metrics  *observability.MetricsCollector
	logger   logging.Logger

	startTime time.Time
	cfg       Config
}

func NewServer(
	cfg Config,
	orch *orchestrator.Orchestrator,
	registry *toolregistry.Registry,
	authSvc *auth.Service,
	limiter *ratelimit.Limiter,
	metrics *observability.MetricsCollector,
	logger logging.Logger,
) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	server := &Server{
		engine:    engine,
		orch:      orch,
		registry:  registry,
		authSvc:   authSvc,
		limiter:   limiter,
		metrics:   metrics,
		logger:    logging.OrNop(logger),
		startTime: time.Now(),
		cfg:       cfg,
	}
	server.engine.Use(server.requestLogger())
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return server
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.engine.Group("/api")
	api.Use(s.resolveIdentity())

	api.POST("/chat", s.handleChat)
	api.GET("/tools", s.handleListTools)
	api.PUT("/tools/:name/enabled", s.handleSetToolEnabled)

	authGroup := api.Group("/auth")
	authGroup.Use(s.authAdmission())
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
