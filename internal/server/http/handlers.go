package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tinygpt/internal/auth"
	"tinygpt/internal/orchestrator"
)

type chatRequest struct {
	Prompt      string  `json:"prompt" binding:"required,min=1,max=2000"`
	Temperature float64 `json:"temperature"`
}

type authRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Username    string `json:"username"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	record, err := s.orch.HandleTurn(c.Request.Context(), orchestrator.TurnRequest{
		Prompt:      req.Prompt,
		Identity:    s.identity(c),
		Temperature: req.Temperature,
	})
	if err != nil {
		s.writeTurnError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) writeTurnError(c *gin.Context, err error) {
	var turnErr *orchestrator.TurnError
	if !errors.As(err, &turnErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}
	switch turnErr.Kind {
	case orchestrator.ErrRateLimited:
		writeRateLimited(c, turnErr.RetryAfter)
	case orchestrator.ErrTurnTimeout:
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"detail":     "turn timed out",
			"tool_calls": turnErr.Outcomes,
		})
	default:
		s.logger.Error("turn failed: %v", turnErr)
		c.JSON(http.StatusBadGateway, gin.H{"detail": "generation backend unavailable"})
	}
}

func (s *Server) handleListTools(c *gin.Context) {
	snapshots := s.registry.List()
	out := make([]gin.H, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, gin.H{
			"name":        snap.Name,
			"description": snap.Definition.Description,
			"parameters":  snap.Definition.Parameters,
			"category":    snap.Category,
			"enabled":     snap.Enabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tools": out})
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) handleSetToolEnabled(c *gin.Context) {
	var req setEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	name := c.Param("name")
	previous, err := s.registry.SetEnabled(name, *req.Enabled)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "unknown tool: " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "enabled": *req.Enabled, "previous": previous})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if _, err := s.authSvc.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"detail": "username already taken"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	s.issueSession(c, req.Username, req.Password)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	s.issueSession(c, req.Username, req.Password)
}

func (s *Server) issueSession(c *gin.Context, username, password string) {
	session, err := s.authSvc.Login(c.Request.Context(), username, password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, authResponse{
		AccessToken: session.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(session.ExpiresAt).Seconds()),
		Username:    session.Username,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"uptime":          time.Since(s.startTime).String(),
		"tools_available": len(s.registry.List()),
	})
}
