package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tinygpt/internal/auth"
	"tinygpt/internal/llm"
	"tinygpt/internal/orchestrator"
	"tinygpt/internal/parser"
	"tinygpt/internal/ratelimit"
	"tinygpt/internal/tool"
	"tinygpt/internal/toolregistry"
)

type fixedTool struct {
	name     string
	param    string
	fallback string
}

func (f *fixedTool) Execute(_ context.Context, call tool.Call) (*tool.Result, error) {
	return &tool.Result{
		CallID:  call.ID,
		Content: fmt.Sprintf("%s result for %v", f.name, call.Arguments[f.param]),
	}, nil
}

func (f *fixedTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        f.name,
		Description: f.name + " test tool",
		Parameters: tool.ParameterSchema{
			Type: "object",
			Properties: map[string]tool.Property{
				f.param: {Type: "string", Default: f.fallback},
			},
		},
	}
}

func (f *fixedTool) Metadata() tool.Metadata {
	return tool.Metadata{Name: f.name, Version: "test", Category: "test"}
}

type testEnv struct {
	server  *Server
	limiter *ratelimit.Limiter
	authSvc *auth.Service
}

func newTestEnv(t *testing.T, chatLimit, authLimit int) *testEnv {
	t.Helper()

	registry := toolregistry.New()
	for _, executor := range []tool.Executor{
		&fixedTool{name: "weather", param: "location", fallback: "London"},
		&fixedTool{name: "crypto", param: "symbol", fallback: "bitcoin"},
	} {
		if err := registry.Register(executor); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	limiter := ratelimit.New(ratelimit.Config{
		Classes: map[ratelimit.ActionClass]ratelimit.ClassConfig{
			ratelimit.ClassChat: {Limit: chatLimit, Window: time.Minute},
			ratelimit.ClassAuth: {Limit: authLimit, Window: time.Minute},
		},
	})

	orch := orchestrator.New(limiter, llm.NewPatternGenerator(), parser.New(), registry, orchestrator.DefaultConfig())
	authSvc := auth.NewService(auth.NewMemoryStore(), auth.Config{TokenSecret: "test-secret", TokenTTL: time.Hour}, nil)

	server := NewServer(Config{Host: "127.0.0.1", Port: 0}, orch, registry, authSvc, limiter, nil, nil)
	return &testEnv{server: server, limiter: limiter, authSvc: authSvc}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestChatEndpoint(t *testing.T) {
	env := newTestEnv(t, 30, 5)

	resp := env.do(t, http.MethodPost, "/api/chat", map[string]any{
		"prompt": "what is the weather like in Paris?",
	}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var record struct {
		Thought   string `json:"thought"`
		ToolCalls []struct {
			Tool    string `json:"tool"`
			Success bool   `json:"success"`
		} `json:"tool_calls"`
		FinalAnswer string `json:"final_answer"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(record.ToolCalls) != 1 || record.ToolCalls[0].Tool != "weather" || !record.ToolCalls[0].Success {
		t.Fatalf("tool_calls = %+v", record.ToolCalls)
	}
	if record.FinalAnswer == "" || record.Thought == "" {
		t.Errorf("incomplete record: %+v", record)
	}
}

func TestChatRejectsMissingPrompt(t *testing.T) {
	env := newTestEnv(t, 30, 5)
	resp := env.do(t, http.MethodPost, "/api/chat", map[string]any{}, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestChatRateLimitReturns429WithRetryAfter(t *testing.T) {
	env := newTestEnv(t, 1, 5)

	first := env.do(t, http.MethodPost, "/api/chat", map[string]any{"prompt": "tell me a joke"}, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first request: %d", first.Code)
	}
	second := env.do(t, http.MethodPost, "/api/chat", map[string]any{"prompt": "tell me a joke"}, nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestToolManagementEndpoints(t *testing.T) {
	env := newTestEnv(t, 30, 5)

	list := env.do(t, http.MethodGet, "/api/tools", nil, nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list: %d", list.Code)
	}
	var listing struct {
		Tools []struct {
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &listing); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(listing.Tools) != 2 || !listing.Tools[0].Enabled {
		t.Fatalf("tools = %+v", listing.Tools)
	}

	disable := env.do(t, http.MethodPut, "/api/tools/weather/enabled", map[string]any{"enabled": false}, nil)
	if disable.Code != http.StatusOK {
		t.Fatalf("disable: %d, body %s", disable.Code, disable.Body.String())
	}

	list = env.do(t, http.MethodGet, "/api/tools", nil, nil)
	listing.Tools = nil
	if err := json.Unmarshal(list.Body.Bytes(), &listing); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, entry := range listing.Tools {
		if entry.Name == "weather" && entry.Enabled {
			t.Error("weather should be disabled after PUT")
		}
	}

	missing := env.do(t, http.MethodPut, "/api/tools/nonsense/enabled", map[string]any{"enabled": true}, nil)
	if missing.Code != http.StatusNotFound {
		t.Errorf("unknown tool: %d, want 404", missing.Code)
	}
}

func TestDisabledToolSurfacesInChat(t *testing.T) {
	env := newTestEnv(t, 30, 5)

	resp := env.do(t, http.MethodPut, "/api/tools/weather/enabled", map[string]any{"enabled": false}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("disable: %d", resp.Code)
	}

	chat := env.do(t, http.MethodPost, "/api/chat", map[string]any{"prompt": "weather in Paris"}, nil)
	if chat.Code != http.StatusOK {
		t.Fatalf("chat: %d", chat.Code)
	}
	var record struct {
		ToolCalls []struct {
			ErrorKind string `json:"error_kind"`
		} `json:"tool_calls"`
	}
	if err := json.Unmarshal(chat.Body.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(record.ToolCalls) != 1 || record.ToolCalls[0].ErrorKind != "tool_disabled" {
		t.Fatalf("tool_calls = %+v", record.ToolCalls)
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, 30, 5)

	register := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "alice", "password": "password123",
	}, nil)
	if register.Code != http.StatusOK {
		t.Fatalf("register: %d, body %s", register.Code, register.Body.String())
	}
	var session authResponse
	if err := json.Unmarshal(register.Body.Bytes(), &session); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if session.AccessToken == "" || session.TokenType != "bearer" {
		t.Fatalf("session = %+v", session)
	}
	if username, err := env.authSvc.Verify(session.AccessToken); err != nil || username != "alice" {
		t.Fatalf("issued token does not verify: %q %v", username, err)
	}

	badLogin := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "alice", "password": "wrong",
	}, nil)
	if badLogin.Code != http.StatusUnauthorized {
		t.Errorf("bad login: %d, want 401", badLogin.Code)
	}

	dup := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "alice", "password": "password456",
	}, nil)
	if dup.Code != http.StatusConflict {
		t.Errorf("duplicate register: %d, want 409", dup.Code)
	}
}

func TestAuthEndpointsHaveTheirOwnQuota(t *testing.T) {
	env := newTestEnv(t, 30, 2)

	for i := 0; i < 2; i++ {
		resp := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
			"username": "ghost", "password": "password123",
		}, nil)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d", i, resp.Code)
		}
	}
	third := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "ghost", "password": "password123",
	}, nil)
	if third.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt: %d, want 429", third.Code)
	}

	// chat quota is untouched by auth traffic
	chat := env.do(t, http.MethodPost, "/api/chat", map[string]any{"prompt": "tell me a joke"}, nil)
	if chat.Code == http.StatusTooManyRequests {
		t.Error("auth attempts must not consume the chat quota")
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, 30, 5)
	resp := env.do(t, http.MethodGet, "/healthz", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("health: %d", resp.Code)
	}
}
