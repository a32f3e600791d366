package toolregistry

import (
	"context"
	"errors"
	"testing"
	"time"

	"tinygpt/internal/tool"
)

type stubTool struct {
	name     string
	category string
	executed int
}

func (s *stubTool) Execute(_ context.Context, call tool.Call) (*tool.Result, error) {
	s.executed++
	return &tool.Result{CallID: call.ID, Content: "ok from " + s.name}, nil
}

func (s *stubTool) Definition() tool.Definition {
	return tool.Definition{
		Name: s.name,
		Parameters: tool.ParameterSchema{
			Type:       "object",
			Properties: map[string]tool.Property{"q": {Type: "string"}},
		},
	}
}

func (s *stubTool) Metadata() tool.Metadata {
	return tool.Metadata{Name: s.name, Category: s.category, Version: "1.0.0"}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := New()
	if err := r.Register(&stubTool{name: "weather"}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err := r.Register(&stubTool{name: "weather"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestGetUnknownTool(t *testing.T) {
	r := New()
	_, _, err := r.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetEnabledReturnsPreviousState(t *testing.T) {
	r := New()
	if err := r.Register(&stubTool{name: "crypto"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	prev, err := r.SetEnabled("crypto", false)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !prev {
		t.Fatalf("newly registered tool should have been enabled")
	}

	_, enabled, err := r.Get("crypto")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if enabled {
		t.Fatalf("toggle must be visible to a subsequent lookup")
	}

	if _, err := r.SetEnabled("missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown name, got %v", err)
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := New()
	names := []string{"weather", "crypto", "wiki", "search", "joke", "news"}
	for _, name := range names {
		if err := r.Register(&stubTool{name: name, category: "information"}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	snapshots := r.List()
	if len(snapshots) != len(names) {
		t.Fatalf("expected %d snapshots, got %d", len(names), len(snapshots))
	}
	for i, name := range names {
		if snapshots[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, snapshots[i].Name)
		}
	}
}

func TestResultCacheHitAndExpiry(t *testing.T) {
	cache, err := NewResultCache(CacheConfig{MaxSize: 8, TTL: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	args := map[string]any{"location": "Paris"}
	cache.Put("weather", args, &tool.Result{CallID: "call_0", Content: "22°C"})

	got, ok := cache.Get("weather", map[string]any{"location": "Paris"}, "call_1")
	if !ok {
		t.Fatalf("expected cache hit for equivalent args")
	}
	if got.CallID != "call_1" || got.Content != "22°C" {
		t.Fatalf("unexpected cached result: %+v", got)
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := cache.Get("weather", args, "call_2"); ok {
		t.Fatalf("expired entry should miss")
	}
}

func TestResultCacheExcludesTools(t *testing.T) {
	cache, err := NewResultCache(DefaultCacheConfig())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	cache.Put("joke", nil, &tool.Result{Content: "why did the gopher..."})
	if _, ok := cache.Get("joke", nil, "call_0"); ok {
		t.Fatalf("excluded tool must never be cached")
	}
}
