package toolregistry

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"tinygpt/internal/tool"
)

const (
	defaultCacheMaxSize = 256
	defaultCacheTTL     = 2 * time.Minute
)

// CacheConfig configures the tool result cache.
type CacheConfig struct {
	MaxSize int
	TTL     time.Duration
	// ExcludeTools lists tool names whose results must never be cached
	// (randomized or time-sensitive capabilities).
	ExcludeTools []string
}

// DefaultCacheConfig returns the defaults; jokes are random by nature.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxSize:      defaultCacheMaxSize,
		TTL:          defaultCacheTTL,
		ExcludeTools: []string{"joke"},
	}
}

type cacheEntry struct {
	result   tool.Result
	storedAt time.Time
}

// ResultCache caches successful tool results keyed by tool name plus
// canonicalized arguments.
type ResultCache struct {
	cache   *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	exclude map[string]bool
}

// NewResultCache builds a cache; zero config fields fall back to defaults.
func NewResultCache(config CacheConfig) (*ResultCache, error) {
	if config.MaxSize <= 0 {
		config.MaxSize = defaultCacheMaxSize
	}
	if config.TTL <= 0 {
		config.TTL = defaultCacheTTL
	}
	cache, err := lru.New[string, cacheEntry](config.MaxSize)
	if err != nil {
		return nil, err
	}
	exclude := make(map[string]bool, len(config.ExcludeTools))
	for _, name := range config.ExcludeTools {
		exclude[strings.TrimSpace(name)] = true
	}
	return &ResultCache{cache: cache, ttl: config.TTL, exclude: exclude}, nil
}

// Get returns a cached result for the call when fresh.
func (c *ResultCache) Get(name string, args map[string]any, callID string) (*tool.Result, bool) {
	if c == nil || c.exclude[name] {
		return nil, false
	}
	key := cacheKey(name, args)
	entry, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) >= c.ttl {
		c.cache.Remove(key)
		return nil, false
	}
	copied := entry.result
	copied.CallID = callID
	return &copied, true
}

// Put stores a successful result.
func (c *ResultCache) Put(name string, args map[string]any, result *tool.Result) {
	if c == nil || result == nil || c.exclude[name] {
		return
	}
	c.cache.Add(cacheKey(name, args), cacheEntry{result: *result, storedAt: time.Now()})
}

// cacheKey renders arguments in sorted order so equivalent maps collide.
func cacheKey(name string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		if raw, err := json.Marshal(args[k]); err == nil {
			b.Write(raw)
		}
	}
	return b.String()
}
