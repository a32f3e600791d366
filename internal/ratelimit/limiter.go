// Package ratelimit implements the admission gate in front of chat and
// auth traffic: fixed-window counters keyed by (identity, action class).
// The window is approximate at its boundaries, which the domain tolerates;
// check-and-increment is atomic per key.
package ratelimit

import (
	"sync"
	"time"
)

// ActionClass groups requests that share a quota ceiling.
type ActionClass string

const (
	ClassChat ActionClass = "chat"
	ClassAuth ActionClass = "auth"
)

// ClassConfig sets the ceiling for one action class.
type ClassConfig struct {
	Limit  int
	Window time.Duration
}

// Config configures the limiter.
type Config struct {
	Classes         map[ActionClass]ClassConfig
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig mirrors the service defaults: a higher chat ceiling and a
// low auth ceiling to blunt credential guessing.
func DefaultConfig() Config {
	return Config{
		Classes: map[ActionClass]ClassConfig{
			ClassChat: {Limit: 30, Window: time.Minute},
			ClassAuth: {Limit: 5, Window: time.Minute},
		},
	}
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Remaining  int           // admissions left in the current window
	RetryAfter time.Duration // wait hint when rejected
}

type window struct {
	start    time.Time
	count    int
	lastSeen time.Time
}

// Limiter holds per-key window state. All mutation goes through Check;
// the state is never exposed.
type Limiter struct {
	mu              sync.Mutex
	classes         map[ActionClass]ClassConfig
	entries         map[string]*window
	entryTTL        time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time
	now             func() time.Time
}

// New creates a limiter. Classes without configuration admit everything.
func New(cfg Config) *Limiter {
	ttl := cfg.EntryTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = 5 * time.Minute
	}
	return &Limiter{
		classes:         cfg.Classes,
		entries:         make(map[string]*window),
		entryTTL:        ttl,
		cleanupInterval: cleanup,
		lastCleanup:     time.Now(),
		now:             time.Now,
	}
}

// Check performs an atomic check-and-increment for the given identity and
// class. It admits until the class limit is reached within the window,
// then rejects with the remaining wait.
func (l *Limiter) Check(identity string, class ActionClass) Decision {
	cfg, ok := l.classes[class]
	if !ok || cfg.Limit <= 0 || identity == "" {
		return Decision{Allowed: true}
	}

	now := l.now()
	key := string(class) + ":" + identity

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeCleanup(now)

	entry, ok := l.entries[key]
	if !ok {
		entry = &window{start: now}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	if now.Sub(entry.start) >= cfg.Window {
		entry.start = now
		entry.count = 0
	}

	if entry.count >= cfg.Limit {
		return Decision{
			Allowed:    false,
			RetryAfter: cfg.Window - now.Sub(entry.start),
		}
	}

	entry.count++
	return Decision{Allowed: true, Remaining: cfg.Limit - entry.count}
}

// maybeCleanup drops idle entries; callers hold the lock.
func (l *Limiter) maybeCleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < l.cleanupInterval {
		return
	}
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.entryTTL {
			delete(l.entries, key)
		}
	}
	l.lastCleanup = now
}
