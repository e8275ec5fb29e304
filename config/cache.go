package config

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/taskforge-ai/dialoguebot/telemetry"
)

// ErrNotFound is the sentinel error for a missing config entry. The cache
// layers in this package do not return it: they report a miss as found=false,
// and the caller falls through to the next layer and, ultimately, to
// built-in defaults.
var ErrNotFound = errors.New("config: not found")

type (
	// SharedCache is the process-external layer consulted between the local
	// map and the authoritative admin API (spec.md §4.2 step 2). Redis is the
	// reference implementation (see NewRedisSharedCache); any implementation
	// must round-trip a JSON snapshot byte slice.
	SharedCache interface {
		Get(ctx context.Context, key string) ([]byte, bool, error)
		Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
		Delete(ctx context.Context, key string) error
		DeletePrefix(ctx context.Context, prefix string) error
	}

	// AdminFetcher queries the authoritative admin read API (spec.md §6
	// "Downstream (admin read API)"). Implementations issue one HTTP GET per
	// call and respect the caller's context deadline.
	AdminFetcher interface {
		FetchTask(ctx context.Context, name string) (TaskConfig, bool, error)
		FetchLLM(ctx context.Context) (LLMConfig, bool, error)
		FetchBot(ctx context.Context) (BotConfig, bool, error)
	}

	localEntry struct {
		value     json.RawMessage
		fetchedAt time.Time
	}

	// Cache implements the four-layer read path from spec.md §4.2: process
	// local map -> shared cache -> authoritative admin API -> built-in
	// defaults. It owns its cache entries exclusively; consumers receive
	// immutable snapshots (spec.md §3 Ownership).
	//
	// Cache is a process-wide singleton by policy (spec.md §9): construct it
	// once in cmd/dialogued and share it across all conversation turns. The
	// local map is read-mostly and safe for concurrent use.
	Cache struct {
		mu     sync.RWMutex
		local  map[string]localEntry
		ttl    time.Duration
		shared SharedCache
		admin  AdminFetcher
		bundle telemetry.Bundle
	}

	// Options configures a Cache.
	Options struct {
		// Shared is optional; when nil the shared-cache layer is skipped and
		// reads fall straight through to the admin API.
		Shared SharedCache
		// Admin is optional; when nil reads fall straight through to defaults.
		Admin AdminFetcher
		// TTL overrides the default 5-minute local freshness window.
		TTL time.Duration
		// Telemetry supplies ambient logging/metrics/tracing; NewNoopBundle if omitted.
		Telemetry telemetry.Bundle
	}
)

// New constructs a Cache. A zero-value Options is valid: it yields a cache
// that serves only built-in defaults.
func New(opts Options) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = entryTTL
	}
	bundle := opts.Telemetry
	if bundle.Logger == nil {
		bundle = telemetry.NewNoopBundle()
	}
	return &Cache{
		local:  make(map[string]localEntry),
		ttl:    ttl,
		shared: opts.Shared,
		admin:  opts.Admin,
		bundle: bundle,
	}
}

func taskKey(name string) string { return "task/" + name }

const llmKey = "llm"
const botKey = "bot"

// GetTaskConfig resolves a task's configuration through the layered read
// path. A missing config at every layer returns the built-in default with
// Enabled=true (spec.md §4.1 task-enablement gate).
func (c *Cache) GetTaskConfig(ctx context.Context, name string) (TaskConfig, error) {
	var out TaskConfig
	ok, err := c.read(ctx, taskKey(name), "config:"+taskKey(name), &out, func(ctx context.Context) (any, bool, error) {
		return c.admin.FetchTask(ctx, name)
	})
	if err != nil {
		c.bundle.Logger.Warn(ctx, "config fetch failed, using default", "task", name, "error", err.Error())
		return DefaultTaskConfig(name), nil
	}
	if !ok {
		return DefaultTaskConfig(name), nil
	}
	return out, nil
}

// GetLLMConfig resolves the single LLM configuration through the layered read path.
func (c *Cache) GetLLMConfig(ctx context.Context) (LLMConfig, error) {
	var out LLMConfig
	ok, err := c.read(ctx, llmKey, "config:"+llmKey, &out, func(ctx context.Context) (any, bool, error) {
		return c.admin.FetchLLM(ctx)
	})
	if err != nil {
		c.bundle.Logger.Warn(ctx, "llm config fetch failed, using default", "error", err.Error())
		return DefaultLLMConfig(), nil
	}
	if !ok {
		return DefaultLLMConfig(), nil
	}
	return out, nil
}

// GetBotConfig resolves the bot identity configuration through the layered read path.
func (c *Cache) GetBotConfig(ctx context.Context) (BotConfig, error) {
	var out BotConfig
	ok, err := c.read(ctx, botKey, "config:"+botKey, &out, func(ctx context.Context) (any, bool, error) {
		return c.admin.FetchBot(ctx)
	})
	if err != nil {
		c.bundle.Logger.Warn(ctx, "bot config fetch failed, using default", "error", err.Error())
		return DefaultBotConfig(), nil
	}
	if !ok {
		return DefaultBotConfig(), nil
	}
	return out, nil
}

// read implements the generic four-step layered lookup shared by every
// GetXConfig method. fetch calls the admin layer and returns (value, found, err).
func (c *Cache) read(ctx context.Context, localKey, sharedKey string, out any, fetch func(context.Context) (any, bool, error)) (bool, error) {
	// Step 1: process-local map.
	c.mu.RLock()
	entry, hit := c.local[localKey]
	c.mu.RUnlock()
	if hit && time.Since(entry.fetchedAt) < c.ttl {
		if err := json.Unmarshal(entry.value, out); err != nil {
			return false, err
		}
		c.bundle.Metrics.IncCounter("config_cache_hit_total", 1, "layer", "local")
		return true, nil
	}

	// Step 2: shared cache.
	if c.shared != nil {
		raw, found, err := c.shared.Get(ctx, sharedKey)
		if err == nil && found {
			if uerr := json.Unmarshal(raw, out); uerr == nil {
				c.setLocal(localKey, raw)
				c.bundle.Metrics.IncCounter("config_cache_hit_total", 1, "layer", "shared")
				return true, nil
			}
		}
	}

	// Step 3: authoritative admin API, bounded by a 5s deadline (spec.md §4.2, §5).
	if c.admin != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		value, found, err := fetch(fetchCtx)
		cancel()
		if err != nil {
			return false, err
		}
		if found {
			raw, merr := json.Marshal(value)
			if merr != nil {
				return false, merr
			}
			if uerr := json.Unmarshal(raw, out); uerr != nil {
				return false, uerr
			}
			c.setLocal(localKey, raw)
			if c.shared != nil {
				_ = c.shared.Set(ctx, sharedKey, raw, c.ttl)
			}
			c.bundle.Metrics.IncCounter("config_cache_hit_total", 1, "layer", "admin")
			return true, nil
		}
	}

	// Step 4: built-in default, handled by the caller.
	c.bundle.Metrics.IncCounter("config_cache_hit_total", 1, "layer", "default")
	return false, nil
}

func (c *Cache) setLocal(key string, raw json.RawMessage) {
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	c.mu.Lock()
	c.local[key] = localEntry{value: cp, fetchedAt: time.Now()}
	c.mu.Unlock()
}

// Invalidate deletes both the local and shared cache entries for one key
// (task name, "llm", or "bot"). The admin layer calls this after a
// configuration write (spec.md §4.2 Write path); CC never authors config.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.local, taskKey(key))
	delete(c.local, key)
	c.mu.Unlock()
	if c.shared == nil {
		return nil
	}
	if err := c.shared.Delete(ctx, "config:"+taskKey(key)); err != nil {
		return err
	}
	return c.shared.Delete(ctx, "config:"+key)
}

// InvalidateAll wipes every locally and shared-cached config entry.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.local = make(map[string]localEntry)
	c.mu.Unlock()
	if c.shared == nil {
		return nil
	}
	return c.shared.DeletePrefix(ctx, "config:")
}
