// Package timeouts holds the context deadlines used by request handlers.
//
// The scheduling engine itself enforces no deadlines; it inherits whatever
// the caller's context carries. Handlers pick one of these classes:
//   - Ping: health checks
//   - Lookup: single-document reads (load, availability check, preview)
//   - Write: assignment and primary flows that touch several collections
//   - Batch: week copies and availability searches over many caregivers
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultLookup = 5 * time.Second
	DefaultWrite  = 15 * time.Second
	DefaultBatch  = 60 * time.Second
)

// Config holds timeout values. Zero values keep the current setting.
type Config struct {
	Ping   time.Duration
	Lookup time.Duration
	Write  time.Duration
	Batch  time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Lookup: DefaultLookup,
		Write:  DefaultWrite,
		Batch:  DefaultBatch,
	}
}

// Ping returns the health check timeout.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Ping
}

// Lookup returns the timeout for single-document reads.
func Lookup() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Lookup
}

// Write returns the timeout for multi-collection writes.
func Write() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Write
}

// Batch returns the timeout for week copies and other bulk work.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Batch
}

// Configure overrides timeouts; zero fields are ignored.
// Call during startup before handlers are built.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Lookup > 0 {
		cur.Lookup = cfg.Lookup
	}
	if cfg.Write > 0 {
		cur.Write = cfg.Write
	}
	if cfg.Batch > 0 {
		cur.Batch = cfg.Batch
	}
}

// Reset restores the defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout derives a context with timeout. The returned cancel logs a
// warning naming operation when the deadline was the reason it ended.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "copy week")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
