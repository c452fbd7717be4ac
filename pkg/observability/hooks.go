// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through package-level hooks; binaries decide what
// receives them by registering implementations at startup. The defaults
// are no-ops, so library code never depends on a particular backend.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks around their stages:
//
//	observability.Pipeline().OnOutlineStart(ctx, name)
//	// ... build ...
//	observability.Pipeline().OnOutlineComplete(ctx, name, rings, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the keyplate pipeline.
type PipelineHooks interface {
	// Points layout
	OnPointsStart(ctx context.Context)
	OnPointsComplete(ctx context.Context, keys int, duration time.Duration, err error)

	// Outline building, once per outline
	OnOutlineStart(ctx context.Context, name string)
	OnOutlineComplete(ctx context.Context, name string, rings int, duration time.Duration, err error)

	// Artifact export, once per outline and format
	OnExportStart(ctx context.Context, name, format string)
	OnExportComplete(ctx context.Context, name, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache lookups made by the pipeline.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnPointsStart(context.Context)                               {}
func (NoopPipelineHooks) OnPointsComplete(context.Context, int, time.Duration, error) {}
func (NoopPipelineHooks) OnOutlineStart(context.Context, string)                      {}
func (NoopPipelineHooks) OnExportStart(context.Context, string, string)               {}
func (NoopPipelineHooks) OnOutlineComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnExportComplete(context.Context, string, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks. A nil value is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. A nil value is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
