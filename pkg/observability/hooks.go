// Package observability provides hooks for metrics and tracing of the layout
// engine.
//
// Libraries emit events through the registered hooks; the defaults do
// nothing. Binaries register concrete implementations at startup (see
// internal/metrics for the Prometheus one), so packages under pkg/ never
// depend on a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(metrics.NewLayoutHooks(reg))
//	    observability.SetCacheHooks(metrics.NewCacheHooks(reg))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutStart(ctx, "grid", g.NodeCount())
//	// ... lay out ...
//	observability.Layout().OnLayoutComplete(ctx, "grid", time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from layout engines and editing sessions.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, engine string, nodeCount int)
	OnLayoutComplete(ctx context.Context, engine string, duration time.Duration, err error)

	// OnRelayoutDiscarded records a result that arrived after a newer
	// request superseded it.
	OnRelayoutDiscarded(ctx context.Context, engine string, generation uint64)

	// OnRelayoutFallback records a failed engine run replaced by the last
	// good grid layout.
	OnRelayoutFallback(ctx context.Context, engine string, err error)
}

// =============================================================================
// Route Hooks
// =============================================================================

// RouteHooks receives events from edge routing passes.
type RouteHooks interface {
	// OnRouteComplete records one pass over all edges. adjusted counts paths
	// whose middle leg was moved; blocked counts paths still crossing a node.
	OnRouteComplete(ctx context.Context, edges, adjusted, blocked int, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives events from the HTTP facade.
type ServerHooks interface {
	// OnRequest records a served request. route is the chi route pattern.
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, string, int)                     {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}
func (NoopLayoutHooks) OnRelayoutDiscarded(context.Context, string, uint64)            {}
func (NoopLayoutHooks) OnRelayoutFallback(context.Context, string, error)              {}

// NoopRouteHooks is a no-op implementation of RouteHooks.
type NoopRouteHooks struct{}

func (NoopRouteHooks) OnRouteComplete(context.Context, int, int, int, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	routeHooks  RouteHooks  = NoopRouteHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	serverHooks ServerHooks = NoopServerHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetRouteHooks registers custom route hooks.
func SetRouteHooks(h RouteHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		routeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetServerHooks registers custom server hooks.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Route returns the registered route hooks.
func Route() RouteHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return routeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Server returns the registered server hooks.
func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	routeHooks = NoopRouteHooks{}
	cacheHooks = NoopCacheHooks{}
	serverHooks = NoopServerHooks{}
}
