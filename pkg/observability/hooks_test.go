package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	l := NoopLayoutHooks{}
	l.OnLayoutStart(ctx, "grid", 100)
	l.OnLayoutComplete(ctx, "grid", time.Second, nil)
	l.OnRelayoutDiscarded(ctx, "layered", 3)
	l.OnRelayoutFallback(ctx, "layered", context.DeadlineExceeded)

	NoopRouteHooks{}.OnRouteComplete(ctx, 10, 2, 0, time.Millisecond)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "layout", 1024)

	NoopServerHooks{}.OnRequest(ctx, "POST", "/v1/layout", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Layout() should return NoopLayoutHooks by default")
	}
	if _, ok := Route().(NoopRouteHooks); !ok {
		t.Error("Route() should return NoopRouteHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() should return NoopServerHooks by default")
	}

	customLayout := &testLayoutHooks{}
	SetLayoutHooks(customLayout)
	if Layout() != customLayout {
		t.Error("SetLayoutHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	SetRouteHooks(nil)
	if _, ok := Route().(NoopRouteHooks); !ok {
		t.Error("SetRouteHooks(nil) should keep the current hooks")
	}

	Reset()
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Reset should restore NoopLayoutHooks")
	}
}

func TestHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &testLayoutHooks{}
	SetLayoutHooks(h)

	ctx := context.Background()
	Layout().OnLayoutStart(ctx, "grid", 4)
	Layout().OnRelayoutDiscarded(ctx, "layered", 7)

	if h.starts != 1 || h.discarded != 1 {
		t.Errorf("starts=%d discarded=%d, want 1 and 1", h.starts, h.discarded)
	}
}

type testLayoutHooks struct {
	NoopLayoutHooks
	starts    int
	discarded int
}

func (h *testLayoutHooks) OnLayoutStart(context.Context, string, int) { h.starts++ }
func (h *testLayoutHooks) OnRelayoutDiscarded(context.Context, string, uint64) {
	h.discarded++
}

type testCacheHooks struct {
	NoopCacheHooks
}
