package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnElaborateStart(ctx, "inv")
	p.OnElaborateComplete(ctx, "inv", 10, 5, time.Second, nil)
	p.OnLayoutStart(ctx, "inv", 10)
	p.OnLayoutComplete(ctx, "inv", time.Second, nil)
	p.OnRenderStart(ctx, "inv")
	p.OnRenderComplete(ctx, "inv", 2048, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "diagram")
	c.OnCacheMiss(ctx, "diagram")
	c.OnCacheSet(ctx, "diagram", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Nil registrations are ignored
	SetPipelineHooks(nil)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks(nil) should keep the previous hooks")
	}

	// Reset restores defaults
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset should restore noop hooks")
	}
}

type testPipelineHooks struct {
	NoopPipelineHooks
	elaborations int
}

func (h *testPipelineHooks) OnElaborateStart(ctx context.Context, module string) {
	h.elaborations++
}

type testCacheHooks struct {
	NoopCacheHooks
	hits int
}

func (h *testCacheHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.hits++
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	hooks := &testPipelineHooks{}
	SetPipelineHooks(hooks)
	Pipeline().OnElaborateStart(context.Background(), "inv")
	if hooks.elaborations != 1 {
		t.Errorf("elaborations = %d, want 1", hooks.elaborations)
	}
}
