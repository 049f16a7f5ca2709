package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPlacementHooks{}
	p.OnPlaceStart(ctx, 100)
	p.OnPlaceComplete(ctx, 90, 10, time.Second, nil)
	p.OnExportStart(ctx, []string{"json"})
	p.OnExportComplete(ctx, []string{"json"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "placement")
	c.OnCacheMiss(ctx, "placement")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/placements")
	h.OnResponse(ctx, "POST", "/v1/placements", 201, time.Second)
	h.OnError(ctx, "POST", "/v1/placements", errors.New("boom"))
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Placement().(NoopPlacementHooks); !ok {
		t.Error("Placement() should return NoopPlacementHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPlacement := &testPlacementHooks{}
	SetPlacementHooks(customPlacement)
	if Placement() != customPlacement {
		t.Error("SetPlacementHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Placement().(NoopPlacementHooks); !ok {
		t.Error("Reset() should restore NoopPlacementHooks")
	}
}

func TestRegisteredHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &testPlacementHooks{}
	SetPlacementHooks(h)

	Placement().OnPlaceComplete(context.Background(), 3, 1, time.Millisecond, nil)
	if h.placed != 3 || h.dropped != 1 {
		t.Errorf("hook got placed=%d dropped=%d, want 3 and 1", h.placed, h.dropped)
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testPlacementHooks{}
	SetPlacementHooks(custom)
	SetPlacementHooks(nil)

	if Placement() != custom {
		t.Error("SetPlacementHooks(nil) should be ignored")
	}
}

// Test implementations
type testPlacementHooks struct {
	NoopPlacementHooks
	placed, dropped int
}

func (h *testPlacementHooks) OnPlaceComplete(_ context.Context, placed, dropped int, _ time.Duration, _ error) {
	h.placed, h.dropped = placed, dropped
}

type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
