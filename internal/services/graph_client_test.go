package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"poi-route-service/internal/adapters/graph"
	"poi-route-service/internal/config"
	"poi-route-service/internal/domain"
)

func clientTestPlanner() config.Planner {
	cfg := config.DefaultPlanner()
	cfg.Velocity = 10
	cfg.InitialSearchRadius = 10
	cfg.MaxSearchRadius = 1000
	cfg.InitialPathWindow = 100
	cfg.MaxPathWindow = 800
	return cfg
}

func newTestClient(t *testing.T, g *graph.MockRoutingGraph, cache *memPathCache) *GraphClient {
	t.Helper()

	var c *GraphClient
	var err error
	if cache != nil {
		c, err = NewGraphClient(g, cache, clientTestPlanner())
	} else {
		c, err = NewGraphClient(g, nil, clientTestPlanner())
	}
	if err != nil {
		t.Fatalf("new graph client: %v", err)
	}
	return c
}

func radii(calls []graph.MockCall) []float64 {
	out := make([]float64, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Radius)
	}
	return out
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGraphClientSnapExpandsRadius(t *testing.T) {
	g := graph.NewMockRoutingGraph()
	g.AddNode(7, 0, 50)

	c := newTestClient(t, g, nil)
	n, err := c.Snap(context.Background(), domain.Point{X: 0, Y: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ID != 7 {
		t.Fatalf("snapped to %d, want 7", n.ID)
	}

	got := radii(g.Calls("NearestNode"))
	want := []float64{10, 20, 40, 80}
	if !equalFloats(got, want) {
		t.Fatalf("radii = %v, want %v", got, want)
	}
}

func TestGraphClientSnapNotFound(t *testing.T) {
	g := graph.NewMockRoutingGraph()
	g.AddNode(7, 5000, 0)

	c := newTestClient(t, g, nil)
	_, err := c.Snap(context.Background(), domain.Point{X: 0, Y: 0})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	// The last attempt is clamped to the maximum radius.
	got := radii(g.Calls("NearestNode"))
	want := []float64{10, 20, 40, 80, 160, 320, 640, 1000}
	if !equalFloats(got, want) {
		t.Fatalf("radii = %v, want %v", got, want)
	}
}

func TestGraphClientShortestPathWindow(t *testing.T) {
	g := graph.NewMockRoutingGraph()
	a := g.AddNode(1, 0, 0)
	b := g.AddNode(2, 100, 0)
	far := g.AddNode(3, 200, 0)
	g.AddPath(graph.MockPath{From: 1, To: 2, Cost: 120, MinWindow: 300})
	g.AddPath(graph.MockPath{From: 1, To: 3, Cost: 250, MinWindow: 5000})

	c := newTestClient(t, g, nil)
	ctx := context.Background()

	seg, ok, err := c.ShortestPath(ctx, a, b)
	if err != nil || !ok {
		t.Fatalf("shortest path: ok=%v err=%v", ok, err)
	}
	if seg.Cost() != 120 {
		t.Fatalf("cost = %v, want 120", seg.Cost())
	}
	if got := radii(g.Calls("ShortestPath")); !equalFloats(got, []float64{100, 200, 400}) {
		t.Fatalf("windows = %v, want [100 200 400]", got)
	}

	_, ok, err = c.ShortestPath(ctx, a, far)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no path within the maximum window")
	}
	if n := len(g.Calls("ShortestPath")); n != 3+4 {
		t.Fatalf("backend calls = %d, want 7", n)
	}
}

func TestGraphClientShortestPathSameNode(t *testing.T) {
	g := graph.NewMockRoutingGraph()
	a := g.AddNode(1, 0, 0)

	c := newTestClient(t, g, nil)
	seg, ok, err := c.ShortestPath(context.Background(), a, a)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if seg.Len() != 1 || seg.Cost() != 0 {
		t.Fatalf("segment len=%d cost=%v, want 1 and 0", seg.Len(), seg.Cost())
	}
	if n := len(g.Calls("ShortestPath")); n != 0 {
		t.Fatalf("backend calls = %d, want 0", n)
	}
}

func TestGraphClientShortestPathUsesCache(t *testing.T) {
	g := graph.NewMockRoutingGraph()
	a := g.AddNode(1, 0, 0)
	b := g.AddNode(2, 100, 0)
	g.AddPath(graph.MockPath{From: 1, To: 2, Cost: 100})

	cache := newMemPathCache()
	c := newTestClient(t, g, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seg, ok, err := c.ShortestPath(ctx, a, b)
		if err != nil || !ok || seg.Cost() != 100 {
			t.Fatalf("call %d: cost=%v ok=%v err=%v", i, seg.Cost(), ok, err)
		}
	}
	if n := len(g.Calls("ShortestPath")); n != 1 {
		t.Fatalf("backend calls = %d, want 1", n)
	}
	if cache.puts != 1 {
		t.Fatalf("cache puts = %d, want 1", cache.puts)
	}
}

func TestGraphClientCandidatesNearBand(t *testing.T) {
	g := graph.NewMockRoutingGraph()
	for id, x := range map[int64]float64{1: 5, 2: 30, 3: 60, 4: 120} {
		g.AddNode(id, x, 0)
		g.AddPOI(id, domain.AmenityCafe, "")
	}
	g.AddNode(9, 45, 0)
	g.AddPOI(9, domain.AmenityFuel, "")

	c := newTestClient(t, g, nil)
	ctx := context.Background()
	origin := domain.Point{X: 0, Y: 0}

	got, err := c.CandidatesNear(ctx, origin, 20, 100, domain.AmenityCafe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Node.ID != 2 {
		t.Fatalf("candidates = %+v, want only node 2", got)
	}
	// Radii at or below the band's lower bound are never queried.
	if r := radii(g.Calls("NodesWithin")); !equalFloats(r, []float64{40}) {
		t.Fatalf("radii = %v, want [40]", r)
	}

	got, err = c.CandidatesNear(ctx, origin, 40, 100, domain.AmenityCafe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Node.ID != 3 {
		t.Fatalf("candidates = %+v, want only node 3", got)
	}
}

func TestGraphClientCandidatesNearPassesRoadClasses(t *testing.T) {
	g := graph.NewMockRoutingGraph()
	g.AddNode(1, 30, 0)
	g.AddPOI(1, domain.AmenityCafe, "")

	cfg := clientTestPlanner()
	want, err := cfg.Roads()
	if err != nil {
		t.Fatalf("roads: %v", err)
	}
	c := newTestClient(t, g, nil)

	if _, err := c.CandidatesNear(context.Background(), domain.Point{}, 0, 100, domain.AmenityCafe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := g.Calls("NodesWithin")
	if len(calls) == 0 {
		t.Fatalf("no NodesWithin calls")
	}
	for _, call := range calls {
		if len(want) == 0 || !slices.Equal(call.Roads, want) {
			t.Fatalf("roads = %v, want %v", call.Roads, want)
		}
	}
}

func TestGraphClientCandidatesNearStopsAtMaxDistance(t *testing.T) {
	g := graph.NewMockRoutingGraph()
	g.AddNode(1, 120, 0)
	g.AddPOI(1, domain.AmenityCafe, "")

	c := newTestClient(t, g, nil)
	ctx := context.Background()

	got, err := c.CandidatesNear(ctx, domain.Point{}, 130, 200, domain.AmenityCafe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("candidates = %+v, want none", got)
	}
	if r := radii(g.Calls("NodesWithin")); !equalFloats(r, []float64{160, 200}) {
		t.Fatalf("radii = %v, want [160 200]", r)
	}

	// An empty band needs no query at all.
	got, err = c.CandidatesNear(ctx, domain.Point{}, 50, 50, domain.AmenityCafe)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v; want empty", got, err)
	}
	if n := len(g.Calls("NodesWithin")); n != 2 {
		t.Fatalf("backend calls = %d, want 2", n)
	}
}

// memPathCache is an in-process PathCache for tests.
type memPathCache struct {
	mu   sync.Mutex
	m    map[[2]int64]domain.RouteSegment
	puts int
}

func newMemPathCache() *memPathCache {
	return &memPathCache{m: make(map[[2]int64]domain.RouteSegment)}
}

func (c *memPathCache) Get(ctx context.Context, from, to int64) (domain.RouteSegment, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seg, ok := c.m[[2]int64{from, to}]
	return seg, ok, nil
}

func (c *memPathCache) Put(ctx context.Context, from, to int64, seg domain.RouteSegment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[[2]int64{from, to}] = seg
	c.puts++
	return nil
}
