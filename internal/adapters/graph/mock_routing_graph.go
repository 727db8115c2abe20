package graph

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/paulmach/orb/planar"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/ports"
)

// MockPOI is a category-tagged point mapped onto a road node.
type MockPOI struct {
	Node     domain.Node
	Name     string
	Category domain.Amenity
}

// MockPath describes a shortest path between two nodes.
// MinWindow > 0 makes the path visible only to queries whose window is at
// least that wide (or unbounded).
type MockPath struct {
	From, To  int64
	Via       []int64
	Cost      float64
	MinWindow float64
}

// MockRoutingGraph is an in-memory RoutingGraph with explicitly listed paths.
// Distances are planar in coordinate units. Safe for concurrent use.
type MockRoutingGraph struct {
	mu    sync.Mutex
	nodes map[int64]domain.Node
	pois  []MockPOI
	paths map[[2]int64]MockPath
	calls []MockCall
}

// MockCall records one backend query for assertions.
type MockCall struct {
	Op     string
	Radius float64
	From   int64
	To     int64
	Roads  []domain.RoadClass
}

func NewMockRoutingGraph() *MockRoutingGraph {
	return &MockRoutingGraph{
		nodes: make(map[int64]domain.Node),
		paths: make(map[[2]int64]MockPath),
	}
}

// AddNode registers a road node that snapping may return.
func (g *MockRoutingGraph) AddNode(id int64, x, y float64) domain.Node {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := domain.Node{ID: id, Point: domain.Point{X: x, Y: y}}
	g.nodes[id] = n
	return n
}

// AddPOI registers a POI on an existing road node.
func (g *MockRoutingGraph) AddPOI(nodeID int64, category domain.Amenity, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pois = append(g.pois, MockPOI{Node: g.nodes[nodeID], Name: name, Category: category})
}

// AddPath registers p in both directions, like an undirected pgr_dijkstra graph.
func (g *MockRoutingGraph) AddPath(p MockPath) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.paths[[2]int64{p.From, p.To}] = p

	via := slices.Clone(p.Via)
	slices.Reverse(via)
	g.paths[[2]int64{p.To, p.From}] = MockPath{From: p.To, To: p.From, Via: via, Cost: p.Cost, MinWindow: p.MinWindow}
}

// Calls returns the recorded queries for op, in call order.
func (g *MockRoutingGraph) Calls(op string) []MockCall {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []MockCall
	for _, c := range g.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (g *MockRoutingGraph) record(c MockCall) {
	g.calls = append(g.calls, c)
}

func (g *MockRoutingGraph) NearestNode(
	ctx context.Context,
	p domain.Point,
	radius float64,
	roads []domain.RoadClass,
) (domain.Node, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(MockCall{Op: "NearestNode", Radius: radius, Roads: roads})

	var best domain.Node
	bestDist := radius
	found := false
	for _, n := range g.nodes {
		d := planar.Distance(p.Orb(), n.Orb())
		if d > radius {
			continue
		}
		// Tie-breaker keeps map iteration order out of the result.
		if !found || d < bestDist || (d == bestDist && n.ID < best.ID) {
			best, bestDist, found = n, d, true
		}
	}
	return best, found, nil
}

func (g *MockRoutingGraph) ShortestPath(
	ctx context.Context,
	from, to domain.Node,
	window float64,
	roads []domain.RoadClass,
) (domain.RouteSegment, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(MockCall{Op: "ShortestPath", Radius: window, From: from.ID, To: to.ID, Roads: roads})

	if from.ID == to.ID {
		return domain.SingleNodeSegment(from), true, nil
	}

	p, ok := g.paths[[2]int64{from.ID, to.ID}]
	if !ok {
		return domain.RouteSegment{}, false, nil
	}
	if p.MinWindow > 0 && window > 0 && window < p.MinWindow {
		return domain.RouteSegment{}, false, nil
	}

	ids := make([]int64, 0, len(p.Via)+2)
	ids = append(ids, from.ID)
	ids = append(ids, p.Via...)
	ids = append(ids, to.ID)

	nodes := make([]domain.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			return domain.RouteSegment{}, false, fmt.Errorf("mock shortest path: unknown node %d", id)
		}
		nodes = append(nodes, n)
	}

	seg, err := domain.NewRouteSegment(nodes, spreadCost(nodes, p.Cost))
	if err != nil {
		return domain.RouteSegment{}, false, fmt.Errorf("mock shortest path: %w", err)
	}
	return seg, true, nil
}

func (g *MockRoutingGraph) NodesWithin(
	ctx context.Context,
	p domain.Point,
	radius float64,
	category domain.Amenity,
	roads []domain.RoadClass,
) ([]ports.NearbyNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(MockCall{Op: "NodesWithin", Radius: radius, Roads: roads})

	out := []ports.NearbyNode{}
	for _, poi := range g.pois {
		if poi.Category != category {
			continue
		}
		d := planar.Distance(p.Orb(), poi.Node.Orb())
		if d <= radius {
			out = append(out, ports.NearbyNode{Node: poi.Node, Name: poi.Name, Distance: d})
		}
	}

	slices.SortFunc(out, func(a, b ports.NearbyNode) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Node.ID, b.Node.ID)
	})
	return out, nil
}

// spreadCost splits cost over the hops in proportion to their planar length.
func spreadCost(nodes []domain.Node, cost float64) []float64 {
	offsets := make([]float64, len(nodes))
	if len(nodes) < 2 {
		return offsets
	}

	cum := make([]float64, len(nodes))
	for i := 1; i < len(nodes); i++ {
		cum[i] = cum[i-1] + planar.Distance(nodes[i-1].Orb(), nodes[i].Orb())
	}
	total := cum[len(cum)-1]

	for i := 1; i < len(nodes); i++ {
		if total > 0 {
			offsets[i] = cost * (cum[i] / total)
		} else {
			offsets[i] = cost * float64(i) / float64(len(nodes)-1)
		}
	}
	return offsets
}
