package ports

import (
	"context"
	"poi-route-service/internal/domain"
)

// A candidate node together with its straight-line distance (meters) from the query point.
type NearbyNode struct {
	Node     domain.Node
	Name     string
	Distance float64
}

// Contract for the external routing graph (spatial index plus shortest-path engine).
// A miss is reported as ok=false or an empty slice, never as an error.
type RoutingGraph interface {
	// Return the nearest node on a drivable road within radius meters of p.
	NearestNode(ctx context.Context, p domain.Point, radius float64, roads []domain.RoadClass) (domain.Node, bool, error)

	// Return the least-cost path between two nodes over the given road classes.
	// window limits the search to a bounding box grown by window meters around
	// both nodes; window <= 0 searches the whole graph.
	ShortestPath(ctx context.Context, from, to domain.Node, window float64, roads []domain.RoadClass) (domain.RouteSegment, bool, error)

	// Return nodes serving category within radius meters of p, ascending by distance.
	// Each POI is mapped onto the closest node touching one of the given road classes.
	NodesWithin(ctx context.Context, p domain.Point, radius float64, category domain.Amenity, roads []domain.RoadClass) ([]NearbyNode, error)
}
