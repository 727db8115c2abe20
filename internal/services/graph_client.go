package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"poi-route-service/internal/config"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/obs"
	"poi-route-service/internal/ports"
)

// GraphClient adapts a RoutingGraph backend for the route augmentor.
//
// It owns the escalation policy: snapping and candidate search grow their
// radius by doubling, shortest-path queries grow their bounding-box window
// the same way, and every loop stops at a configured maximum. A miss is a
// normal outcome; backend errors are returned without further retries.
//
// The client holds no per-request state and is safe for concurrent use
// when its backend and cache are.
type GraphClient struct {
	graph    ports.RoutingGraph
	cache    ports.PathCache
	cfg      config.Planner
	roads    []domain.RoadClass
	velocity domain.Velocity
}

// NewGraphClient validates cfg. cache may be nil.
func NewGraphClient(graph ports.RoutingGraph, cache ports.PathCache, cfg config.Planner) (*GraphClient, error) {
	if graph == nil {
		return nil, errors.New("new graph client: routing graph is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new graph client: %w", err)
	}
	roads, err := cfg.Roads()
	if err != nil {
		return nil, fmt.Errorf("new graph client: %w", err)
	}

	return &GraphClient{
		graph:    graph,
		cache:    cache,
		cfg:      cfg,
		roads:    roads,
		velocity: domain.Velocity(cfg.Velocity),
	}, nil
}

// Velocity is the constant speed used to convert between time and distance budgets.
func (c *GraphClient) Velocity() domain.Velocity { return c.velocity }

// Snap returns the nearest drivable node to p, searching from the initial
// radius and doubling up to the maximum. It fails with domain.ErrNotFound.
func (c *GraphClient) Snap(ctx context.Context, p domain.Point) (_ domain.Node, err error) {
	defer obs.Time(ctx, "graph.Snap")(&err)

	radius := c.cfg.InitialSearchRadius
	for {
		n, ok, err := c.graph.NearestNode(ctx, p, radius, c.roads)
		if err != nil {
			countQuery("nearest_node", "error")
			return domain.Node{}, fmt.Errorf("snap (%.6f, %.6f) radius=%.0fm: %w", p.X, p.Y, radius, err)
		}
		if ok {
			countQuery("nearest_node", "hit")
			return n, nil
		}
		countQuery("nearest_node", "miss")

		if radius >= c.cfg.MaxSearchRadius {
			break
		}
		radius = math.Min(radius*2, c.cfg.MaxSearchRadius)
	}

	return domain.Node{}, fmt.Errorf(
		"snap (%.6f, %.6f) within %.0fm: %w",
		p.X, p.Y, c.cfg.MaxSearchRadius, domain.ErrNotFound,
	)
}

// ShortestPath returns the least-cost drivable path from -> to, or ok=false
// when the backend finds none even with the widest window.
func (c *GraphClient) ShortestPath(
	ctx context.Context,
	from, to domain.Node,
) (_ domain.RouteSegment, _ bool, err error) {
	if from.SameNode(to) {
		return domain.SingleNodeSegment(from), true, nil
	}

	defer obs.Time(ctx, "graph.ShortestPath")(&err)

	// Check the path cache before issuing backend queries.
	if c.cache != nil {
		seg, ok, err := c.cache.Get(ctx, from.ID, to.ID)
		switch {
		case err != nil:
			obs.PathCacheTotal.WithLabelValues("error").Inc()
			log.Printf("req_id=%s path cache read failed: %v", obs.RequestID(ctx), err)
		case ok:
			obs.PathCacheTotal.WithLabelValues("hit").Inc()
			return seg, true, nil
		default:
			obs.PathCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	window := c.cfg.InitialPathWindow
	for {
		seg, ok, err := c.graph.ShortestPath(ctx, from, to, window, c.roads)
		if err != nil {
			countQuery("shortest_path", "error")
			return domain.RouteSegment{}, false, fmt.Errorf(
				"shortest path %d -> %d window=%.0fm: %w", from.ID, to.ID, window, err,
			)
		}
		if ok {
			countQuery("shortest_path", "hit")
			if c.cache != nil {
				if err := c.cache.Put(ctx, from.ID, to.ID, seg); err != nil {
					log.Printf("req_id=%s path cache write failed: %v", obs.RequestID(ctx), err)
				}
			}
			return seg, true, nil
		}
		countQuery("shortest_path", "miss")

		if window >= c.cfg.MaxPathWindow {
			break
		}
		window = math.Min(window*2, c.cfg.MaxPathWindow)
	}

	return domain.RouteSegment{}, false, nil
}

// CandidatesNear returns POI nodes of category whose distance d from p
// satisfies minDistance < d <= maxDistance, ascending by distance.
//
// The radius doubles from the initial search radius and is clamped to
// maxDistance (and the maximum search radius); once it reaches that bound
// no larger radius can help, so the search ends with an empty result.
func (c *GraphClient) CandidatesNear(
	ctx context.Context,
	p domain.Point,
	minDistance float64,
	maxDistance float64,
	category domain.Amenity,
) (_ []ports.NearbyNode, err error) {
	defer obs.Time(ctx, "graph.CandidatesNear")(&err)

	limit := math.Min(maxDistance, c.cfg.MaxSearchRadius)
	if limit <= 0 || limit <= minDistance {
		return []ports.NearbyNode{}, nil
	}

	radius := c.cfg.InitialSearchRadius
	for {
		r := math.Min(radius, limit)

		// A radius inside the band's lower bound cannot return band members.
		if r > minDistance {
			nodes, err := c.graph.NodesWithin(ctx, p, r, category, c.roads)
			if err != nil {
				countQuery("nodes_within", "error")
				return nil, fmt.Errorf(
					"candidates near (%.6f, %.6f) category=%s radius=%.0fm: %w",
					p.X, p.Y, category, r, err,
				)
			}

			band := make([]ports.NearbyNode, 0, len(nodes))
			for _, n := range nodes {
				if n.Distance > minDistance && n.Distance <= maxDistance {
					band = append(band, n)
				}
			}
			if len(band) > 0 {
				countQuery("nodes_within", "hit")
				return band, nil
			}
			countQuery("nodes_within", "miss")
		}

		if r >= limit {
			return []ports.NearbyNode{}, nil
		}
		radius *= 2
	}
}

func countQuery(op, outcome string) {
	obs.GraphQueriesTotal.WithLabelValues(op, outcome).Inc()
}
