package ports

import (
	"context"
	"poi-route-service/internal/domain"
)

// Cache for shortest-path results keyed by (from, to) node IDs.
type PathCache interface {
	// Return a cached segment, ok=false on a miss.
	Get(ctx context.Context, from, to int64) (domain.RouteSegment, bool, error)
	Put(ctx context.Context, from, to int64, seg domain.RouteSegment) error
}
