package domain

import (
	"errors"
	"fmt"
	"time"
)

// Represents a connected run of road network nodes returned by the routing graph.
// Offsets holds the cumulative cost (meters) at each node, starting at 0; the last
// offset is the segment cost. A RouteSegment is immutable once built.
type RouteSegment struct {
	nodes   []Node
	offsets []float64
}

// NewRouteSegment validates and copies nodes and their cumulative offsets.
func NewRouteSegment(nodes []Node, offsets []float64) (RouteSegment, error) {
	if len(nodes) == 0 {
		return RouteSegment{}, errors.New("new route segment: nodes must not be empty")
	}
	if len(nodes) != len(offsets) {
		return RouteSegment{}, fmt.Errorf(
			"new route segment: %d nodes but %d offsets", len(nodes), len(offsets),
		)
	}
	if offsets[0] != 0 {
		return RouteSegment{}, fmt.Errorf("new route segment: first offset = %v, want 0", offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return RouteSegment{}, fmt.Errorf("new route segment: offset %d decreases", i)
		}
	}

	return RouteSegment{
		nodes:   append([]Node(nil), nodes...),
		offsets: append([]float64(nil), offsets...),
	}, nil
}

// SingleNodeSegment is the zero-cost segment from a node to itself.
func SingleNodeSegment(n Node) RouteSegment {
	return RouteSegment{nodes: []Node{n}, offsets: []float64{0}}
}

func (s RouteSegment) IsZero() bool { return len(s.nodes) == 0 }

func (s RouteSegment) Len() int { return len(s.nodes) }

// Nodes returns a copy of the node sequence.
func (s RouteSegment) Nodes() []Node { return append([]Node(nil), s.nodes...) }

func (s RouteSegment) Node(i int) Node { return s.nodes[i] }

func (s RouteSegment) OffsetAt(i int) float64 { return s.offsets[i] }

func (s RouteSegment) First() Node { return s.nodes[0] }

func (s RouteSegment) Last() Node { return s.nodes[len(s.nodes)-1] }

// Cost is the total segment length in meters.
func (s RouteSegment) Cost() float64 {
	if len(s.offsets) == 0 {
		return 0
	}
	return s.offsets[len(s.offsets)-1]
}

// One entry of the ordered POI requirement list.
type POIRequirement struct {
	Category  Amenity
	DwellTime time.Duration
}

// Represents a successfully inserted POI requirement.
// Cumulative values are measured along the final route up to the POI.
type POIVisit struct {
	Node               Node
	Name               string
	Category           Amenity
	DwellTime          time.Duration
	CumulativeDistance float64
	CumulativeTime     time.Duration
}

// Remaining extra distance (meters) and extra time the route may still consume.
type Budget struct {
	RemainingDistance float64
	RemainingTime     time.Duration
}

// Path costs are sums of fractional edge lengths, so a detour that spends
// exactly the remaining budget can come out a rounding error above it.
const (
	distanceTolerance = 1e-6
	timeTolerance     = time.Microsecond
)

// Consume returns the budget shrunk by distance and t.
// It reports false, leaving the budget untouched, when either dimension would
// go negative by more than the rounding tolerance. Remainders are clamped at zero.
func (b Budget) Consume(distance float64, t time.Duration) (Budget, bool) {
	if distance < 0 {
		distance = 0
	}
	if t < 0 {
		t = 0
	}
	if distance > b.RemainingDistance+distanceTolerance || t > b.RemainingTime+timeTolerance {
		return b, false
	}

	return Budget{
		RemainingDistance: max(b.RemainingDistance-distance, 0),
		RemainingTime:     max(b.RemainingTime-t, 0),
	}, true
}

// Input of a single planning run.
type PlanRequest struct {
	Start            Point
	End              Point
	MaxExtraTime     time.Duration
	MaxExtraDistance float64
	Requirements     []POIRequirement
}

// Validate checks the request at the service boundary.
func (r PlanRequest) Validate() error {
	if !r.Start.Finite() || !r.End.Finite() {
		return fmt.Errorf("validate plan request: start and end must be finite: %w", ErrInvalidRequest)
	}
	if r.MaxExtraTime < 0 || r.MaxExtraDistance < 0 {
		return fmt.Errorf("validate plan request: budgets must be non-negative: %w", ErrInvalidRequest)
	}
	for i, req := range r.Requirements {
		if !req.Category.Valid() {
			return fmt.Errorf("validate plan request: requirement %d: %w", i, ErrUnknownAmenity)
		}
		if req.DwellTime < 0 {
			return fmt.Errorf("validate plan request: requirement %d: negative dwell time: %w", i, ErrInvalidRequest)
		}
	}
	return nil
}

// One point of the final route, annotated with POI details when it is a visit.
type PlannedPoint struct {
	Point
	NodeID             int64
	IsPOI              bool
	Category           Amenity
	Name               string
	DwellTime          time.Duration
	CumulativeDistance float64
	CumulativeTime     time.Duration
}

// The first requirement that could not be fit, and why.
type Unsatisfied struct {
	Index    int
	Category Amenity
	Reason   error
}

// Represents the planned route for a single request.
// A RoutePlan is immutable planning output; it is never persisted.
type RoutePlan struct {
	BaselinePath       []Point
	Path               []PlannedPoint
	Visits             []POIVisit
	TotalDistance      float64
	TotalTime          time.Duration
	AdditionalDistance float64
	AdditionalTime     time.Duration
	TotalDwellTime     time.Duration
	Unsatisfied        *Unsatisfied
}
