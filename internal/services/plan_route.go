package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"poi-route-service/internal/config"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/obs"
)

// PlanRoute plans a route from req.Start to req.End that visits one POI per
// requirement, in order, within the extra distance/time budget.
//
// Requirements that cannot be fit do not fail the request: the plan then
// holds fewer visits and reports the first unsatisfied requirement.
// Travel time is derived from distance at the configured velocity; dwell
// times are reported per visit and summed separately.
func PlanRoute(
	ctx context.Context,
	req domain.PlanRequest,
	graph RouteGraph,
	cfg config.Planner,
) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "plan.Route")(&err)
	partial := false
	defer func() { obs.PlansTotal.WithLabelValues(planOutcome(err, partial)).Inc() }()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	aug, err := NewRouteAugmentor(graph, cfg).Augment(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	plan := buildRoutePlan(aug, graph.Velocity())
	partial = plan.Unsatisfied != nil
	return plan, nil
}

func buildRoutePlan(aug *Augmentation, v domain.Velocity) *domain.RoutePlan {
	baseline := aug.Baseline.Nodes()
	baselinePath := make([]domain.Point, 0, len(baseline))
	for _, n := range baseline {
		baselinePath = append(baselinePath, n.Point)
	}

	visitByIndex := make(map[int]domain.POIVisit, len(aug.Visits))
	for k, idx := range aug.VisitAt {
		visitByIndex[idx] = aug.Visits[k]
	}

	path := make([]domain.PlannedPoint, 0, len(aug.Path))
	for i, n := range aug.Path {
		pp := domain.PlannedPoint{
			Point:              n.Point,
			NodeID:             n.ID,
			CumulativeDistance: aug.Offsets[i],
			CumulativeTime:     v.TimeFor(aug.Offsets[i]),
		}
		if visit, ok := visitByIndex[i]; ok {
			pp.IsPOI = true
			pp.Category = visit.Category
			pp.Name = visit.Name
			pp.DwellTime = visit.DwellTime
		}
		path = append(path, pp)
	}

	var dwell time.Duration
	for _, visit := range aug.Visits {
		dwell += visit.DwellTime
	}

	additional := math.Max(aug.Cost-aug.Baseline.Cost(), 0)

	return &domain.RoutePlan{
		BaselinePath:       baselinePath,
		Path:               path,
		Visits:             aug.Visits,
		TotalDistance:      aug.Cost,
		TotalTime:          v.TimeFor(aug.Cost),
		AdditionalDistance: additional,
		AdditionalTime:     v.TimeFor(additional),
		TotalDwellTime:     dwell,
		Unsatisfied:        aug.Unsatisfied,
	}
}

func planOutcome(err error, partial bool) string {
	switch {
	case err == nil && partial:
		return "partial"
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEndpointUnreachable):
		return "unreachable"
	case errors.Is(err, domain.ErrNoBaselineRoute):
		return "no_route"
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownAmenity):
		return "invalid"
	default:
		return "error"
	}
}
