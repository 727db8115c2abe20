package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"golang.org/x/sync/errgroup"
	"poi-route-service/internal/config"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/obs"
	"poi-route-service/internal/ports"
)

// RouteGraph is what the augmentor needs from the routing graph client.
type RouteGraph interface {
	Snap(ctx context.Context, p domain.Point) (domain.Node, error)
	ShortestPath(ctx context.Context, from, to domain.Node) (domain.RouteSegment, bool, error)
	CandidatesNear(ctx context.Context, p domain.Point, minDistance, maxDistance float64, category domain.Amenity) ([]ports.NearbyNode, error)
	Velocity() domain.Velocity
}

// Augmentation is the raw output of one augmentation run.
// Offsets[i] is the cumulative distance at Path[i]; VisitAt[k] is the index
// in Path of Visits[k].
type Augmentation struct {
	Start, End  domain.Node
	Baseline    domain.RouteSegment
	Path        []domain.Node
	Offsets     []float64
	Visits      []domain.POIVisit
	VisitAt     []int
	Cost        float64
	Remaining   domain.Budget
	Unsatisfied *domain.Unsatisfied
}

// RouteAugmentor inserts POI visits into a baseline shortest path.
//
// Requirements are resolved strictly in list order. For each one the
// candidates around the current path end are ranked by the heuristic and the
// first candidate whose detour exists, repeats no node and fits the remaining
// budget is accepted. The first requirement that cannot be resolved ends the
// loop; the route then continues to the destination along the cached tail.
type RouteAugmentor struct {
	graph      RouteGraph
	alpha      float64
	beta       float64
	concurrent bool
}

func NewRouteAugmentor(graph RouteGraph, cfg config.Planner) *RouteAugmentor {
	return &RouteAugmentor{
		graph:      graph,
		alpha:      cfg.Alpha,
		beta:       cfg.Beta,
		concurrent: cfg.ConcurrentValidation,
	}
}

// augmentation is the mutable state of a single run. It is owned by one
// Augment call and never shared.
type augmentation struct {
	path     []domain.Node
	offsets  []float64
	onPath   map[int64]struct{}
	cost     float64
	budget   domain.Budget
	extra    float64 // distance already committed beyond the baseline
	visits   []domain.POIVisit
	visitAt  []int
	tail     *domain.RouteSegment
	baseline domain.RouteSegment
	end      domain.Node
	line     referenceLine
}

func (s *augmentation) last() domain.Node { return s.path[len(s.path)-1] }

func (s *augmentation) push(n domain.Node, offset float64) {
	s.path = append(s.path, n)
	s.offsets = append(s.offsets, offset)
	s.onPath[n.ID] = struct{}{}
}

// revisits reports whether appending to[1:] and then from[1:] would repeat a node.
func (s *augmentation) revisits(to, from domain.RouteSegment) bool {
	seen := make(map[int64]struct{}, to.Len())
	for i := 1; i < to.Len(); i++ {
		id := to.Node(i).ID
		if _, ok := s.onPath[id]; ok {
			return true
		}
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	for i := 1; i < from.Len(); i++ {
		id := from.Node(i).ID
		if _, ok := s.onPath[id]; ok {
			return true
		}
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// Augment plans the route for req. Only an unreachable endpoint, a missing
// baseline route, a backend failure before the loop, or context cancellation
// fail the run; requirements that cannot be fit end up in Unsatisfied.
func (a *RouteAugmentor) Augment(ctx context.Context, req domain.PlanRequest) (*Augmentation, error) {
	start, err := a.graph.Snap(ctx, req.Start)
	if err != nil {
		return nil, snapError("start", err)
	}
	end, err := a.graph.Snap(ctx, req.End)
	if err != nil {
		return nil, snapError("end", err)
	}

	baseline, ok, err := a.graph.ShortestPath(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("augment route: baseline %d -> %d: %w", start.ID, end.ID, err)
	}
	if !ok {
		return nil, fmt.Errorf("augment route: baseline %d -> %d: %w", start.ID, end.ID, domain.ErrNoBaselineRoute)
	}

	// The baseline is the first valid tail: from the start to the destination.
	tail := baseline
	s := &augmentation{
		onPath: make(map[int64]struct{}, baseline.Len()),
		budget: domain.Budget{
			RemainingDistance: req.MaxExtraDistance,
			RemainingTime:     req.MaxExtraTime,
		},
		tail:     &tail,
		baseline: baseline,
		end:      end,
		line:     newReferenceLine(start.Point, end.Point),
	}
	s.push(start, 0)

	var unsatisfied *domain.Unsatisfied
	for i, r := range req.Requirements {
		if unsatisfied != nil {
			obs.VisitsTotal.WithLabelValues(r.Category.String(), "skipped").Inc()
			continue
		}

		if err := a.insert(ctx, s, r); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("augment route: requirement %d: %w", i, ctx.Err())
			}
			unsatisfied = &domain.Unsatisfied{Index: i, Category: r.Category, Reason: err}
			obs.VisitsTotal.WithLabelValues(r.Category.String(), outcomeOf(err)).Inc()
			log.Printf(
				"req_id=%s augment requirement=%d category=%s outcome=%s err=%v",
				obs.RequestID(ctx), i, r.Category, outcomeOf(err), err,
			)
			continue
		}

		obs.VisitsTotal.WithLabelValues(r.Category.String(), "accepted").Inc()
		v := s.visits[len(s.visits)-1]
		log.Printf(
			"req_id=%s augment requirement=%d category=%s outcome=accepted node=%d remaining_m=%.0f remaining_s=%.0f",
			obs.RequestID(ctx), i, r.Category, v.Node.ID, s.budget.RemainingDistance, s.budget.RemainingTime.Seconds(),
		)
	}

	if err := a.finalize(ctx, s); err != nil {
		return nil, fmt.Errorf("augment route: %w", err)
	}

	return &Augmentation{
		Start:       start,
		End:         end,
		Baseline:    baseline,
		Path:        s.path,
		Offsets:     s.offsets,
		Visits:      s.visits,
		VisitAt:     s.visitAt,
		Cost:        s.cost,
		Remaining:   s.budget,
		Unsatisfied: unsatisfied,
	}, nil
}

// insert resolves one requirement, mutating s only on acceptance.
// It returns domain.ErrNoCandidateFound or domain.ErrInsertionInfeasible
// (possibly wrapping a backend error) when the requirement cannot be fit.
func (a *RouteAugmentor) insert(ctx context.Context, s *augmentation, r domain.POIRequirement) error {
	v := a.graph.Velocity()
	from := s.last()

	maxDistance := math.Min(s.budget.RemainingDistance, v.DistanceFor(s.budget.RemainingTime))
	minDistance := v.DistanceFor(r.DwellTime)

	found, err := a.graph.CandidatesNear(ctx, from.Point, minDistance, maxDistance, r.Category)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNoCandidateFound, err)
	}

	candidates := make([]ports.NearbyNode, 0, len(found))
	for _, c := range found {
		if _, ok := s.onPath[c.Node.ID]; !ok {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return fmt.Errorf(
			"%s within (%.0fm, %.0fm] of node %d: %w",
			r.Category, minDistance, maxDistance, from.ID, domain.ErrNoCandidateFound,
		)
	}

	// Lower score is preferred, but infeasible detours are skipped, not penalized.
	for _, c := range rankCandidates(candidates, s.line, from.Point, a.alpha, a.beta) {
		to, back, ok, err := a.legs(ctx, from, c.Node, s.end)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("req_id=%s augment candidate=%d legs failed: %v", obs.RequestID(ctx), c.Node.ID, err)
			continue
		}
		if !ok || s.revisits(to, back) {
			continue
		}

		total := s.cost + to.Cost() + back.Cost()
		additional := total - s.baseline.Cost()
		increment := additional - s.extra

		next, ok := s.budget.Consume(increment, v.TimeFor(increment))
		if !ok {
			continue
		}

		nodes := to.Nodes()
		for j := 1; j < len(nodes); j++ {
			s.push(nodes[j], s.cost+to.OffsetAt(j))
		}
		s.cost += to.Cost()
		s.budget = next
		s.extra = math.Max(additional, s.extra)
		s.tail = &back

		s.visits = append(s.visits, domain.POIVisit{
			Node:               c.Node,
			Name:               c.Name,
			Category:           r.Category,
			DwellTime:          r.DwellTime,
			CumulativeDistance: s.cost,
			CumulativeTime:     v.TimeFor(s.cost),
		})
		s.visitAt = append(s.visitAt, len(s.path)-1)
		return nil
	}

	return fmt.Errorf(
		"%s: none of %d candidates fits the remaining budget: %w",
		r.Category, len(candidates), domain.ErrInsertionInfeasible,
	)
}

// legs fetches tail -> candidate and candidate -> destination. ok is false
// when either path does not exist.
func (a *RouteAugmentor) legs(
	ctx context.Context,
	from, candidate, end domain.Node,
) (to, back domain.RouteSegment, ok bool, err error) {
	if !a.concurrent {
		to, ok, err = a.graph.ShortestPath(ctx, from, candidate)
		if err != nil || !ok {
			return to, back, false, err
		}
		back, ok, err = a.graph.ShortestPath(ctx, candidate, end)
		return to, back, ok, err
	}

	var toOK, backOK bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		to, toOK, err = a.graph.ShortestPath(gctx, from, candidate)
		return err
	})
	g.Go(func() error {
		var err error
		back, backOK, err = a.graph.ShortestPath(gctx, candidate, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return to, back, false, err
	}
	return to, back, toOK && backOK, nil
}

// finalize appends the route from the current path end to the destination.
// The cached tail is used when it starts at the path end; otherwise the
// tail is recomputed.
func (a *RouteAugmentor) finalize(ctx context.Context, s *augmentation) error {
	last := s.last()

	var tail domain.RouteSegment
	if s.tail != nil && s.tail.First().SameNode(last) {
		tail = *s.tail
	} else {
		seg, ok, err := a.graph.ShortestPath(ctx, last, s.end)
		if err != nil {
			return fmt.Errorf("finalize: tail %d -> %d: %w", last.ID, s.end.ID, err)
		}
		if !ok {
			return fmt.Errorf("finalize: tail %d -> %d: %w", last.ID, s.end.ID, domain.ErrNoBaselineRoute)
		}
		tail = seg
	}

	nodes := tail.Nodes()
	for j := 1; j < len(nodes); j++ {
		s.push(nodes[j], s.cost+tail.OffsetAt(j))
	}
	s.cost += tail.Cost()

	if !s.last().SameNode(s.end) {
		s.push(s.end, s.cost)
	}
	return nil
}

func snapError(which string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("augment route: snap %s: %w: %w", which, domain.ErrEndpointUnreachable, err)
	}
	return fmt.Errorf("augment route: snap %s: %w", which, err)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoCandidateFound):
		return "no_candidate"
	case errors.Is(err, domain.ErrInsertionInfeasible):
		return "infeasible"
	default:
		return "error"
	}
}
