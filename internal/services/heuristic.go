package services

import (
	"math"
	"slices"

	"github.com/paulmach/orb/planar"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/ports"
)

// referenceLine is the straight line through the snapped start and end,
// kept as slope/intercept. A vertical line (equal x, including start == end)
// has no slope; distances to it are horizontal.
type referenceLine struct {
	slope     float64
	intercept float64
	vertical  bool
	x0        float64
}

func newReferenceLine(a, b domain.Point) referenceLine {
	if a.X == b.X {
		return referenceLine{vertical: true, x0: a.X}
	}
	slope := (b.Y - a.Y) / (b.X - a.X)
	return referenceLine{slope: slope, intercept: a.Y - slope*a.X}
}

// distance is the perpendicular distance from p to the line.
func (l referenceLine) distance(p domain.Point) float64 {
	if l.vertical {
		return math.Abs(p.X - l.x0)
	}
	return math.Abs(l.slope*p.X-p.Y+l.intercept) / math.Sqrt(l.slope*l.slope+1)
}

type scoredCandidate struct {
	ports.NearbyNode
	score float64
}

// rankCandidates scores candidates with H = alpha*perp + beta*dist(tail) and
// sorts them ascending; equal scores fall back to node ID for determinism.
func rankCandidates(
	candidates []ports.NearbyNode,
	line referenceLine,
	tail domain.Point,
	alpha, beta float64,
) []scoredCandidate {
	out := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		h := alpha*line.distance(c.Node.Point) + beta*planar.Distance(c.Node.Orb(), tail.Orb())
		out = append(out, scoredCandidate{NearbyNode: c, score: h})
	}

	slices.SortStableFunc(out, func(a, b scoredCandidate) int {
		if a.score < b.score {
			return -1
		}
		if a.score > b.score {
			return 1
		}
		if a.Node.ID < b.Node.ID {
			return -1
		}
		if a.Node.ID > b.Node.ID {
			return 1
		}
		return 0
	})
	return out
}
