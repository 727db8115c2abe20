package domain

import (
	"math"

	"github.com/paulmach/orb"
)

// Immutable geographic point. X is longitude and Y is latitude (EPSG:4326).
type Point struct {
	X float64
	Y float64
}

// Orb returns the point as an orb.Point for geometry helpers.
func (p Point) Orb() orb.Point { return orb.Point{p.X, p.Y} }

// PointFromOrb converts an orb.Point scanned from the database.
func PointFromOrb(o orb.Point) Point { return Point{X: o.X(), Y: o.Y()} }

// Finite reports whether both coordinates are real numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Node is a vertex of the external road network.
// Two nodes are the same when their IDs match, whatever their coordinates.
type Node struct {
	ID int64
	Point
}

func (n Node) SameNode(o Node) bool { return n.ID == o.ID }
