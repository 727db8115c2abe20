package cache

import (
	"encoding/json"
	"fmt"

	"poi-route-service/internal/domain"
)

// Cached segments are stored as JSON so all backends share one layout.
type segmentRecord struct {
	Nodes   []nodeRecord `json:"nodes"`
	Offsets []float64    `json:"offsets"`
}

type nodeRecord struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func encodeSegment(seg domain.RouteSegment) ([]byte, error) {
	if seg.IsZero() {
		return nil, fmt.Errorf("encode segment: empty segment")
	}

	rec := segmentRecord{
		Nodes:   make([]nodeRecord, 0, seg.Len()),
		Offsets: make([]float64, 0, seg.Len()),
	}
	for i := 0; i < seg.Len(); i++ {
		n := seg.Node(i)
		rec.Nodes = append(rec.Nodes, nodeRecord{ID: n.ID, X: n.X, Y: n.Y})
		rec.Offsets = append(rec.Offsets, seg.OffsetAt(i))
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode segment: %w", err)
	}
	return b, nil
}

func decodeSegment(b []byte) (domain.RouteSegment, error) {
	var rec segmentRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.RouteSegment{}, fmt.Errorf("decode segment: %w", err)
	}

	nodes := make([]domain.Node, 0, len(rec.Nodes))
	for _, n := range rec.Nodes {
		nodes = append(nodes, domain.Node{ID: n.ID, Point: domain.Point{X: n.X, Y: n.Y}})
	}

	seg, err := domain.NewRouteSegment(nodes, rec.Offsets)
	if err != nil {
		return domain.RouteSegment{}, fmt.Errorf("decode segment: %w", err)
	}
	return seg, nil
}

// checkKey rejects a segment that does not run from -> to.
func checkKey(from, to int64, seg domain.RouteSegment) error {
	if seg.First().ID != from || seg.Last().ID != to {
		return fmt.Errorf(
			"segment runs %d -> %d, key is %d -> %d",
			seg.First().ID, seg.Last().ID, from, to,
		)
	}
	return nil
}
