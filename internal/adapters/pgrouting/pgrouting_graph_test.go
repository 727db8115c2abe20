package pgrouting

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"poi-route-service/internal/domain"
)

func TestEdgesQueryWindow(t *testing.T) {
	roads := []domain.RoadClass{domain.RoadPrimary, domain.RoadSecondary}
	q := edgesQuery(roads, domain.Point{X: 13.4, Y: 52.6}, domain.Point{X: 13.2, Y: 52.5}, 2000)

	require.Contains(t, q, "highway IN ('primary', 'secondary')")
	require.Contains(t, q, "ST_MakeEnvelope(13.2, 52.5, 13.4, 52.6, 4326)")
	require.Contains(t, q, "3857), 2000)")
	require.True(t, strings.HasPrefix(q, "SELECT osm_id AS id, source, target"))
}

func TestEdgesQueryUnbounded(t *testing.T) {
	q := edgesQuery([]domain.RoadClass{domain.RoadMotorway}, domain.Point{}, domain.Point{X: 1, Y: 1}, 0)

	require.NotContains(t, q, "ST_Expand")
	require.Contains(t, q, "highway IN ('motorway')")
}

func TestRoadNames(t *testing.T) {
	require.Equal(t, []string{"trunk", "tertiary"}, roadNames([]domain.RoadClass{domain.RoadTrunk, domain.RoadTertiary}))
	require.Empty(t, roadNames(nil))
}

func TestPOIVertexRestrictedToRoadClasses(t *testing.T) {
	lateral := nodesWithinQuery[strings.Index(nodesWithinQuery, "CROSS JOIN LATERAL"):strings.Index(nodesWithinQuery, ") v")]

	require.Contains(t, lateral, "r.highway = ANY($5::text[])")
	require.Contains(t, lateral, "r.source = pv.id OR r.target = pv.id")
	require.Less(t, strings.Index(lateral, "WHERE EXISTS"), strings.Index(lateral, "ORDER BY"))
}

func TestGraphNilDB(t *testing.T) {
	g := NewGraph(nil)
	ctx := context.Background()

	_, _, err := g.NearestNode(ctx, domain.Point{}, 100, nil)
	require.Error(t, err)

	n := domain.Node{ID: 4}
	_, _, err = g.ShortestPath(ctx, n, n, 0, nil)
	require.Error(t, err)

	_, err = g.NodesWithin(ctx, domain.Point{}, 100, domain.AmenityCafe, []domain.RoadClass{domain.RoadPrimary})
	require.Error(t, err)
}
