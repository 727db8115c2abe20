package pgrouting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/obs"
	"poi-route-service/internal/ports"
)

// Graph is a RoutingGraph over an osm2pgsql import prepared for pgRouting:
// planet_osm_roads carries source/target vertex IDs and
// planet_osm_roads_vertices_pgr holds the vertices. Geometries are stored in
// EPSG:3857; points in and out of the adapter are EPSG:4326, and every
// distance is measured on the geography type in meters.
type Graph struct {
	DB *sql.DB
}

func NewGraph(db *sql.DB) *Graph {
	return &Graph{DB: db}
}

var _ ports.RoutingGraph = (*Graph)(nil)

const nearestNodeQuery = `
WITH q AS (SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326) AS pt)
SELECT v.id, ST_AsBinary(ST_Transform(v.the_geom, 4326))
FROM planet_osm_roads_vertices_pgr v, q
WHERE ST_DWithin(ST_Transform(v.the_geom, 4326)::geography, q.pt::geography, $3)
	AND EXISTS (
		SELECT 1 FROM planet_osm_roads r
		WHERE (r.source = v.id OR r.target = v.id)
			AND r.highway = ANY($4::text[])
	)
ORDER BY ST_Transform(v.the_geom, 4326)::geography <-> q.pt::geography, v.id
LIMIT 1;
`

func (g *Graph) NearestNode(
	ctx context.Context,
	p domain.Point,
	radius float64,
	roads []domain.RoadClass,
) (_ domain.Node, _ bool, err error) {
	defer obs.Time(ctx, "pgrouting.NearestNode")(&err)

	if g.DB == nil {
		return domain.Node{}, false, errors.New("nearest node: db is nil")
	}

	var id int64
	var pt orb.Point
	err = g.DB.QueryRowContext(ctx, nearestNodeQuery, p.X, p.Y, radius, roadNames(roads)).
		Scan(&id, wkb.Scanner(&pt))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Node{}, false, nil
	}
	if err != nil {
		return domain.Node{}, false, fmt.Errorf("nearest node: query vertices: %w", err)
	}

	return domain.Node{ID: id, Point: domain.PointFromOrb(pt)}, true, nil
}

const shortestPathQuery = `
SELECT d.node, d.agg_cost, ST_AsBinary(ST_Transform(v.the_geom, 4326))
FROM pgr_dijkstra($1, $2::bigint, $3::bigint, directed => false) d
JOIN planet_osm_roads_vertices_pgr v ON v.id = d.node
ORDER BY d.seq;
`

func (g *Graph) ShortestPath(
	ctx context.Context,
	from, to domain.Node,
	window float64,
	roads []domain.RoadClass,
) (_ domain.RouteSegment, _ bool, err error) {
	defer obs.Time(ctx, "pgrouting.ShortestPath")(&err)

	if g.DB == nil {
		return domain.RouteSegment{}, false, errors.New("shortest path: db is nil")
	}
	if from.SameNode(to) {
		return domain.SingleNodeSegment(from), true, nil
	}

	rows, err := g.DB.QueryContext(ctx, shortestPathQuery, edgesQuery(roads, from.Point, to.Point, window), from.ID, to.ID)
	if err != nil {
		return domain.RouteSegment{}, false, fmt.Errorf("shortest path %d -> %d: pgr_dijkstra: %w", from.ID, to.ID, err)
	}
	defer rows.Close()

	var nodes []domain.Node
	var offsets []float64
	for rows.Next() {
		var id int64
		var agg float64
		var pt orb.Point
		if err := rows.Scan(&id, &agg, wkb.Scanner(&pt)); err != nil {
			return domain.RouteSegment{}, false, fmt.Errorf("shortest path %d -> %d: scan rows: %w", from.ID, to.ID, err)
		}
		nodes = append(nodes, domain.Node{ID: id, Point: domain.PointFromOrb(pt)})
		offsets = append(offsets, agg)
	}
	if err := rows.Err(); err != nil {
		return domain.RouteSegment{}, false, fmt.Errorf("shortest path %d -> %d: row iteration: %w", from.ID, to.ID, err)
	}

	if len(nodes) == 0 {
		return domain.RouteSegment{}, false, nil
	}

	seg, err := domain.NewRouteSegment(nodes, offsets)
	if err != nil {
		return domain.RouteSegment{}, false, fmt.Errorf("shortest path %d -> %d: %w", from.ID, to.ID, err)
	}
	return seg, true, nil
}

// edgesQuery builds the edge SQL handed to pgr_dijkstra. pgRouting takes it
// as text, so the road classes and the window are rendered inline; both come
// from closed sets or numbers, never from request strings.
func edgesQuery(roads []domain.RoadClass, a, b domain.Point, window float64) string {
	quoted := make([]string, 0, len(roads))
	for _, rc := range roads {
		quoted = append(quoted, "'"+string(rc)+"'")
	}

	var sb strings.Builder
	sb.WriteString("SELECT osm_id AS id, source, target, ")
	sb.WriteString("ST_Length(ST_Transform(way, 4326)::geography) AS cost ")
	sb.WriteString("FROM planet_osm_roads WHERE source IS NOT NULL AND target IS NOT NULL")
	sb.WriteString(" AND highway IN (" + strings.Join(quoted, ", ") + ")")

	if window > 0 {
		sb.WriteString(fmt.Sprintf(
			" AND way && ST_Expand(ST_Transform(ST_MakeEnvelope(%s, %s, %s, %s, 4326), 3857), %s)",
			num(math.Min(a.X, b.X)), num(math.Min(a.Y, b.Y)),
			num(math.Max(a.X, b.X)), num(math.Max(a.Y, b.Y)),
			num(window),
		))
	}
	return sb.String()
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// POIs are mapped onto the closest vertex of an allowed road class; the
// reported distance is the geographic distance from the query point to the
// POI itself.
const nodesWithinQuery = `
WITH q AS (SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS pt)
SELECT v.id,
	ST_AsBinary(ST_Transform(v.the_geom, 4326)),
	COALESCE(p.name, ''),
	ST_Distance(ST_Transform(p.way, 4326)::geography, q.pt) AS dist
FROM planet_osm_point p
CROSS JOIN q
CROSS JOIN LATERAL (
	SELECT pv.id, pv.the_geom
	FROM planet_osm_roads_vertices_pgr pv
	WHERE EXISTS (
		SELECT 1 FROM planet_osm_roads r
		WHERE (r.source = pv.id OR r.target = pv.id)
			AND r.highway = ANY($5::text[])
	)
	ORDER BY pv.the_geom <-> p.way
	LIMIT 1
) v
WHERE p.amenity = $3
	AND ST_DWithin(ST_Transform(p.way, 4326)::geography, q.pt, $4)
ORDER BY dist, v.id;
`

func (g *Graph) NodesWithin(
	ctx context.Context,
	p domain.Point,
	radius float64,
	category domain.Amenity,
	roads []domain.RoadClass,
) (_ []ports.NearbyNode, err error) {
	defer obs.Time(ctx, "pgrouting.NodesWithin")(&err)

	if g.DB == nil {
		return nil, errors.New("nodes within: db is nil")
	}
	if !category.Valid() {
		return nil, fmt.Errorf("nodes within: %w", domain.ErrUnknownAmenity)
	}

	rows, err := g.DB.QueryContext(ctx, nodesWithinQuery, p.X, p.Y, category.Key(), radius, roadNames(roads))
	if err != nil {
		return nil, fmt.Errorf("nodes within: query planet_osm_point: %w", err)
	}
	defer rows.Close()

	out := []ports.NearbyNode{}
	seen := map[int64]struct{}{}
	for rows.Next() {
		var n ports.NearbyNode
		var pt orb.Point
		if err := rows.Scan(&n.Node.ID, wkb.Scanner(&pt), &n.Name, &n.Distance); err != nil {
			return nil, fmt.Errorf("nodes within: scan rows: %w", err)
		}
		// Several POIs can share a vertex; the closest one names it.
		if _, ok := seen[n.Node.ID]; ok {
			continue
		}
		seen[n.Node.ID] = struct{}{}
		n.Node.Point = domain.PointFromOrb(pt)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nodes within: row iteration: %w", err)
	}

	return out, nil
}

func roadNames(roads []domain.RoadClass) []string {
	out := make([]string, 0, len(roads))
	for _, rc := range roads {
		out = append(out, string(rc))
	}
	return out
}
