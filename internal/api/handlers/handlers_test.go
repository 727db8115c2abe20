package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"poi-route-service/internal/adapters/graph"
	"poi-route-service/internal/api/dto"
	"poi-route-service/internal/config"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/services"
)

func testPlanner() config.Planner {
	cfg := config.DefaultPlanner()
	cfg.Velocity = 10
	cfg.InitialSearchRadius = 500
	cfg.MaxSearchRadius = 4000
	cfg.InitialPathWindow = 100
	cfg.MaxPathWindow = 800
	return cfg
}

func newRouteHandler(t *testing.T) *RouteHandler {
	t.Helper()

	g := graph.NewMockRoutingGraph()
	g.AddNode(1, 0, 0)
	g.AddNode(2, 500, 0)
	g.AddNode(3, 1000, 0)
	g.AddNode(10, 30, 40)
	g.AddPOI(10, domain.AmenityCafe, "Cafe North")
	g.AddPath(graph.MockPath{From: 1, To: 3, Via: []int64{2}, Cost: 1000})
	g.AddPath(graph.MockPath{From: 1, To: 10, Cost: 60})
	g.AddPath(graph.MockPath{From: 10, To: 3, Cost: 1000})

	client, err := services.NewGraphClient(g, nil, testPlanner())
	if err != nil {
		t.Fatalf("new graph client: %v", err)
	}
	return &RouteHandler{Graph: client, Planner: testPlanner()}
}

func postRoute(h *RouteHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/routes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Plan(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestPlanRoute(t *testing.T) {
	h := newRouteHandler(t)
	rec := postRoute(h, `{
		"start": {"x": 0, "y": 0},
		"end": {"x": 1000, "y": 0},
		"max_extra_time": 3600,
		"max_extra_distance": 200,
		"pois": [{"category": "cafe", "dwell_time": 2}]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var res dto.RouteResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(res.Points) != 3 || len(res.BaselinePath) != 3 {
		t.Fatalf("points = %d baseline = %d, want 3 and 3", len(res.Points), len(res.BaselinePath))
	}
	poi := res.Points[1]
	if !poi.IsPOI || poi.POICategory != "cafe" || poi.POIName != "Cafe North" || poi.NodeID != 10 {
		t.Fatalf("poi = %+v", poi)
	}
	if poi.DwellTime == nil || *poi.DwellTime != 2 {
		t.Fatalf("dwell = %v, want 2", poi.DwellTime)
	}
	if res.Points[0].DwellTime != nil {
		t.Fatalf("non-POI point carries a dwell time")
	}
	if res.TotalDistance != 1060 || res.TotalTime != 106 {
		t.Fatalf("totals = %v m / %v s, want 1060 / 106", res.TotalDistance, res.TotalTime)
	}
	if res.AdditionalDistance != 60 || res.TotalDwellTime != 2 {
		t.Fatalf("additional = %v, dwell = %v", res.AdditionalDistance, res.TotalDwellTime)
	}
	if res.Unsatisfied != nil {
		t.Fatalf("unexpected unsatisfied: %+v", res.Unsatisfied)
	}
}

func TestPlanRouteReportsUnsatisfied(t *testing.T) {
	h := newRouteHandler(t)
	rec := postRoute(h, `{
		"start": {"x": 0, "y": 0},
		"end": {"x": 1000, "y": 0},
		"max_extra_time": 3600,
		"max_extra_distance": 200,
		"pois": [{"category": "pharmacy", "dwell_time": 60}]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res dto.RouteResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Unsatisfied == nil || res.Unsatisfied.Category != "pharmacy" || res.Unsatisfied.Reason != "no_candidate_found" {
		t.Fatalf("unsatisfied = %+v", res.Unsatisfied)
	}
	if res.TotalDistance != 1000 {
		t.Fatalf("total distance = %v, want baseline 1000", res.TotalDistance)
	}
}

func TestPlanRouteBadRequests(t *testing.T) {
	h := newRouteHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"start":`},
		{"unknown field", `{"start":{"x":0,"y":0},"end":{"x":1,"y":1},"speed":3}`},
		{"missing end", `{"start":{"x":0,"y":0}}`},
		{"unknown category", `{"start":{"x":0,"y":0},"end":{"x":1,"y":1},"pois":[{"category":"spaceport"}]}`},
		{"negative dwell", `{"start":{"x":0,"y":0},"end":{"x":1,"y":1},"pois":[{"category":"cafe","dwell_time":-1}]}`},
		{"negative budget", `{"start":{"x":0,"y":0},"end":{"x":1,"y":1},"max_extra_distance":-5}`},
		{"two objects", `{"start":{"x":0,"y":0},"end":{"x":1,"y":1}} {}`},
	}

	for _, tt := range tests {
		rec := postRoute(h, tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", tt.name, rec.Code)
		}
	}
}

func TestPlanRouteUnprocessable(t *testing.T) {
	h := newRouteHandler(t)

	rec := postRoute(h, `{"start":{"x":-90000,"y":0},"end":{"x":1000,"y":0}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if got := decodeError(t, rec); got != "endpoint_unreachable" {
		t.Fatalf("error = %q, want endpoint_unreachable", got)
	}
}

func TestPlanRouteMethodNotAllowed(t *testing.T) {
	h := newRouteHandler(t)
	rec := httptest.NewRecorder()
	h.Plan(rec, httptest.NewRequest(http.MethodGet, "/routes", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("Allow = %q, want POST", got)
	}
}

type stubAmenityRepo struct {
	amenities []domain.Amenity
	err       error
}

func (s stubAmenityRepo) ListAmenities(ctx context.Context) ([]domain.Amenity, error) {
	return s.amenities, s.err
}

func listAmenities(t *testing.T, h *AmenityHandler) dto.ListAmenitiesResponse {
	t.Helper()

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/amenities", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var res dto.ListAmenitiesResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res
}

func TestListAmenities(t *testing.T) {
	res := listAmenities(t, &AmenityHandler{Repo: stubAmenityRepo{
		amenities: []domain.Amenity{domain.AmenityFastFood, domain.AmenityFuel},
	}})
	if len(res.Amenities) != 2 {
		t.Fatalf("amenities = %+v, want 2", res.Amenities)
	}
	if res.Amenities[0].Key != "fast_food" || res.Amenities[0].Label != "Fast food" {
		t.Fatalf("first = %+v, want fast_food / Fast food", res.Amenities[0])
	}

	all := len(domain.Amenities())
	if res := listAmenities(t, &AmenityHandler{}); len(res.Amenities) != all {
		t.Fatalf("without repo: %d amenities, want %d", len(res.Amenities), all)
	}
	failing := &AmenityHandler{Repo: stubAmenityRepo{err: errors.New("db down")}}
	if res := listAmenities(t, failing); len(res.Amenities) != all {
		t.Fatalf("failing repo: %d amenities, want %d", len(res.Amenities), all)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
