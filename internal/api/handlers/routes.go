package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"poi-route-service/internal/api/dto"
	"poi-route-service/internal/config"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/obs"
	"poi-route-service/internal/services"
)

const maxRouteBodyBytes = 1 << 20

type RouteHandler struct {
	Graph   services.RouteGraph
	Planner config.Planner
}

// Plan decodes a route request, runs the planner and renders the annotated path.
// A plan that could not fit every POI is still a 200; the first unmet
// requirement is reported in "unsatisfied".
func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.RouteRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRouteBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	planReq, err := toPlanRequest(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := services.PlanRoute(r.Context(), planReq, h.Graph, h.Planner)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownAmenity):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrEndpointUnreachable):
		writeError(w, r, http.StatusUnprocessableEntity, "endpoint_unreachable")
		return
	case errors.Is(err, domain.ErrNoBaselineRoute):
		writeError(w, r, http.StatusUnprocessableEntity, "no_route")
		return
	default:
		log.Printf("req_id=%s plan route failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toRouteResponse(plan))
}

func toPlanRequest(req dto.RouteRequest) (domain.PlanRequest, error) {
	if req.Start == nil || req.End == nil {
		return domain.PlanRequest{}, errors.New("start and end are required")
	}

	reqs := make([]domain.POIRequirement, 0, len(req.POIs))
	for i, p := range req.POIs {
		a, err := domain.ParseAmenity(p.Category)
		if err != nil {
			return domain.PlanRequest{}, fmt.Errorf("pois[%d]: unknown category %q", i, p.Category)
		}
		if p.DwellTime < 0 {
			return domain.PlanRequest{}, fmt.Errorf("pois[%d]: dwell_time must not be negative", i)
		}
		reqs = append(reqs, domain.POIRequirement{Category: a, DwellTime: fromSeconds(p.DwellTime)})
	}

	return domain.PlanRequest{
		Start:            domain.Point{X: req.Start.X, Y: req.Start.Y},
		End:              domain.Point{X: req.End.X, Y: req.End.Y},
		MaxExtraTime:     fromSeconds(req.MaxExtraTime),
		MaxExtraDistance: req.MaxExtraDistance,
		Requirements:     reqs,
	}, nil
}

func toRouteResponse(plan *domain.RoutePlan) dto.RouteResponse {
	res := dto.RouteResponse{
		BaselinePath:       make([]dto.Point, 0, len(plan.BaselinePath)),
		Points:             make([]dto.RoutePointResponse, 0, len(plan.Path)),
		TotalTime:          toSeconds(plan.TotalTime),
		TotalDistance:      plan.TotalDistance,
		AdditionalTime:     toSeconds(plan.AdditionalTime),
		AdditionalDistance: plan.AdditionalDistance,
		TotalDwellTime:     toSeconds(plan.TotalDwellTime),
	}

	for _, p := range plan.BaselinePath {
		res.BaselinePath = append(res.BaselinePath, dto.Point{X: p.X, Y: p.Y})
	}

	for _, p := range plan.Path {
		pt := dto.RoutePointResponse{
			X:                  p.X,
			Y:                  p.Y,
			NodeID:             p.NodeID,
			IsPOI:              p.IsPOI,
			CumulativeDistance: p.CumulativeDistance,
			CumulativeTime:     toSeconds(p.CumulativeTime),
		}
		if p.IsPOI {
			dwell := toSeconds(p.DwellTime)
			pt.POICategory = p.Category.Key()
			pt.POIName = p.Name
			pt.DwellTime = &dwell
		}
		res.Points = append(res.Points, pt)
	}

	if u := plan.Unsatisfied; u != nil {
		res.Unsatisfied = &dto.UnsatisfiedResponse{
			Index:    u.Index,
			Category: u.Category.Key(),
			Reason:   unsatisfiedReason(u.Reason),
		}
	}

	return res
}

func unsatisfiedReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoCandidateFound):
		return "no_candidate_found"
	case errors.Is(err, domain.ErrInsertionInfeasible):
		return "insertion_infeasible"
	default:
		return "error"
	}
}
