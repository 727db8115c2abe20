package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"poi-route-service/internal/api/handlers"
	"poi-route-service/internal/config"
	"poi-route-service/internal/ports"
	"poi-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Only route planning is rate limited; it is the one endpoint that hits the
// routing database hard.
func NewRouter(
	graph services.RouteGraph,
	planner config.Planner,
	amenities ports.AmenityRepository,
	limiter *rate.Limiter,
) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{Graph: graph, Planner: planner}
	amenityHandler := &handlers.AmenityHandler{Repo: amenities}

	mux.HandleFunc("/{$}", handlers.Health)
	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/amenities", amenityHandler.List)
	mux.Handle("/routes", rateLimitMiddleware(limiter, http.HandlerFunc(routeHandler.Plan)))
	mux.Handle("/metrics", promhttp.Handler())

	return requestIDMiddleware(loggingMiddleware(mux))
}
