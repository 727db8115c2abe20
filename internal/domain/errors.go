package domain

import "errors"

var (
	// ErrNotFound is a normal "nothing there" outcome of a graph query.
	ErrNotFound = errors.New("not found")

	// Fatal planning failures: no route can be produced at all.
	ErrEndpointUnreachable = errors.New("endpoint unreachable")
	ErrNoBaselineRoute     = errors.New("no baseline route")

	// Non-fatal: the route exists but a POI requirement could not be fit.
	ErrNoCandidateFound    = errors.New("no candidate found")
	ErrInsertionInfeasible = errors.New("insertion infeasible")

	ErrUnknownAmenity = errors.New("unknown amenity")
	ErrInvalidRequest = errors.New("invalid request")
)
