package handlers

import (
	"log"
	"net/http"

	"poi-route-service/internal/api/dto"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/obs"
	"poi-route-service/internal/ports"
)

// AmenityHandler lists the POI categories a route request may ask for.
type AmenityHandler struct {
	Repo ports.AmenityRepository
}

// List returns the known categories present in the POI data. Without a
// repository, or when it fails, the full enumeration is returned.
func (h *AmenityHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	amenities := domain.Amenities()
	if h.Repo != nil {
		present, err := h.Repo.ListAmenities(r.Context())
		if err != nil {
			log.Printf("req_id=%s list amenities failed, serving full list: %v", obs.RequestID(r.Context()), err)
		} else {
			amenities = present
		}
	}

	res := dto.ListAmenitiesResponse{
		Amenities: make([]dto.AmenityResponse, 0, len(amenities)),
	}
	for _, a := range amenities {
		res.Amenities = append(res.Amenities, dto.AmenityResponse{Key: a.Key(), Label: a.Label()})
	}

	writeJSON(w, r, http.StatusOK, res)
}
