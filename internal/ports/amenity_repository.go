package ports

import (
	"context"
	"poi-route-service/internal/domain"
)

// Port: a boundary for discovering which POI categories the data source holds.
type AmenityRepository interface {
	// Retrieve the known amenities present in at least one POI.
	ListAmenities(ctx context.Context) ([]domain.Amenity, error)
}
