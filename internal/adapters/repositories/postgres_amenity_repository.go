package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/obs"
	"poi-route-service/internal/ports"
)

// Postgres-backed implementation of the AmenityRepository port, reading the
// osm2pgsql point table.
type PostgresAmenityRepository struct{ DB *sql.DB }

func NewPostgresAmenityRepository(db *sql.DB) *PostgresAmenityRepository {
	return &PostgresAmenityRepository{DB: db}
}

var _ ports.AmenityRepository = (*PostgresAmenityRepository)(nil)

// Return the known amenities that tag at least one POI, in enumeration order.
func (s *PostgresAmenityRepository) ListAmenities(ctx context.Context) (_ []domain.Amenity, err error) {
	defer obs.Time(ctx, "amenities.List")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres amenity repository: DB is nil")
	}

	known := domain.Amenities()
	keys := make([]string, 0, len(known))
	for _, a := range known {
		keys = append(keys, a.Key())
	}

	query := `
	SELECT DISTINCT amenity
	FROM planet_osm_point
	WHERE amenity = ANY($1::text[]);
	`
	rows, err := s.DB.QueryContext(ctx, query, keys)
	if err != nil {
		return nil, fmt.Errorf("list amenities: query planet_osm_point table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Amenity, 0, len(known))
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("list amenities: scan row: %w", err)
		}
		a, err := domain.ParseAmenity(key)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list amenities: row iteration: %w", err)
	}

	slices.Sort(out)
	return out, nil
}
