package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/obs"
	"poi-route-service/internal/ports"
)

// SQLPathCache is a Postgres-backed cache for shortest-path segments.
// It lives in the routing database, next to the road graph it was computed from.
// Entries older than TTL are ignored; TTL <= 0 keeps them forever.
type SQLPathCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLPathCache(db *sql.DB, ttl time.Duration) *SQLPathCache {
	return &SQLPathCache{DB: db, TTL: ttl}
}

var _ ports.PathCache = (*SQLPathCache)(nil)

func (s *SQLPathCache) Get(ctx context.Context, from, to int64) (_ domain.RouteSegment, _ bool, err error) {
	defer obs.Time(ctx, "path.cache.Get")(&err)

	if s.DB == nil {
		return domain.RouteSegment{}, false, errors.New("path cache: db is nil")
	}

	q := `
	SELECT segment
	FROM path_cache
	WHERE from_node = $1
		AND to_node = $2
		AND created_at >= $3;
	`

	var raw string
	err = s.DB.QueryRowContext(ctx, q, from, to, notBefore(s.TTL)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RouteSegment{}, false, nil
	}
	if err != nil {
		return domain.RouteSegment{}, false, fmt.Errorf("get path cache %d -> %d: query path_cache table: %w", from, to, err)
	}

	seg, err := decodeSegment([]byte(raw))
	if err != nil {
		return domain.RouteSegment{}, false, fmt.Errorf("get path cache %d -> %d: %w", from, to, err)
	}
	return seg, true, nil
}

func (s *SQLPathCache) Put(ctx context.Context, from, to int64, seg domain.RouteSegment) error {
	if s.DB == nil {
		return errors.New("path cache: db is nil")
	}

	b, err := encodeSegment(seg)
	if err != nil {
		return fmt.Errorf("insert path cache %d -> %d: %w", from, to, err)
	}
	if err := checkKey(from, to, seg); err != nil {
		return fmt.Errorf("insert path cache: %w", err)
	}

	q := `
	INSERT INTO path_cache (from_node, to_node, segment, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (from_node, to_node) DO UPDATE
	SET segment = EXCLUDED.segment,
		created_at = EXCLUDED.created_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, from, to, string(b), time.Now().Unix()); err != nil {
		return fmt.Errorf("insert path cache %d -> %d: %w", from, to, err)
	}
	return nil
}

// Prune deletes entries older than TTL and reports how many were removed.
func (s *SQLPathCache) Prune(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("path cache: db is nil")
	}
	if s.TTL <= 0 {
		return 0, nil
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM path_cache WHERE created_at < $1;`, notBefore(s.TTL))
	if err != nil {
		return 0, fmt.Errorf("prune path cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune path cache: rows affected: %w", err)
	}
	return n, nil
}

// notBefore is the oldest created_at (unix seconds) still served.
func notBefore(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return time.Now().Add(-ttl).Unix()
}
