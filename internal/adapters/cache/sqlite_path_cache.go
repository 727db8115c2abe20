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

// SQLite backed cache for shortest-path segments, for single-instance runs
// that should keep their cache across restarts without touching the routing
// database.
type SqlitePathCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSqlitePathCache(db *sql.DB, ttl time.Duration) *SqlitePathCache {
	return &SqlitePathCache{DB: db, TTL: ttl}
}

var _ ports.PathCache = (*SqlitePathCache)(nil)

func (s *SqlitePathCache) Get(ctx context.Context, from, to int64) (_ domain.RouteSegment, _ bool, err error) {
	defer obs.Time(ctx, "path.cache.Get")(&err)

	if s.DB == nil {
		return domain.RouteSegment{}, false, errors.New("path cache: db is nil")
	}

	q := `
	SELECT segment
	FROM path_cache
	WHERE from_node = ?
		AND to_node = ?
		AND created_at >= ?;
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

func (s *SqlitePathCache) Put(ctx context.Context, from, to int64, seg domain.RouteSegment) error {
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
	INSERT OR REPLACE INTO path_cache (
		from_node,
		to_node,
		segment,
		created_at
	)
	VALUES (?, ?, ?, ?)
	`
	if _, err := s.DB.ExecContext(ctx, q, from, to, string(b), time.Now().Unix()); err != nil {
		return fmt.Errorf("insert path cache %d -> %d: %w", from, to, err)
	}
	return nil
}

// Prune deletes entries older than TTL and reports how many were removed.
func (s *SqlitePathCache) Prune(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("path cache: db is nil")
	}
	if s.TTL <= 0 {
		return 0, nil
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM path_cache WHERE created_at < ?;`, notBefore(s.TTL))
	if err != nil {
		return 0, fmt.Errorf("prune path cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune path cache: rows affected: %w", err)
	}
	return n, nil
}
