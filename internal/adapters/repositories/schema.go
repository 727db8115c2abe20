package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the path cache table. The statements are valid for both
// Postgres and SQLite, so one schema serves either cache backend.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createPathCacheQuery := `
	CREATE TABLE IF NOT EXISTS path_cache (
		from_node BIGINT NOT NULL,
		to_node BIGINT NOT NULL,
		segment TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (from_node, to_node)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_path_cache_created_at
	ON path_cache(created_at);
	`

	statements := []string{
		createPathCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
