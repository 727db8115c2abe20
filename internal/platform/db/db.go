package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to the PostGIS/pgRouting database through the pgx stdlib driver.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}

// RequireExtensions fails when any of the named extensions is not installed.
func RequireExtensions(ctx context.Context, db *sql.DB, names ...string) error {
	for _, name := range names {
		var installed bool
		err := db.QueryRowContext(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = $1);`,
			name,
		).Scan(&installed)
		if err != nil {
			return fmt.Errorf("require extensions: query %q: %w", name, err)
		}
		if !installed {
			return fmt.Errorf("require extensions: %q is not installed", name)
		}
	}
	return nil
}
