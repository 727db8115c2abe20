package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestInitSchemaIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, InitSchema(ctx, db))
	require.NoError(t, InitSchema(ctx, db))

	var n int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM path_cache;`).Scan(&n)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestInitSchemaNilDB(t *testing.T) {
	require.Error(t, InitSchema(context.Background(), nil))
}

func TestListAmenitiesNilDB(t *testing.T) {
	_, err := NewPostgresAmenityRepository(nil).ListAmenities(context.Background())
	require.Error(t, err)
}
