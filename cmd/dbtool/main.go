package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"poi-route-service/internal/adapters/cache"
	"poi-route-service/internal/adapters/repositories"
	"poi-route-service/internal/config"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/db"
)

// dbtool prepares the routing database: it checks the PostGIS/pgRouting
// extensions, creates the path cache table and optionally prunes it.
func main() {
	prune := flag.Bool("prune", false, "delete path cache rows older than CACHE_TTL")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	log.Println("Checking extensions...")
	if err := db.RequireExtensions(ctx, pg, "postgis", "pgrouting"); err != nil {
		log.Fatalf("extension check failed: %v", err)
	}

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, pg); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	amenities, err := repositories.NewPostgresAmenityRepository(pg).ListAmenities(ctx)
	if err != nil {
		log.Fatalf("amenity check failed: %v", err)
	}
	log.Printf("POI data covers %d of %d amenity categories.", len(amenities), len(domain.Amenities()))

	if *prune {
		n, err := cache.NewSQLPathCache(pg, cfg.CacheTTL).Prune(ctx)
		if err != nil {
			log.Fatalf("prune failed: %v", err)
		}
		log.Printf("Pruned %d path cache rows.", n)
	}
}
