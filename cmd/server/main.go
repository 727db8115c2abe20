package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"
	"poi-route-service/internal/adapters/cache"
	"poi-route-service/internal/adapters/pgrouting"
	"poi-route-service/internal/adapters/repositories"
	"poi-route-service/internal/api"
	"poi-route-service/internal/config"
	"poi-route-service/internal/platform/db"
	"poi-route-service/internal/ports"
	"poi-route-service/internal/services"
)

// main is the application composition root.
// It wires the pgRouting backend and the selected path cache behind ports and
// starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pg, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	if err := db.RequireExtensions(ctx, pg, "postgis", "pgrouting"); err != nil {
		log.Fatal(err)
	}

	pathCache, closeCache, err := openPathCache(ctx, cfg, pg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	client, err := services.NewGraphClient(pgrouting.NewGraph(pg), pathCache, cfg.Planner)
	if err != nil {
		log.Fatal(err)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	router := api.NewRouter(client, cfg.Planner, repositories.NewPostgresAmenityRepository(pg), limiter)

	// Timeouts allow for cold-cache plans that run many pgr_dijkstra queries.
	log.Printf("Server listening addr=:%s cache=%s", cfg.Port, cfg.CacheBackend)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openPathCache builds the configured cache. The returned close func is never nil.
func openPathCache(ctx context.Context, cfg config.Config, pg *sql.DB) (ports.PathCache, func(), error) {
	noop := func() {}

	switch cfg.CacheBackend {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open path cache: parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		c := cache.NewRedisPathCache(client, cfg.CacheTTL)
		if err := c.Ping(ctx); err != nil {
			client.Close()
			return nil, noop, fmt.Errorf("open path cache: %w", err)
		}
		return c, func() { client.Close() }, nil

	case "postgres":
		if err := repositories.InitSchema(ctx, pg); err != nil {
			return nil, noop, fmt.Errorf("open path cache: %w", err)
		}
		return cache.NewSQLPathCache(pg, cfg.CacheTTL), noop, nil

	case "sqlite":
		lite, err := sql.Open("sqlite", cfg.SqlitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open path cache: open sqlite database %q: %w", cfg.SqlitePath, err)
		}
		if err := repositories.InitSchema(ctx, lite); err != nil {
			lite.Close()
			return nil, noop, fmt.Errorf("open path cache: %w", err)
		}
		return cache.NewSqlitePathCache(lite, cfg.CacheTTL), func() { lite.Close() }, nil

	default:
		return nil, noop, nil
	}
}
