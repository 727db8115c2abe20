package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"poi-route-service/internal/domain"
)

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Planner holds the constants the routing core consumes but never computes.
type Planner struct {
	// Travel velocity in meters per second.
	Velocity float64 `toml:"velocity"`

	// Expanding-radius search bounds (meters) for snapping and candidate search.
	InitialSearchRadius float64 `toml:"initial_search_radius"`
	MaxSearchRadius     float64 `toml:"max_search_radius"`

	// Expanding bounding-box window (meters) for shortest-path queries.
	InitialPathWindow float64 `toml:"initial_path_window"`
	MaxPathWindow     float64 `toml:"max_path_window"`

	// Heuristic weights: H = Alpha*perpendicular + Beta*distance-from-tail.
	Alpha float64 `toml:"alpha"`
	Beta  float64 `toml:"beta"`

	RoadClasses []string `toml:"road_classes"`

	// Fetch both legs of a candidate detour concurrently.
	ConcurrentValidation bool `toml:"concurrent_validation"`
}

// DefaultPlanner returns a city-driving setup (50 km/h, all drivable classes).
func DefaultPlanner() Planner {
	classes := domain.DrivableRoadClasses()
	names := make([]string, 0, len(classes))
	for _, rc := range classes {
		names = append(names, string(rc))
	}

	return Planner{
		Velocity:             50.0 / 3.6,
		InitialSearchRadius:  100,
		MaxSearchRadius:      51_200,
		InitialPathWindow:    2_000,
		MaxPathWindow:        64_000,
		Alpha:                1,
		Beta:                 1,
		RoadClasses:          names,
		ConcurrentValidation: true,
	}
}

// Validate rejects settings that would break termination or the heuristic.
func (p Planner) Validate() error {
	if p.Velocity <= 0 {
		return errors.New("planner config: velocity must be positive")
	}
	if p.InitialSearchRadius <= 0 || p.MaxSearchRadius < p.InitialSearchRadius {
		return errors.New("planner config: need 0 < initial_search_radius <= max_search_radius")
	}
	if p.InitialPathWindow <= 0 || p.MaxPathWindow < p.InitialPathWindow {
		return errors.New("planner config: need 0 < initial_path_window <= max_path_window")
	}
	if p.Alpha < 0 || p.Beta < 0 {
		return errors.New("planner config: heuristic weights must be non-negative")
	}
	if _, err := p.Roads(); err != nil {
		return err
	}
	return nil
}

// Roads parses RoadClasses into the closed road class enumeration.
func (p Planner) Roads() ([]domain.RoadClass, error) {
	if len(p.RoadClasses) == 0 {
		return nil, errors.New("planner config: road_classes must not be empty")
	}
	out := make([]domain.RoadClass, 0, len(p.RoadClasses))
	for _, s := range p.RoadClasses {
		rc, err := domain.ParseRoadClass(s)
		if err != nil {
			return nil, fmt.Errorf("planner config: %w", err)
		}
		out = append(out, rc)
	}
	return out, nil
}

// LoadPlanner overlays a TOML file on the defaults. An empty path keeps the defaults.
func LoadPlanner(path string) (Planner, error) {
	p := DefaultPlanner()
	if path == "" {
		return p, nil
	}

	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Planner{}, fmt.Errorf("load planner config %q: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Planner{}, fmt.Errorf("load planner config %q: %w", path, err)
	}
	return p, nil
}

// Config is the process configuration assembled from the environment.
type Config struct {
	Port         string
	DatabaseURL  string
	CacheBackend string // none, redis, postgres or sqlite
	RedisURL     string
	SqlitePath   string
	CacheTTL     time.Duration

	// Requests per second allowed by the API rate limiter, and its burst.
	RateLimit float64
	RateBurst int

	Planner Planner
}

// Load reads the environment. The caller loads .env beforehand.
func Load() (Config, error) {
	cfg := Config{
		Port:         Get("PORT", "8080"),
		DatabaseURL:  Get("DATABASE_URL", ""),
		CacheBackend: strings.ToLower(Get("CACHE_BACKEND", "none")),
		RedisURL:     Get("REDIS_URL", "redis://localhost:6379/0"),
		SqlitePath:   Get("SQLITE_PATH", "data/path_cache.db"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("load config: DATABASE_URL is required")
	}

	switch cfg.CacheBackend {
	case "none", "redis", "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("load config: unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}

	ttl, err := time.ParseDuration(Get("CACHE_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("load config: CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	cfg.RateLimit, err = strconv.ParseFloat(Get("RATE_LIMIT", "5"), 64)
	if err != nil || cfg.RateLimit <= 0 {
		return Config{}, fmt.Errorf("load config: RATE_LIMIT must be a positive number")
	}
	cfg.RateBurst, err = strconv.Atoi(Get("RATE_BURST", "10"))
	if err != nil || cfg.RateBurst < 1 {
		return Config{}, fmt.Errorf("load config: RATE_BURST must be a positive integer")
	}

	cfg.Planner, err = LoadPlanner(Get("PLANNER_CONFIG", ""))
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}
