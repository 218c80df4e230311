package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment (and .env when present).
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	ORSAPIKey          string
	ORSBaseURL         string
	MaxConcurrentTrips int
	SeedPath           string
	GeocodeCacheTTL    time.Duration
	AllowedOrigins     []string

	// Log sheet header defaults.
	DriverName   string
	CoDriver     string
	CarrierName  string
	MainOffice   string
	HomeTerminal string
	TruckNumber  string
}

// LoadDotEnv reads .env into the environment; a missing file is not an error.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

// Load reads the configuration. Required settings are checked by Require*.
func Load() (*Config, error) {
	maxTrips, err := strconv.Atoi(Get("MAX_CONCURRENT_TRIPS", "4"))
	if err != nil {
		return nil, fmt.Errorf("load config: MAX_CONCURRENT_TRIPS: %w", err)
	}
	if maxTrips < 1 {
		return nil, fmt.Errorf("load config: MAX_CONCURRENT_TRIPS must be at least 1, got %d", maxTrips)
	}

	ttl, err := time.ParseDuration(Get("GEOCODE_CACHE_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("load config: GEOCODE_CACHE_TTL: %w", err)
	}

	return &Config{
		Port:               Get("PORT", "8080"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		ORSAPIKey:          strings.TrimSpace(os.Getenv("ORS_API_KEY")),
		ORSBaseURL:         Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		MaxConcurrentTrips: maxTrips,
		SeedPath:           Get("SEED_PATH", "data/seeds/trips.json"),
		GeocodeCacheTTL:    ttl,
		AllowedOrigins:     splitList(os.Getenv("ALLOWED_ORIGINS")),
		DriverName:         Get("DRIVER_NAME", "Driver"),
		CoDriver:           Get("CO_DRIVER", ""),
		CarrierName:        Get("CARRIER_NAME", "Carrier"),
		MainOffice:         Get("MAIN_OFFICE", "Washington, D.C."),
		HomeTerminal:       Get("HOME_TERMINAL", "Washington, D.C."),
		TruckNumber:        Get("TRUCK_NUMBER", "101"),
	}, nil
}

func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func (c *Config) RequireORS() error {
	if c.ORSAPIKey == "" {
		return errors.New("ORS_API_KEY is required")
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
