package main

import (
	"context"
	"database/sql"
	"eld-trip-service/internal/adapters/cache"
	"eld-trip-service/internal/adapters/notify"
	"eld-trip-service/internal/adapters/repositories"
	"eld-trip-service/internal/adapters/routing"
	"eld-trip-service/internal/api"
	"eld-trip-service/internal/config"
	"eld-trip-service/internal/platform/db"
	"eld-trip-service/internal/ports"
	"eld-trip-service/internal/services"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, ORS, websocket hub) behind ports and starts the HTTP server.
func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.RequireORS(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.DatabaseURL, db.DefaultPool())
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := repositories.InitSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

	geocodeCache, closeCache := newGeocodeCache(ctx, cfg, conn)
	defer closeCache()

	provider, err := routing.NewORSRouteProvider(
		cfg.ORSAPIKey,
		routing.WithBaseURL(cfg.ORSBaseURL),
		routing.WithGeocodeCache(geocodeCache),
		routing.WithRouteCache(cache.NewSQLRouteCache(conn)),
	)
	if err != nil {
		log.Fatal(err)
	}

	repo := repositories.NewPostgresTripRepository(conn)
	hub := notify.NewHub()
	runner := services.NewTripRunner(repo, provider, hub, services.LogSheetInfo{
		DriverName:   cfg.DriverName,
		CoDriver:     cfg.CoDriver,
		CarrierName:  cfg.CarrierName,
		MainOffice:   cfg.MainOffice,
		HomeTerminal: cfg.HomeTerminal,
		TruckNumber:  cfg.TruckNumber,
	}, cfg.MaxConcurrentTrips)

	router := api.NewRouter(api.Deps{
		Repo:           repo,
		Runner:         runner,
		Hub:            hub,
		DB:             conn,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Trip creation returns immediately; the long work happens in the runner, so
	// the write timeout only needs to cover reads. Websockets are hijacked and unaffected.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening addr=:%s max_concurrent_trips=%d", cfg.Port, cfg.MaxConcurrentTrips)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	runner.Wait()
}

// newGeocodeCache prefers Redis when REDIS_URL is set and falls back to the Postgres table.
func newGeocodeCache(ctx context.Context, cfg *config.Config, conn *sql.DB) (ports.GeocodeCache, func()) {
	if cfg.RedisURL == "" {
		return cache.NewSQLGeocodeCache(conn), func() {}
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("redis unavailable, using postgres geocode cache: %v", err)
		return cache.NewSQLGeocodeCache(conn), func() {}
	}

	log.Printf("geocode cache: redis ttl=%s", cfg.GeocodeCacheTTL)
	return cache.NewRedisGeocodeCache(client, cfg.GeocodeCacheTTL), func() { _ = client.Close() }
}
