package api

import (
	"eld-trip-service/internal/api/handlers"
	"eld-trip-service/internal/ports"
	"net/http"
)

// Deps are the collaborators the HTTP layer needs; handlers stay unaware of concrete adapters.
type Deps struct {
	Repo   ports.TripRepository
	Runner handlers.TripSubmitter
	Hub    handlers.ProgressSubscriber
	DB     handlers.Pinger
	// Origins allowed to open the progress websocket; empty allows any.
	AllowedOrigins []string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{DB: d.DB}
	trips := &handlers.TripHandler{Repo: d.Repo, Runner: d.Runner}
	progress := &handlers.ProgressHandler{Repo: d.Repo, Hub: d.Hub}
	progress.Upgrader.CheckOrigin = checkOrigin(d.AllowedOrigins)

	mux.HandleFunc("/health", health.Health)
	mux.HandleFunc("/trips", trips.Trips)
	mux.HandleFunc("/trips/{id}", trips.Get)
	mux.HandleFunc("/trips/{id}/logs", trips.Logs)
	mux.HandleFunc("/ws/trips/{id}", progress.Stream)

	return requestIDMiddleware(loggingMiddleware(mux))
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, a := range allowed {
			if a == origin {
				return true
			}
		}
		return false
	}
}
