package handlers

import (
	"context"
	"eld-trip-service/internal/api/dto"
	"eld-trip-service/internal/domain"
	"eld-trip-service/internal/ports"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxLocationLength = 255
	defaultListLimit  = 50
	maxListLimit      = 200
)

// TripSubmitter starts a background calculation for a stored trip.
type TripSubmitter interface {
	Submit(ctx context.Context, tripID string)
}

// TripHandler exposes trip creation and retrieval endpoints.
type TripHandler struct {
	Repo   ports.TripRepository
	Runner TripSubmitter
	Now    func() time.Time
}

// Trips serves the /trips collection: POST creates, GET lists.
func (h *TripHandler) Trips(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *TripHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	current := strings.TrimSpace(req.CurrentLocation)
	pickup := strings.TrimSpace(req.PickupLocation)
	dropoff := strings.TrimSpace(req.DropoffLocation)

	if msg := validateCreate(current, pickup, dropoff, req.CurrentCycleUsed); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	trip, err := domain.NewTrip(uuid.NewString(), current, pickup, dropoff, *req.CurrentCycleUsed, h.now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Repo.Create(r.Context(), trip); err != nil {
		log.Printf("create trip failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	// The calculation outlives the request but keeps its request id for logging.
	h.Runner.Submit(context.WithoutCancel(r.Context()), trip.ID)

	writeJSON(w, r, http.StatusAccepted, dto.CreateTripResponse{
		TripID:  trip.ID,
		Status:  trip.Status,
		Message: "Trip calculation started. Connect to the websocket for progress updates.",
	})
}

func validateCreate(current, pickup, dropoff string, cycle *float64) string {
	fields := []struct {
		name  string
		value string
	}{
		{"current_location", current},
		{"pickup_location", pickup},
		{"dropoff_location", dropoff},
	}
	for _, f := range fields {
		if f.value == "" {
			return f.name + " is required"
		}
		if len(f.value) > maxLocationLength {
			return f.name + " must be at most 255 characters"
		}
	}

	if cycle == nil {
		return "current_cycle_used is required"
	}
	if math.IsNaN(*cycle) || *cycle < 0 || *cycle > 70 {
		return "current_cycle_used must be between 0 and 70"
	}

	return ""
}

func (h *TripHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	trips, err := h.Repo.List(r.Context(), limit)
	if err != nil {
		log.Printf("list trips failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListTripsResponse{Trips: make([]dto.TripListItem, 0, len(trips))}
	for _, t := range trips {
		res.Trips = append(res.Trips, dto.NewTripListItem(t))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Get returns one trip with its full plan.
func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	trip, ok := loadTrip(w, r, h.Repo)
	if !ok {
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewTripResponse(trip))
}

// Logs returns the daily log sheets of a completed trip.
func (h *TripHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	trip, ok := loadTrip(w, r, h.Repo)
	if !ok {
		return
	}

	if !trip.IsCompleted() {
		writeError(w, r, http.StatusConflict, "trip is "+string(trip.Status)+"; logs are available once it is completed")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.TripLogsResponse{
		TripID:  trip.ID,
		NumDays: len(trip.Logs),
		Logs:    trip.Logs,
	})
}

// loadTrip resolves {id}; it writes the error response itself and reports false on failure.
func loadTrip(w http.ResponseWriter, r *http.Request, repo ports.TripRepository) (*domain.Trip, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, r, http.StatusNotFound, "trip not found")
		return nil, false
	}

	trip, err := repo.Get(r.Context(), id)
	if errors.Is(err, domain.ErrTripNotFound) {
		writeError(w, r, http.StatusNotFound, "trip not found")
		return nil, false
	}
	if err != nil {
		log.Printf("get trip failed: trip_id=%s err=%v", id, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nil, false
	}

	return trip, true
}

func (h *TripHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}
