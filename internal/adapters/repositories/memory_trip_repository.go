package repositories

import (
	"context"
	"eld-trip-service/internal/domain"
	"fmt"
	"sort"
	"sync"
)

// MemoryTripRepository keeps trips in process memory. It backs tests and
// local runs without a database; nothing survives a restart.
type MemoryTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip
}

func NewMemoryTripRepository() *MemoryTripRepository {
	return &MemoryTripRepository{trips: make(map[string]*domain.Trip)}
}

func (m *MemoryTripRepository) Create(_ context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trips[trip.ID]; ok {
		return fmt.Errorf("create trip %s: already exists", trip.ID)
	}
	m.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (m *MemoryTripRepository) Get(_ context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.trips[id]
	if !ok {
		return nil, fmt.Errorf("get trip %s: %w", id, domain.ErrTripNotFound)
	}
	return cloneTrip(t), nil
}

func (m *MemoryTripRepository) List(_ context.Context, limit int) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		out = append(out, cloneTrip(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryTripRepository) Update(_ context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trips[trip.ID]; !ok {
		return fmt.Errorf("update trip %s: %w", trip.ID, domain.ErrTripNotFound)
	}
	m.trips[trip.ID] = cloneTrip(trip)
	return nil
}

// cloneTrip copies the aggregate so callers never share mutable state with the store.
// Plan slices are replaced wholesale on update, so a shallow slice copy is enough.
func cloneTrip(t *domain.Trip) *domain.Trip {
	c := *t
	c.Segments = append([]domain.Segment(nil), t.Segments...)
	c.Logs = append([]domain.LogDay(nil), t.Logs...)
	if t.Summary != nil {
		s := *t.Summary
		c.Summary = &s
	}
	if t.Coordinates != nil {
		co := *t.Coordinates
		c.Coordinates = &co
	}
	return &c
}
