package notify

import (
	"context"
	"eld-trip-service/internal/domain"
	"log"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

// Hub fans progress updates out to the subscribers of each trip.
//
// Publish never blocks: a subscriber whose buffer is full misses the update.
// The latest update of a running trip is replayed to new subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[uuid.UUID]chan domain.ProgressUpdate
	latest      map[string]domain.ProgressUpdate
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[uuid.UUID]chan domain.ProgressUpdate),
		latest:      make(map[string]domain.ProgressUpdate),
	}
}

// Subscribe registers for one trip's updates. The returned func unsubscribes
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(tripID string) (<-chan domain.ProgressUpdate, func()) {
	id := uuid.New()
	ch := make(chan domain.ProgressUpdate, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[tripID] == nil {
		h.subscribers[tripID] = make(map[uuid.UUID]chan domain.ProgressUpdate)
	}
	h.subscribers[tripID][id] = ch
	if u, ok := h.latest[tripID]; ok {
		ch <- u
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			subs := h.subscribers[tripID]
			if _, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, tripID)
			}
		})
	}
}

func (h *Hub) Publish(_ context.Context, u domain.ProgressUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if u.Status == domain.TripCompleted || u.Status == domain.TripFailed {
		delete(h.latest, u.TripID)
	} else {
		h.latest[u.TripID] = u
	}

	for id, ch := range h.subscribers[u.TripID] {
		select {
		case ch <- u:
		default:
			log.Printf("progress dropped: trip_id=%s subscriber=%s stage=%s", u.TripID, id, u.Stage)
		}
	}
}

// Subscribers reports how many clients follow a trip.
func (h *Hub) Subscribers(tripID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[tripID])
}
