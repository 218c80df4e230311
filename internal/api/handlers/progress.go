package handlers

import (
	"eld-trip-service/internal/domain"
	"eld-trip-service/internal/ports"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// ProgressSubscriber hands out a channel of one trip's progress updates.
type ProgressSubscriber interface {
	Subscribe(tripID string) (<-chan domain.ProgressUpdate, func())
}

// ProgressHandler streams calculation progress for a trip over a websocket.
//
// The current trip state is sent first; the connection is closed after the
// completed or failed update.
type ProgressHandler struct {
	Repo     ports.TripRepository
	Hub      ProgressSubscriber
	Upgrader websocket.Upgrader
}

func (h *ProgressHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	trip, ok := loadTrip(w, r, h.Repo)
	if !ok {
		return
	}

	// Subscribe, then take the snapshot, so no update falls between the two.
	updates, unsubscribe := h.Hub.Subscribe(trip.ID)
	defer unsubscribe()
	if fresh, err := h.Repo.Get(r.Context(), trip.ID); err == nil {
		trip = fresh
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: trip_id=%s err=%v", trip.ID, err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go readPump(conn, closed)

	if err := writeUpdate(conn, snapshot(trip)); err != nil {
		return
	}
	if trip.IsCompleted() || trip.IsFailed() {
		closeNormally(conn)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeUpdate(conn, u); err != nil {
				log.Printf("websocket write failed: trip_id=%s err=%v", trip.ID, err)
				return
			}
			if u.Status == domain.TripCompleted || u.Status == domain.TripFailed {
				closeNormally(conn)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// readPump drains client frames so control messages are handled, and signals when the client goes away.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeUpdate(conn *websocket.Conn, u domain.ProgressUpdate) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(u)
}

func closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func snapshot(t *domain.Trip) domain.ProgressUpdate {
	u := domain.ProgressUpdate{
		TripID:           t.ID,
		Stage:            domain.StageTripCalculation,
		Status:           t.Status,
		Progress:         t.Progress,
		Timestamp:        t.UpdatedAt,
		TotalDistance:    t.TotalDistance,
		TotalDrivingTime: t.TotalDrivingTime,
		Error:            t.ErrorMessage,
	}

	switch t.Status {
	case domain.TripPending:
		u.Message = "Trip is queued for calculation"
	case domain.TripProcessing:
		u.Message = "Trip calculation in progress"
	case domain.TripCompleted:
		n := len(t.Logs)
		u.Stage = domain.StageCompleted
		u.Message = "Trip calculation completed!"
		u.NumDays = &n
	case domain.TripFailed:
		u.Stage = domain.StageFailed
		u.Message = "Trip calculation failed: " + t.ErrorMessage
	}

	return u
}
