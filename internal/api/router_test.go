package api

import (
	"bytes"
	"context"
	"eld-trip-service/internal/adapters/notify"
	"eld-trip-service/internal/adapters/repositories"
	"eld-trip-service/internal/api/dto"
	"eld-trip-service/internal/domain"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingRunner) Submit(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fixture struct {
	repo   *repositories.MemoryTripRepository
	runner *recordingRunner
	hub    *notify.Hub
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   repositories.NewMemoryTripRepository(),
		runner: &recordingRunner{},
		hub:    notify.NewHub(),
	}
	f.router = NewRouter(Deps{Repo: f.repo, Runner: f.runner, Hub: f.hub})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seed(t *testing.T, id string, status domain.TripStatus) *domain.Trip {
	t.Helper()
	trip, err := domain.NewTrip(id, "Dallas, TX", "Tulsa, OK", "Denver, CO", 10, time.Now())
	require.NoError(t, err)
	trip.Status = status
	require.NoError(t, f.repo.Create(context.Background(), trip))
	return trip
}

const tripID = "7c1f2d4e-3a5b-4c6d-8e9f-0a1b2c3d4e5f"

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	down := NewRouter(Deps{Repo: f.repo, Runner: f.runner, Hub: f.hub, DB: fakePinger{err: errors.New("down")}})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCreateTrip(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/trips", `{
		"current_location": "Dallas, TX",
		"pickup_location": "Tulsa, OK",
		"dropoff_location": "Denver, CO",
		"current_cycle_used": 20
	}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var res dto.CreateTripResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, domain.TripPending, res.Status)
	assert.Equal(t, []string{res.TripID}, f.runner.ids)

	stored, err := f.repo.Get(context.Background(), res.TripID)
	require.NoError(t, err)
	assert.Equal(t, "Denver, CO", stored.DropoffLocation)
	assert.Equal(t, 20.0, stored.CurrentCycleUsed)
}

func TestCreateTripValidation(t *testing.T) {
	long := strings.Repeat("x", 256)
	cases := map[string]string{
		"missing cycle":   `{"current_location":"A","pickup_location":"B","dropoff_location":"C"}`,
		"cycle too large": `{"current_location":"A","pickup_location":"B","dropoff_location":"C","current_cycle_used":70.5}`,
		"negative cycle":  `{"current_location":"A","pickup_location":"B","dropoff_location":"C","current_cycle_used":-1}`,
		"blank pickup":    `{"current_location":"A","pickup_location":"  ","dropoff_location":"C","current_cycle_used":1}`,
		"long location":   `{"current_location":"` + long + `","pickup_location":"B","dropoff_location":"C","current_cycle_used":1}`,
		"unknown field":   `{"current_location":"A","pickup_location":"B","dropoff_location":"C","current_cycle_used":1,"x":1}`,
		"two objects":     `{"current_location":"A","pickup_location":"B","dropoff_location":"C","current_cycle_used":1}{}`,
		"not json":        `nope`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, "/trips", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Empty(t, f.runner.ids)
		})
	}
}

func TestListTrips(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tripID, domain.TripCompleted)

	rec := f.do(t, http.MethodGet, "/trips", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.ListTripsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Trips, 1)
	assert.Equal(t, tripID, res.Trips[0].ID)

	rec = f.do(t, http.MethodGet, "/trips?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/trips", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetTrip(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tripID, domain.TripPending)

	rec := f.do(t, http.MethodGet, "/trips/"+tripID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.TripResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, tripID, res.ID)
	assert.Equal(t, domain.TripPending, res.Status)
	assert.NotNil(t, res.Segments)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/trips/not-a-uuid", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/trips/1b2c3d4e-5f60-4718-9a0b-c1d2e3f4a5b6", "").Code)
}

func TestTripLogs(t *testing.T) {
	f := newFixture(t)
	trip := f.seed(t, tripID, domain.TripProcessing)

	rec := f.do(t, http.MethodGet, "/trips/"+tripID+"/logs", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	trip.Status = domain.TripCompleted
	trip.Logs = []domain.LogDay{{DayIndex: 1, Date: "03/01/2026"}}
	require.NoError(t, f.repo.Update(context.Background(), trip))

	rec = f.do(t, http.MethodGet, "/trips/"+tripID+"/logs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.TripLogsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.NumDays)
	assert.Equal(t, "03/01/2026", res.Logs[0].Date)
}

func dial(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/trips/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) domain.ProgressUpdate {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var u domain.ProgressUpdate
	require.NoError(t, conn.ReadJSON(&u))
	return u
}

func TestProgressStreamsUntilCompleted(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tripID, domain.TripProcessing)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	conn := dial(t, srv, tripID)
	first := readUpdate(t, conn)
	assert.Equal(t, domain.TripProcessing, first.Status)

	f.hub.Publish(context.Background(), domain.ProgressUpdate{
		TripID: tripID, Stage: domain.StageRouting, Status: domain.TripProcessing, Progress: 25,
	})
	assert.Equal(t, 25, readUpdate(t, conn).Progress)

	f.hub.Publish(context.Background(), domain.ProgressUpdate{
		TripID: tripID, Stage: domain.StageCompleted, Status: domain.TripCompleted, Progress: 100,
	})
	assert.Equal(t, domain.TripCompleted, readUpdate(t, conn).Status)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestProgressForFinishedTripSendsSnapshotAndCloses(t *testing.T) {
	f := newFixture(t)
	trip := f.seed(t, tripID, domain.TripFailed)
	trip.ErrorMessage = "no route"
	require.NoError(t, f.repo.Update(context.Background(), trip))

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	conn := dial(t, srv, tripID)
	u := readUpdate(t, conn)
	assert.Equal(t, domain.TripFailed, u.Status)
	assert.Equal(t, domain.StageFailed, u.Stage)
	assert.Equal(t, "no route", u.Error)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestProgressUnknownTrip(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/trips/" + tripID
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws/trips/x", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, checkOrigin(nil)(req))
}
