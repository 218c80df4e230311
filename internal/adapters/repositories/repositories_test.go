package repositories

import (
	"context"
	"eld-trip-service/internal/domain"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trips.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSeeds(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	path := writeSeed(t, `[
		{"id": "7c1f2d4e-3a5b-4c6d-8e9f-0a1b2c3d4e5f", "current_location": " Dallas, TX ",
		 "pickup_location": "Oklahoma City, OK", "dropoff_location": "Denver, CO", "current_cycle_used": 12},
		{"current_location": "A", "pickup_location": "B", "dropoff_location": "C", "current_cycle_used": 0}
	]`)

	trips, err := LoadSeeds(path, now)
	require.NoError(t, err)
	require.Len(t, trips, 2)

	assert.Equal(t, "7c1f2d4e-3a5b-4c6d-8e9f-0a1b2c3d4e5f", trips[0].ID)
	assert.Equal(t, "Dallas, TX", trips[0].CurrentLocation)
	assert.Equal(t, domain.TripPending, trips[0].Status)
	assert.Equal(t, now, trips[0].CreatedAt)
	assert.NotEmpty(t, trips[1].ID)
}

func TestLoadSeedsRejectsInvalidItems(t *testing.T) {
	cases := map[string]string{
		"bad id":       `[{"id": "nope", "current_location": "A", "pickup_location": "B", "dropoff_location": "C"}]`,
		"missing stop": `[{"current_location": "A", "pickup_location": "", "dropoff_location": "C"}]`,
		"cycle":        `[{"current_location": "A", "pickup_location": "B", "dropoff_location": "C", "current_cycle_used": 71}]`,
		"not json":     `{`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSeeds(writeSeed(t, body), time.Now())
			assert.Error(t, err)
		})
	}
}

func TestLoadSeedsBundledFile(t *testing.T) {
	trips, err := LoadSeeds(filepath.Join("..", "..", "..", "data", "seeds", "trips.json"), time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, trips)
}

func TestMemoryTripRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTripRepository()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	older, err := domain.NewTrip("a", "X", "Y", "Z", 0, base)
	require.NoError(t, err)
	newer, err := domain.NewTrip("b", "X", "Y", "Z", 10, base.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	assert.Error(t, repo.Create(ctx, older))

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)

	list, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	got.Status = domain.TripFailed

	again, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.TripPending, again.Status, "stored trip must not alias returned copy")

	require.NoError(t, repo.Update(ctx, got))
	again, err = repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.TripFailed, again.Status)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTripNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &domain.Trip{ID: "missing"}), domain.ErrTripNotFound)
}
