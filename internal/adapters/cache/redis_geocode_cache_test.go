package cache

import (
	"context"
	"eld-trip-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisGeocodeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGeocodeCache(client, ttl), mr
}

func TestRedisGeocodeCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t, time.Hour)

	dallas := domain.Location{Coordinates: domain.Coordinates{Lon: -96.797, Lat: 32.7767}, Name: "Dallas, TX, USA"}
	require.NoError(t, c.PutMany(ctx, map[string]domain.Location{"Dallas, TX": dallas}))

	got, err := c.GetMany(ctx, []string{"Dallas, TX", " Dallas, TX ", "Denver, CO", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Location{"Dallas, TX": dallas}, got)
}

func TestRedisGeocodeCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Minute)

	require.NoError(t, c.PutMany(ctx, map[string]domain.Location{"Tulsa, OK": {Name: "Tulsa"}}))
	assert.Equal(t, time.Minute, mr.TTL(geocodeKeyPrefix+"Tulsa, OK"))

	mr.FastForward(2 * time.Minute)

	got, err := c.GetMany(ctx, []string{"Tulsa, OK"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisGeocodeCacheEdgeCases(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, 0)

	got, err := c.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, c.PutMany(ctx, nil))
	assert.Error(t, c.PutMany(ctx, map[string]domain.Location{" ": {}}))

	require.NoError(t, mr.Set(geocodeKeyPrefix+"Broken", "{not json"))
	_, err = c.GetMany(ctx, []string{"Broken"})
	assert.Error(t, err)

	var nilClient RedisGeocodeCache
	_, err = nilClient.GetMany(ctx, []string{"x"})
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestUniqueKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, uniqueKeys([]string{" a", "b", "a ", "", "  "}))
}
