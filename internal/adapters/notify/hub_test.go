package notify

import (
	"context"
	"eld-trip-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan domain.ProgressUpdate) domain.ProgressUpdate {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "channel closed")
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
	return domain.ProgressUpdate{}
}

func TestHubDeliversOnlyToTripSubscribers(t *testing.T) {
	h := NewHub()
	a, unsubA := h.Subscribe("trip-a")
	defer unsubA()
	b, unsubB := h.Subscribe("trip-b")
	defer unsubB()

	h.Publish(context.Background(), domain.ProgressUpdate{TripID: "trip-a", Stage: domain.StageGeocoding, Progress: 10})

	got := receive(t, a)
	assert.Equal(t, domain.StageGeocoding, got.Stage)
	assert.Equal(t, 10, got.Progress)

	select {
	case u := <-b:
		t.Fatalf("trip-b got update for %s", u.TripID)
	default:
	}
}

func TestHubReplaysLatestRunningUpdate(t *testing.T) {
	h := NewHub()
	ctx := context.Background()

	h.Publish(ctx, domain.ProgressUpdate{TripID: "t", Status: domain.TripProcessing, Progress: 10})
	h.Publish(ctx, domain.ProgressUpdate{TripID: "t", Status: domain.TripProcessing, Progress: 25})

	ch, unsub := h.Subscribe("t")
	defer unsub()
	assert.Equal(t, 25, receive(t, ch).Progress)

	h.Publish(ctx, domain.ProgressUpdate{TripID: "t", Status: domain.TripCompleted, Progress: 100})
	assert.Equal(t, 100, receive(t, ch).Progress)

	late, unsubLate := h.Subscribe("t")
	defer unsubLate()
	select {
	case u := <-late:
		t.Fatalf("finished trip replayed update %+v", u)
	default:
	}
}

func TestHubPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	h := NewHub()
	_, unsub := h.Subscribe("t")
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			h.Publish(context.Background(), domain.ProgressUpdate{TripID: "t", Progress: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe("t")
	require.Equal(t, 1, h.Subscribers("t"))

	unsub()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers("t"))

	h.Publish(context.Background(), domain.ProgressUpdate{TripID: "t"})
}
