package ports

import (
	"context"
	"eld-trip-service/internal/domain"
)

// Receives pipeline progress for push delivery to clients. Publishing must not block.
type ProgressNotifier interface {
	Publish(ctx context.Context, update domain.ProgressUpdate)
}
