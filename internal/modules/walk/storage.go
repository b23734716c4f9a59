package walk

import (
	"context"

	"leash/internal/types"
)

// Store is the durable walk-record store consumed by the orchestrators. The
// production implementation is PostgresStore; tests substitute an in-memory
// fake so transition logic runs without a database.
type Store interface {
	Create(ctx context.Context, w *WalkRequest) error
	Get(ctx context.Context, id types.ID) (*WalkRequest, error)
	// UpdateStatus performs a conditional write: it succeeds only when the
	// record still carries the expected (from, version) pair. A false return
	// with nil error means a concurrent writer won the race.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, sitterID *types.ID, cancelledBy *string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	HasActiveByOwner(ctx context.Context, ownerID types.ID) (bool, error)
	ActiveByOwner(ctx context.Context, ownerID types.ID) (*WalkRequest, error)
	HistoryByOwner(ctx context.Context, ownerID types.ID, limit int) ([]*WalkRequest, error)
}

// TrackRemover deletes the ephemeral tracking record once the durable record
// reaches a final status. Deletion is delete-if-exists: the two-step write is
// not atomic and the ephemeral side may already be gone.
type TrackRemover interface {
	Delete(ctx context.Context, walkID types.ID) error
}

// Pricing estimates the walk fee attached to a request at creation time.
type Pricing interface {
	Estimate(ctx context.Context, durationMins int) (types.Money, error)
}
