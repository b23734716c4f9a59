// README: Push subscriptions over the durable store via Postgres LISTEN/NOTIFY.
package walk

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"leash/internal/types"
)

// OwnerFeed is the full snapshot emitted to an owner subscriber: the current
// active request (nil when there is none) and the trailing history. Each
// store notification triggers a complete recompute — there is no diffing.
type OwnerFeed struct {
	Active  *WalkRequest
	History []*WalkRequest
}

// Watcher delivers push feeds backed by the walk_requests NOTIFY trigger
// (installed by the migrations). Delivery per subscriber is latest-wins: a
// slow consumer sees the newest snapshot, never a backlog.
type Watcher struct {
	pool   *pgxpool.Pool
	store  *PostgresStore
	logger *slog.Logger
}

func NewWatcher(pool *pgxpool.Pool, store *PostgresStore, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{pool: pool, store: store, logger: logger}
}

const notifyChannel = "walk_requests"

// WatchOwner emits the owner's feed snapshot immediately and then again on
// every change to one of the owner's walk requests, until ctx is cancelled.
// The returned channel is closed on exit.
func (w *Watcher) WatchOwner(ctx context.Context, ownerID types.ID) (<-chan OwnerFeed, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, err
	}

	out := make(chan OwnerFeed, 1)

	go func() {
		defer close(out)
		defer conn.Release()

		w.emit(ctx, ownerID, out)

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					w.logger.Warn("walk feed listener stopped", "owner_id", ownerID, "err", err)
				}
				return
			}
			// Payload is the owner id of the touched record.
			if n.Payload != string(ownerID) {
				continue
			}
			w.emit(ctx, ownerID, out)
		}
	}()

	return out, nil
}

func (w *Watcher) emit(ctx context.Context, ownerID types.ID, out chan OwnerFeed) {
	active, err := w.store.ActiveByOwner(ctx, ownerID)
	if err != nil {
		// Transient read failures on a subscription surface as missing data,
		// not as a dead feed.
		w.logger.Warn("recomputing active snapshot", "owner_id", ownerID, "err", err)
		return
	}
	history, err := w.store.HistoryByOwner(ctx, ownerID, historyLimit)
	if err != nil {
		w.logger.Warn("recomputing history snapshot", "owner_id", ownerID, "err", err)
		return
	}

	snap := OwnerFeed{Active: active, History: history}
	// Latest-wins: replace a pending snapshot the consumer has not read yet.
	for {
		select {
		case out <- snap:
			return
		case <-ctx.Done():
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
