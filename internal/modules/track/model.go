// README: Ephemeral per-walk tracking record (live sub-status and coordinates).
package track

import (
	"leash/internal/modules/walk"
	"leash/internal/types"
)

// ActiveWalk mirrors the fast-changing phase of an in-flight walk. It exists
// iff the durable record is in a non-final, assigned-or-later phase; its
// status is the operative value for walking/returning sub-phase checks, while
// the durable record stays authoritative for everything else.
type ActiveWalk struct {
	WalkID        types.ID    `json:"walk_id"`
	Status        walk.Status `json:"status"`
	Sitter        types.Point `json:"sitter"`
	Owner         types.Point `json:"owner"`
	WalkStartedAt int64       `json:"walk_started_at"` // unix ms
	WalkEndedAt   int64       `json:"walk_ended_at"`   // unix ms, 0 until returning
	UpdatedAt     int64       `json:"updated_at"`      // unix ms
	// Removed marks the tombstone published when the record is deleted.
	Removed bool `json:"removed,omitempty"`
}
