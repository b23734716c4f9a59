// README: Walk request aggregate and lifecycle status definitions.
package walk

import (
	"log/slog"
	"time"

	"leash/internal/types"
)

type Status string

const (
	StatusNone         Status = "none"
	StatusPending      Status = "pending"
	StatusMatching     Status = "matching"
	StatusAssigned     Status = "assigned"
	StatusGoingToOwner Status = "going_to_owner"
	StatusWalking      Status = "walking"
	StatusReturning    Status = "returning"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
	StatusFailed       Status = "failed"
	StatusExpired      Status = "expired"
	StatusDismissed    Status = "dismissed"
)

// IsFinal reports whether no further transition is permitted, except the
// failed/expired → dismissed retirement.
func (s Status) IsFinal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// IsWalkingPhase reports whether the walk timer and the distance-completion
// gate are active.
func (s Status) IsWalkingPhase() bool {
	return s == StatusWalking || s == StatusReturning
}

// IsRoutePhase reports whether the route/ETA overlay applies.
func (s Status) IsRoutePhase() bool {
	switch s {
	case StatusAssigned, StatusGoingToOwner, StatusReturning:
		return true
	}
	return false
}

// IsAssignedPhase reports whether a petsitter is assigned but has not yet
// picked up the pets.
func (s Status) IsAssignedPhase() bool {
	return s == StatusAssigned || s == StatusGoingToOwner
}

// ParseStatus decodes a status string from storage. Unknown values decode to
// pending so that records written by a newer schema stay visible to older
// readers; the fallback is logged rather than silent.
func ParseStatus(raw string) Status {
	switch s := Status(raw); s {
	case StatusPending, StatusMatching, StatusAssigned, StatusGoingToOwner,
		StatusWalking, StatusReturning, StatusCompleted, StatusCancelled,
		StatusFailed, StatusExpired, StatusDismissed:
		return s
	}
	slog.Warn("unknown walk status in storage, defaulting to pending", "status", raw)
	return StatusPending
}

// Durations a walk may be requested for, in minutes.
var AllowedDurations = []int{30, 45, 60}

func IsAllowedDuration(mins int) bool {
	for _, d := range AllowedDurations {
		if d == mins {
			return true
		}
	}
	return false
}

// Cancelling-party tags recorded on the request.
const (
	CancelledByOwner  = "owner"
	CancelledBySitter = "petsitter"
	CancelledBySystem = "system"
)

type WalkRequest struct {
	ID            types.ID
	OwnerID       types.ID
	OwnerName     string
	PetIDs        []string
	PetNames      []string
	Pickup        types.Point
	PickupAddress string
	DurationMins  int
	Status        Status
	StatusVersion int
	SitterID      *types.ID
	SitterName    *string
	CancelledBy   *string
	EstimatedFee  types.Money
	CreatedAt     time.Time
	MatchingAt    *time.Time
	AssignedAt    *time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

type Event struct {
	ID         int64
	WalkID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the walk lifecycle graph as code. The graph
// is monotonic: nothing moves a record backward, and the only exits from a
// final status are failed/expired → dismissed.
var AllowedTransitions = map[Status][]Status{
	StatusPending:      {StatusMatching, StatusCancelled, StatusFailed, StatusExpired},
	StatusMatching:     {StatusAssigned, StatusCancelled, StatusFailed, StatusExpired},
	StatusAssigned:     {StatusGoingToOwner, StatusWalking, StatusCancelled, StatusFailed},
	StatusGoingToOwner: {StatusWalking, StatusCancelled, StatusFailed},
	StatusWalking:      {StatusReturning, StatusCompleted, StatusCancelled, StatusFailed},
	StatusReturning:    {StatusCompleted, StatusCancelled, StatusFailed},
	StatusFailed:       {StatusDismissed},
	StatusExpired:      {StatusDismissed},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
