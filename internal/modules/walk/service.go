// README: Owner-side orchestrator: create, cancel, and dismiss walk requests.
package walk

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"leash/internal/telemetry"
	"leash/internal/types"
)

// Service enforces ownership and transition legality for the owner's
// operations. Caller identity is always an explicit parameter; nothing here
// reads ambient auth state. Operations carry no internal timeout — the
// caller's context owns cancellation.
type Service struct {
	store   Store
	track   TrackRemover
	pricing Pricing
	logger  *slog.Logger
}

func NewService(store Store, track TrackRemover, pricing Pricing, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, track: track, pricing: pricing, logger: logger}
}

type CreateCommand struct {
	OwnerID       types.ID
	OwnerName     string
	PetIDs        []string
	PetNames      []string
	Pickup        types.Point
	PickupAddress string
	DurationMins  int
}

type CancelCommand struct {
	Caller types.ID
	WalkID types.ID
}

type DismissCommand struct {
	Caller types.ID
	WalkID types.ID
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.OwnerID == "" {
		return "", ErrUnauthenticated
	}
	if len(cmd.PetIDs) == 0 || !IsAllowedDuration(cmd.DurationMins) || cmd.Pickup.IsZero() {
		return "", ErrInvalidInput
	}
	active, err := s.store.HasActiveByOwner(ctx, cmd.OwnerID)
	if err != nil {
		return "", err
	}
	if active {
		return "", ErrActiveWalk
	}

	id := newID()
	now := time.Now()
	fee := types.Money{Currency: "EUR"}
	if s.pricing != nil {
		if m, err := s.pricing.Estimate(ctx, cmd.DurationMins); err == nil {
			fee = m
		}
	}

	w := &WalkRequest{
		ID:            id,
		OwnerID:       cmd.OwnerID,
		OwnerName:     cmd.OwnerName,
		PetIDs:        cmd.PetIDs,
		PetNames:      cmd.PetNames,
		Pickup:        cmd.Pickup,
		PickupAddress: cmd.PickupAddress,
		DurationMins:  cmd.DurationMins,
		Status:        StatusPending,
		StatusVersion: 0,
		EstimatedFee:  fee,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, w); err != nil {
		return "", err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		WalkID:     id,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "owner",
		ActorID:    &cmd.OwnerID,
		CreatedAt:  now,
	})
	telemetry.WalksCreated.Inc()
	return id, nil
}

// Cancel moves the owner's request to cancelled from any non-final status and
// removes the ephemeral tracking record. Re-running it against an already
// cancelled walk fails ErrInvalidTransition rather than silently succeeding.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	w, err := s.authorize(ctx, cmd.Caller, cmd.WalkID)
	if err != nil {
		return err
	}
	if !CanTransition(w.Status, StatusCancelled) {
		return ErrInvalidTransition
	}
	by := CancelledByOwner
	ok, err := s.store.UpdateStatus(ctx, w.ID, w.Status, StatusCancelled, w.StatusVersion, nil, &by)
	if err != nil {
		return err
	}
	if !ok {
		telemetry.TransitionConflicts.Inc()
		return ErrConflict
	}
	s.cleanupTrack(ctx, w.ID)
	_ = s.store.AppendEvent(ctx, &Event{
		WalkID:     w.ID,
		FromStatus: w.Status,
		ToStatus:   StatusCancelled,
		ActorType:  "owner",
		ActorID:    &cmd.Caller,
		CreatedAt:  time.Now(),
	})
	telemetry.Transitions.WithLabelValues(string(StatusCancelled)).Inc()
	return nil
}

// Dismiss retires a failed or expired request from the owner's active view.
func (s *Service) Dismiss(ctx context.Context, cmd DismissCommand) error {
	w, err := s.authorize(ctx, cmd.Caller, cmd.WalkID)
	if err != nil {
		return err
	}
	if !CanTransition(w.Status, StatusDismissed) {
		return ErrInvalidTransition
	}
	ok, err := s.store.UpdateStatus(ctx, w.ID, w.Status, StatusDismissed, w.StatusVersion, nil, nil)
	if err != nil {
		return err
	}
	if !ok {
		telemetry.TransitionConflicts.Inc()
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		WalkID:     w.ID,
		FromStatus: w.Status,
		ToStatus:   StatusDismissed,
		ActorType:  "owner",
		ActorID:    &cmd.Caller,
		CreatedAt:  time.Now(),
	})
	telemetry.Transitions.WithLabelValues(string(StatusDismissed)).Inc()
	return nil
}

// Get returns the walk when the caller is its owner or its assigned
// petsitter; anyone else gets ErrForbidden. Walk records carry the owner's
// name, address, and live tracking ids, so reads are gated like writes.
func (s *Service) Get(ctx context.Context, caller, id types.ID) (*WalkRequest, error) {
	if caller == "" {
		return nil, ErrUnauthenticated
	}
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.OwnerID != caller && (w.SitterID == nil || *w.SitterID != caller) {
		return nil, ErrForbidden
	}
	return w, nil
}

// Active returns the owner's single most recent non-retired request, nil if none.
func (s *Service) Active(ctx context.Context, ownerID types.ID) (*WalkRequest, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.ActiveByOwner(ctx, ownerID)
}

const historyLimit = 50

// History returns the owner's retired requests, newest first, capped at 50.
func (s *Service) History(ctx context.Context, ownerID types.ID) ([]*WalkRequest, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.HistoryByOwner(ctx, ownerID, historyLimit)
}

func (s *Service) authorize(ctx context.Context, caller, walkID types.ID) (*WalkRequest, error) {
	if caller == "" {
		return nil, ErrUnauthenticated
	}
	w, err := s.store.Get(ctx, walkID)
	if err != nil {
		return nil, err
	}
	if w.OwnerID != caller {
		return nil, ErrForbidden
	}
	return w, nil
}

// cleanupTrack is the second half of the non-atomic two-step write. A failure
// here leaves a stale ephemeral record behind; it is harmless because readers
// treat a final durable status as authoritative, and the record carries a TTL.
func (s *Service) cleanupTrack(ctx context.Context, walkID types.ID) {
	if s.track == nil {
		return
	}
	if err := s.track.Delete(ctx, walkID); err != nil {
		s.logger.Warn("deleting tracking record", "walk_id", walkID, "err", err)
	}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
