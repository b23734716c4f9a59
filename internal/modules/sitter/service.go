// README: Petsitter-side orchestrator: missions, walk execution, presence.
package sitter

import (
	"context"
	"log/slog"
	"time"

	"leash/internal/geo"
	"leash/internal/modules/track"
	"leash/internal/modules/walk"
	"leash/internal/telemetry"
	"leash/internal/types"
)

// WalkStore is the durable-record dependency; the production implementation
// is walk.PostgresStore.
type WalkStore interface {
	Get(ctx context.Context, id types.ID) (*walk.WalkRequest, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to walk.Status, version int, sitterID *types.ID, cancelledBy *string) (bool, error)
	AppendEvent(ctx context.Context, e *walk.Event) error
}

// TrackStore is the ephemeral tracking dependency.
type TrackStore interface {
	Start(ctx context.Context, walkID types.ID, owner, sitter types.Point) error
	MarkReturning(ctx context.Context, walkID types.ID) error
	SetSitterPosition(ctx context.Context, walkID types.ID, p types.Point) error
	Get(ctx context.Context, walkID types.ID) (track.ActiveWalk, bool, error)
	Delete(ctx context.Context, walkID types.ID) error
}

// MissionStore is the offer/presence dependency; the production
// implementation is the Redis-backed Store in this package.
type MissionStore interface {
	PutMission(ctx context.Context, m Mission, ttl time.Duration) error
	GetMission(ctx context.Context, sitterID, walkID types.ID) (Mission, bool, error)
	PendingMissions(ctx context.Context, sitterID types.ID) ([]Mission, error)
	DeleteMission(ctx context.Context, sitterID, walkID types.ID) error
	RecordResponse(ctx context.Context, sitterID, walkID types.ID, accepted bool) error
	SetOnline(ctx context.Context, sitterID types.ID) error
	SetOffline(ctx context.Context, sitterID types.ID) error
	UpdateLocation(ctx context.Context, sitterID types.ID, p types.Point) error
	Location(ctx context.Context, sitterID types.ID) (types.Point, bool, error)
	SetActiveWalk(ctx context.Context, sitterID, walkID types.ID) error
	ActiveWalk(ctx context.Context, sitterID types.ID) (types.ID, bool, error)
	ClearActiveWalk(ctx context.Context, sitterID types.ID) error
}

// Notifier pushes a mission offer to the sitter's device. Delivery is
// best-effort; the mission record itself is what the sitter app polls.
type Notifier interface {
	NotifyMission(ctx context.Context, deviceToken string, m Mission) error
}

// Reporter generates the owner's post-walk summary. Best-effort, async.
type Reporter interface {
	WalkCompleted(ctx context.Context, w *walk.WalkRequest, startedAtMs, endedAtMs int64)
}

// Service enforces assignment identity and transition legality for the
// petsitter's operations. Reconciliation rule between the two stores: the
// ephemeral status wins for walking-phase sub-checks, the durable status wins
// for everything else, and the ephemeral record is deleted eagerly whenever
// the durable record reaches a final status.
type Service struct {
	walks    WalkStore
	trackSt  TrackStore
	missions MissionStore
	notifier Notifier
	reporter Reporter
	offerTTL time.Duration
	logger   *slog.Logger
}

func NewService(walks WalkStore, trackSt TrackStore, missions MissionStore, notifier Notifier, reporter Reporter, offerTTL time.Duration, logger *slog.Logger) *Service {
	if offerTTL <= 0 {
		offerTTL = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		walks:    walks,
		trackSt:  trackSt,
		missions: missions,
		notifier: notifier,
		reporter: reporter,
		offerTTL: offerTTL,
		logger:   logger,
	}
}

func (s *Service) GoOnline(ctx context.Context, caller types.ID) error {
	if caller == "" {
		return walk.ErrUnauthenticated
	}
	if err := s.missions.SetOnline(ctx, caller); err != nil {
		return err
	}
	telemetry.SittersOnline.Inc()
	return nil
}

func (s *Service) GoOffline(ctx context.Context, caller types.ID) error {
	if caller == "" {
		return walk.ErrUnauthenticated
	}
	if err := s.missions.SetOffline(ctx, caller); err != nil {
		return err
	}
	telemetry.SittersOnline.Dec()
	return nil
}

// UpdateLocation refreshes the sitter's live presence. When the sitter is on
// an active walk the coordinate also feeds that walk's tracking record.
func (s *Service) UpdateLocation(ctx context.Context, caller types.ID, p types.Point) error {
	if caller == "" {
		return walk.ErrUnauthenticated
	}
	if err := s.missions.UpdateLocation(ctx, caller, p); err != nil {
		return err
	}
	if walkID, ok, err := s.missions.ActiveWalk(ctx, caller); err == nil && ok {
		if err := s.trackSt.SetSitterPosition(ctx, walkID, p); err != nil {
			s.logger.Warn("updating walk position", "walk_id", walkID, "err", err)
		}
	}
	return nil
}

// OfferCommand dispatches a mission offer on behalf of the external matcher.
type OfferCommand struct {
	SitterID       types.ID
	SitterLocation types.Point
	DeviceToken    string
	WalkID         types.ID
}

// Offer stores a time-boxed mission for the sitter and pushes a notification.
// The walk must still be waiting for a sitter; offers against assigned or
// retired walks are refused.
func (s *Service) Offer(ctx context.Context, cmd OfferCommand) (Mission, error) {
	if cmd.SitterID == "" || cmd.WalkID == "" {
		return Mission{}, walk.ErrInvalidInput
	}
	w, err := s.walks.Get(ctx, cmd.WalkID)
	if err != nil {
		return Mission{}, err
	}
	if w.Status != walk.StatusPending && w.Status != walk.StatusMatching {
		return Mission{}, walk.ErrInvalidTransition
	}
	m := Mission{
		WalkID:         w.ID,
		SitterID:       cmd.SitterID,
		OwnerID:        w.OwnerID,
		OwnerName:      w.OwnerName,
		PetNames:       w.PetNames,
		DurationMins:   w.DurationMins,
		DistanceMeters: geo.DistanceMeters(cmd.SitterLocation.Lat, cmd.SitterLocation.Lng, w.Pickup.Lat, w.Pickup.Lng),
		Pickup:         w.Pickup,
		PickupAddress:  w.PickupAddress,
		ExpiresAt:      time.Now().Add(s.offerTTL),
	}
	if err := s.missions.PutMission(ctx, m, s.offerTTL); err != nil {
		return Mission{}, err
	}
	telemetry.MissionOffers.Inc()
	if s.notifier != nil && cmd.DeviceToken != "" {
		if err := s.notifier.NotifyMission(ctx, cmd.DeviceToken, m); err != nil {
			s.logger.Warn("pushing mission offer", "walk_id", m.WalkID, "sitter_id", m.SitterID, "err", err)
		}
	}
	return m, nil
}

// PendingMissions lists the caller's unexpired offers.
func (s *Service) PendingMissions(ctx context.Context, caller types.ID) ([]Mission, error) {
	if caller == "" {
		return nil, walk.ErrUnauthenticated
	}
	return s.missions.PendingMissions(ctx, caller)
}

// AcceptMission records an accept response. It does not flip the WalkRequest:
// assignment belongs to the external matching process.
func (s *Service) AcceptMission(ctx context.Context, caller, walkID types.ID) error {
	return s.respondMission(ctx, caller, walkID, true)
}

func (s *Service) DeclineMission(ctx context.Context, caller, walkID types.ID) error {
	return s.respondMission(ctx, caller, walkID, false)
}

func (s *Service) respondMission(ctx context.Context, caller, walkID types.ID, accepted bool) error {
	if caller == "" {
		return walk.ErrUnauthenticated
	}
	_, found, err := s.missions.GetMission(ctx, caller, walkID)
	if err != nil {
		return err
	}
	if !found {
		return walk.ErrNotFound
	}
	if err := s.missions.RecordResponse(ctx, caller, walkID, accepted); err != nil {
		return err
	}
	return s.missions.DeleteMission(ctx, caller, walkID)
}

// StartWalk begins motion tracking: durable status moves to walking and the
// ephemeral record is created with walk_started_at = now.
func (s *Service) StartWalk(ctx context.Context, caller, walkID types.ID) error {
	w, err := s.authorize(ctx, caller, walkID)
	if err != nil {
		return err
	}
	if !walk.CanTransition(w.Status, walk.StatusWalking) {
		return walk.ErrInvalidTransition
	}
	ok, err := s.walks.UpdateStatus(ctx, w.ID, w.Status, walk.StatusWalking, w.StatusVersion, &caller, nil)
	if err != nil {
		return err
	}
	if !ok {
		telemetry.TransitionConflicts.Inc()
		return walk.ErrConflict
	}

	sitterPos, found, err := s.missions.Location(ctx, caller)
	if err != nil {
		s.logger.Warn("reading sitter location", "sitter_id", caller, "err", err)
	}
	if !found {
		// No presence yet: seed the sitter marker at the pickup point until
		// the first location update arrives.
		sitterPos = w.Pickup
	}
	if err := s.trackSt.Start(ctx, w.ID, w.Pickup, sitterPos); err != nil {
		s.logger.Warn("starting tracking record", "walk_id", w.ID, "err", err)
	}
	if err := s.missions.SetActiveWalk(ctx, caller, w.ID); err != nil {
		s.logger.Warn("linking active walk", "walk_id", w.ID, "err", err)
	}

	_ = s.walks.AppendEvent(ctx, &walk.Event{
		WalkID:     w.ID,
		FromStatus: w.Status,
		ToStatus:   walk.StatusWalking,
		ActorType:  "petsitter",
		ActorID:    &caller,
		CreatedAt:  time.Now(),
	})
	telemetry.Transitions.WithLabelValues(string(walk.StatusWalking)).Inc()
	return nil
}

// MarkReturning flips the ephemeral sub-status from walking to returning. The
// legality check is deliberately against the ephemeral record, the operative
// value during the walking phase; the durable record only establishes
// identity here.
func (s *Service) MarkReturning(ctx context.Context, caller, walkID types.ID) error {
	w, err := s.authorize(ctx, caller, walkID)
	if err != nil {
		return err
	}
	aw, found, err := s.trackSt.Get(ctx, w.ID)
	if err != nil {
		return err
	}
	if !found || aw.Status != walk.StatusWalking {
		return walk.ErrInvalidTransition
	}
	return s.trackSt.MarkReturning(ctx, w.ID)
}

// CompleteWalk finishes the walk, gated on the petsitter being within the
// completion radius of the pickup point.
func (s *Service) CompleteWalk(ctx context.Context, caller, walkID types.ID, current types.Point) error {
	w, err := s.authorize(ctx, caller, walkID)
	if err != nil {
		return err
	}
	eff, startedAt, endedAt := s.effectiveStatus(ctx, w)
	if !eff.IsWalkingPhase() || !walk.CanTransition(w.Status, walk.StatusCompleted) {
		return walk.ErrInvalidTransition
	}

	dist := geo.DistanceMeters(current.Lat, current.Lng, w.Pickup.Lat, w.Pickup.Lng)
	if dist > geo.CompletionRadiusMeters {
		telemetry.CompletionTooFar.Inc()
		return NewTooFarError(dist)
	}

	ok, err := s.walks.UpdateStatus(ctx, w.ID, w.Status, walk.StatusCompleted, w.StatusVersion, nil, nil)
	if err != nil {
		return err
	}
	if !ok {
		telemetry.TransitionConflicts.Inc()
		return walk.ErrConflict
	}

	s.cleanup(ctx, caller, w.ID)
	_ = s.walks.AppendEvent(ctx, &walk.Event{
		WalkID:     w.ID,
		FromStatus: w.Status,
		ToStatus:   walk.StatusCompleted,
		ActorType:  "petsitter",
		ActorID:    &caller,
		CreatedAt:  time.Now(),
	})
	telemetry.Transitions.WithLabelValues(string(walk.StatusCompleted)).Inc()

	if s.reporter != nil {
		if endedAt == 0 {
			endedAt = time.Now().UnixMilli()
		}
		s.reporter.WalkCompleted(ctx, w, startedAt, endedAt)
	}
	return nil
}

// CancelMission cancels the walk on the petsitter's behalf.
func (s *Service) CancelMission(ctx context.Context, caller, walkID types.ID) error {
	w, err := s.authorize(ctx, caller, walkID)
	if err != nil {
		return err
	}
	if !walk.CanTransition(w.Status, walk.StatusCancelled) {
		return walk.ErrInvalidTransition
	}
	by := walk.CancelledBySitter
	ok, err := s.walks.UpdateStatus(ctx, w.ID, w.Status, walk.StatusCancelled, w.StatusVersion, nil, &by)
	if err != nil {
		return err
	}
	if !ok {
		telemetry.TransitionConflicts.Inc()
		return walk.ErrConflict
	}

	s.cleanup(ctx, caller, w.ID)
	_ = s.walks.AppendEvent(ctx, &walk.Event{
		WalkID:     w.ID,
		FromStatus: w.Status,
		ToStatus:   walk.StatusCancelled,
		ActorType:  "petsitter",
		ActorID:    &caller,
		CreatedAt:  time.Now(),
	})
	telemetry.Transitions.WithLabelValues(string(walk.StatusCancelled)).Inc()
	return nil
}

// effectiveStatus applies the reconciliation rule and returns the tracking
// timestamps along the way.
func (s *Service) effectiveStatus(ctx context.Context, w *walk.WalkRequest) (walk.Status, int64, int64) {
	aw, found, err := s.trackSt.Get(ctx, w.ID)
	if err != nil || !found || w.Status.IsFinal() {
		return w.Status, 0, 0
	}
	return aw.Status, aw.WalkStartedAt, aw.WalkEndedAt
}

func (s *Service) authorize(ctx context.Context, caller, walkID types.ID) (*walk.WalkRequest, error) {
	if caller == "" {
		return nil, walk.ErrUnauthenticated
	}
	w, err := s.walks.Get(ctx, walkID)
	if err != nil {
		return nil, err
	}
	if w.SitterID == nil || *w.SitterID != caller {
		return nil, walk.ErrForbidden
	}
	return w, nil
}

// cleanup is the ephemeral half of the two-step final write: delete-if-exists
// on the tracking record and the sitter's active-walk link.
func (s *Service) cleanup(ctx context.Context, caller, walkID types.ID) {
	if err := s.trackSt.Delete(ctx, walkID); err != nil {
		s.logger.Warn("deleting tracking record", "walk_id", walkID, "err", err)
	}
	if err := s.missions.ClearActiveWalk(ctx, caller); err != nil {
		s.logger.Warn("clearing active walk link", "sitter_id", caller, "err", err)
	}
}
