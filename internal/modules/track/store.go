// README: Tracking store backed by Redis hashes and pub/sub, mirrored to Firebase RTDB.
package track

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"firebase.google.com/go/v4/db"
	"github.com/redis/go-redis/v9"

	"leash/internal/modules/walk"
	"leash/internal/telemetry"
	"leash/internal/types"
)

const (
	recordKeyPrefix  = "track:walk:%s"
	channelKeyPrefix = "track:events:%s"
	// recordTTL reaps records orphaned by a crash between the durable status
	// write and the ephemeral delete. Readers must not rely on it: a durable
	// final status always overrides a lingering record.
	recordTTL = 24 * time.Hour
)

// Store holds the ephemeral tracking records. Writes are mirrored best-effort
// to Firebase RTDB under active_walks/{id}, which the mobile apps listen to
// directly; rtdb may be nil (tests, mirror not configured).
type Store struct {
	redis  *redis.Client
	rtdb   *db.Client
	logger *slog.Logger
}

func NewStore(redis *redis.Client, rtdb *db.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{redis: redis, rtdb: rtdb, logger: logger}
}

// Start creates the tracking record for a walk that has begun motion. The
// record is created implicitly by this first write.
func (s *Store) Start(ctx context.Context, walkID types.ID, owner, sitter types.Point) error {
	now := time.Now().UnixMilli()
	fields := map[string]interface{}{
		"status":          string(walk.StatusWalking),
		"owner_lat":       owner.Lat,
		"owner_lng":       owner.Lng,
		"sitter_lat":      sitter.Lat,
		"sitter_lng":      sitter.Lng,
		"walk_started_at": now,
		"walk_ended_at":   0,
		"updated_at":      now,
	}
	pipe := s.redis.Pipeline()
	pipe.HSet(ctx, recordKey(walkID), fields)
	pipe.Expire(ctx, recordKey(walkID), recordTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	telemetry.ActiveWalks.Inc()
	s.broadcast(ctx, walkID)
	return nil
}

// SetSitterPosition merges the petsitter's live coordinate into the record.
func (s *Store) SetSitterPosition(ctx context.Context, walkID types.ID, p types.Point) error {
	err := s.redis.HSet(ctx, recordKey(walkID), map[string]interface{}{
		"sitter_lat": p.Lat,
		"sitter_lng": p.Lng,
		"updated_at": time.Now().UnixMilli(),
	}).Err()
	if err != nil {
		return err
	}
	s.broadcast(ctx, walkID)
	return nil
}

// MarkReturning flips the sub-status to returning and stamps walk_ended_at.
func (s *Store) MarkReturning(ctx context.Context, walkID types.ID) error {
	now := time.Now().UnixMilli()
	err := s.redis.HSet(ctx, recordKey(walkID), map[string]interface{}{
		"status":        string(walk.StatusReturning),
		"walk_ended_at": now,
		"updated_at":    now,
	}).Err()
	if err != nil {
		return err
	}
	s.broadcast(ctx, walkID)
	return nil
}

// Get returns the record and whether it exists; absence is not an error.
func (s *Store) Get(ctx context.Context, walkID types.ID) (ActiveWalk, bool, error) {
	data, err := s.redis.HGetAll(ctx, recordKey(walkID)).Result()
	if err != nil {
		return ActiveWalk{}, false, err
	}
	if len(data) == 0 {
		return ActiveWalk{}, false, nil
	}
	return decodeRecord(walkID, data), true, nil
}

// Delete removes the record; deleting an absent record is a no-op so the
// cleanup sweep after a durable final write can always be retried.
func (s *Store) Delete(ctx context.Context, walkID types.ID) error {
	removed, err := s.redis.Del(ctx, recordKey(walkID)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return nil
	}
	telemetry.ActiveWalks.Dec()

	tomb := ActiveWalk{WalkID: walkID, Removed: true, UpdatedAt: time.Now().UnixMilli()}
	s.publish(ctx, walkID, tomb)
	if s.rtdb != nil {
		if err := s.rtdb.NewRef("active_walks/"+string(walkID)).Delete(ctx); err != nil {
			s.logger.Warn("deleting RTDB mirror", "walk_id", walkID, "err", err)
		}
	}
	return nil
}

// Subscribe streams record snapshots for one walk until ctx is cancelled.
// The final message for a walk is the Removed tombstone.
func (s *Store) Subscribe(ctx context.Context, walkID types.ID) <-chan ActiveWalk {
	sub := s.redis.Subscribe(ctx, channelKey(walkID))
	out := make(chan ActiveWalk)

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var aw ActiveWalk
				if err := json.Unmarshal([]byte(msg.Payload), &aw); err != nil {
					s.logger.Warn("decoding track event", "walk_id", walkID, "err", err)
					continue
				}
				select {
				case out <- aw:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// broadcast reads back the full record and pushes it to subscribers and the
// RTDB mirror.
func (s *Store) broadcast(ctx context.Context, walkID types.ID) {
	aw, found, err := s.Get(ctx, walkID)
	if err != nil || !found {
		return
	}
	s.publish(ctx, walkID, aw)
	if s.rtdb != nil {
		if err := s.rtdb.NewRef("active_walks/" + string(walkID)).Set(ctx, aw); err != nil {
			s.logger.Warn("writing RTDB mirror", "walk_id", walkID, "err", err)
		}
	}
}

func (s *Store) publish(ctx context.Context, walkID types.ID, aw ActiveWalk) {
	payload, err := json.Marshal(aw)
	if err != nil {
		return
	}
	if err := s.redis.Publish(ctx, channelKey(walkID), payload).Err(); err != nil {
		s.logger.Warn("publishing track event", "walk_id", walkID, "err", err)
	}
}

func decodeRecord(walkID types.ID, data map[string]string) ActiveWalk {
	aw := ActiveWalk{WalkID: walkID}
	aw.Status = walk.ParseStatus(data["status"])
	aw.Owner.Lat = parseFloat(data["owner_lat"])
	aw.Owner.Lng = parseFloat(data["owner_lng"])
	aw.Sitter.Lat = parseFloat(data["sitter_lat"])
	aw.Sitter.Lng = parseFloat(data["sitter_lng"])
	aw.WalkStartedAt = parseInt(data["walk_started_at"])
	aw.WalkEndedAt = parseInt(data["walk_ended_at"])
	aw.UpdatedAt = parseInt(data["updated_at"])
	return aw
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func parseInt(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

func recordKey(walkID types.ID) string {
	return fmt.Sprintf(recordKeyPrefix, string(walkID))
}

func channelKey(walkID types.ID) string {
	return fmt.Sprintf(channelKeyPrefix, string(walkID))
}
