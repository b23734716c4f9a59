// README: Mission offers and petsitter presence backed by Redis, mirrored to RTDB.
package sitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"firebase.google.com/go/v4/db"
	"github.com/redis/go-redis/v9"

	"leash/internal/types"
)

const (
	missionKeyPrefix    = "mission:%s:%s"          // sitter id, walk id
	missionScanPattern  = "mission:%s:*"           // sitter id
	responseKeyPrefix   = "mission_response:%s:%s" // walk id, sitter id
	activeWalkKeyPrefix = "sitter:active_walk:%s"  // sitter id
	locationKeyPrefix   = "sitter:loc:%s"          // sitter id
	onlineSetKey        = "sitters:online"
	geoKey              = "sitters:geo"

	// responseTTL keeps accept/decline records around long enough for the
	// matcher to consume them; they are not history.
	responseTTL = time.Hour
)

// Store holds mission offers (TTL = offer window) and petsitter presence
// (online flag, live coordinate). The live coordinate is mirrored to RTDB
// under sitter_locations/{id} for the owner app's map; rtdb may be nil.
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

// PutMission stores an offer under its sitter with the offer-window TTL, so
// an unanswered offer disappears on its own.
func (s *Store) PutMission(ctx context.Context, m Mission, ttl time.Duration) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, missionKey(m.SitterID, m.WalkID), payload, ttl).Err()
}

// GetMission returns the offer addressed to the sitter for the walk, treating
// an expired offer identically to a missing one. The TTL usually reaps
// expired offers first; the ExpiresAt check covers the gap.
func (s *Store) GetMission(ctx context.Context, sitterID, walkID types.ID) (Mission, bool, error) {
	val, err := s.redis.Get(ctx, missionKey(sitterID, walkID)).Result()
	if err == redis.Nil {
		return Mission{}, false, nil
	}
	if err != nil {
		return Mission{}, false, err
	}
	var m Mission
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return Mission{}, false, err
	}
	if m.Expired(time.Now()) {
		return Mission{}, false, nil
	}
	return m, true, nil
}

// PendingMissions lists the sitter's unexpired offers.
func (s *Store) PendingMissions(ctx context.Context, sitterID types.ID) ([]Mission, error) {
	var out []Mission
	iter := s.redis.Scan(ctx, 0, fmt.Sprintf(missionScanPattern, string(sitterID)), 100).Iterator()
	now := time.Now()
	for iter.Next(ctx) {
		val, err := s.redis.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var m Mission
		if err := json.Unmarshal([]byte(val), &m); err != nil {
			s.logger.Warn("decoding mission", "key", iter.Val(), "err", err)
			continue
		}
		if m.Expired(now) {
			continue
		}
		out = append(out, m)
	}
	return out, iter.Err()
}

func (s *Store) DeleteMission(ctx context.Context, sitterID, walkID types.ID) error {
	return s.redis.Del(ctx, missionKey(sitterID, walkID)).Err()
}

// RecordResponse stores the sitter's accept/decline for the matcher to read.
func (s *Store) RecordResponse(ctx context.Context, sitterID, walkID types.ID, accepted bool) error {
	val := "declined"
	if accepted {
		val = "accepted"
	}
	return s.redis.Set(ctx, responseKey(walkID, sitterID), val, responseTTL).Err()
}

// Response returns the recorded accept/decline, if any.
func (s *Store) Response(ctx context.Context, sitterID, walkID types.ID) (string, bool, error) {
	val, err := s.redis.Get(ctx, responseKey(walkID, sitterID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Store) SetOnline(ctx context.Context, sitterID types.ID) error {
	return s.redis.SAdd(ctx, onlineSetKey, string(sitterID)).Err()
}

// SetOffline clears the online flag and removes the live-location presence
// entry, Redis and RTDB mirror both.
func (s *Store) SetOffline(ctx context.Context, sitterID types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.SRem(ctx, onlineSetKey, string(sitterID))
	pipe.ZRem(ctx, geoKey, string(sitterID))
	pipe.Del(ctx, locationKey(sitterID))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	s.mirrorDelete(ctx, sitterID)
	return nil
}

func (s *Store) IsOnline(ctx context.Context, sitterID types.ID) (bool, error) {
	return s.redis.SIsMember(ctx, onlineSetKey, string(sitterID)).Result()
}

// UpdateLocation refreshes the sitter's live-presence coordinate, independent
// of any active walk.
func (s *Store) UpdateLocation(ctx context.Context, sitterID types.ID, p types.Point) error {
	pipe := s.redis.Pipeline()
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      string(sitterID),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	})
	pipe.HSet(ctx, locationKey(sitterID), map[string]interface{}{
		"lat":        p.Lat,
		"lng":        p.Lng,
		"updated_at": time.Now().UnixMilli(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if s.rtdb != nil {
		entry := map[string]interface{}{
			"lat":       p.Lat,
			"lng":       p.Lng,
			"timestamp": time.Now().UnixMilli(),
		}
		if err := s.rtdb.NewRef("sitter_locations/"+string(sitterID)).Set(ctx, entry); err != nil {
			s.logger.Warn("writing RTDB presence", "sitter_id", sitterID, "err", err)
		}
	}
	return nil
}

// Location returns the sitter's last known coordinate, if any.
func (s *Store) Location(ctx context.Context, sitterID types.ID) (types.Point, bool, error) {
	data, err := s.redis.HGetAll(ctx, locationKey(sitterID)).Result()
	if err != nil {
		return types.Point{}, false, err
	}
	if len(data) == 0 {
		return types.Point{}, false, nil
	}
	lat, err := strconv.ParseFloat(data["lat"], 64)
	if err != nil {
		return types.Point{}, false, err
	}
	lng, err := strconv.ParseFloat(data["lng"], 64)
	if err != nil {
		return types.Point{}, false, err
	}
	return types.Point{Lat: lat, Lng: lng}, true, nil
}

// SetActiveWalk remembers which walk the sitter is currently on so that
// presence updates can also feed the walk's tracking record.
func (s *Store) SetActiveWalk(ctx context.Context, sitterID, walkID types.ID) error {
	return s.redis.Set(ctx, activeWalkKey(sitterID), string(walkID), recordLinkTTL).Err()
}

func (s *Store) ActiveWalk(ctx context.Context, sitterID types.ID) (types.ID, bool, error) {
	val, err := s.redis.Get(ctx, activeWalkKey(sitterID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return types.ID(val), true, nil
}

func (s *Store) ClearActiveWalk(ctx context.Context, sitterID types.ID) error {
	return s.redis.Del(ctx, activeWalkKey(sitterID)).Err()
}

// recordLinkTTL matches the tracking record's safety TTL.
const recordLinkTTL = 24 * time.Hour

func (s *Store) mirrorDelete(ctx context.Context, sitterID types.ID) {
	if s.rtdb == nil {
		return
	}
	if err := s.rtdb.NewRef("sitter_locations/" + string(sitterID)).Delete(ctx); err != nil {
		s.logger.Warn("deleting RTDB presence", "sitter_id", sitterID, "err", err)
	}
}

func missionKey(sitterID, walkID types.ID) string {
	return fmt.Sprintf(missionKeyPrefix, string(sitterID), string(walkID))
}

func responseKey(walkID, sitterID types.ID) string {
	return fmt.Sprintf(responseKeyPrefix, string(walkID), string(sitterID))
}

func activeWalkKey(sitterID types.ID) string {
	return fmt.Sprintf(activeWalkKeyPrefix, string(sitterID))
}

func locationKey(sitterID types.ID) string {
	return fmt.Sprintf(locationKeyPrefix, string(sitterID))
}
