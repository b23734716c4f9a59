// README: Tracking store tests against an embedded Redis.
package track

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"leash/internal/modules/walk"
	"leash/internal/types"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, nil, nil)
}

var (
	ownerPos  = types.Point{Lat: 48.8566, Lng: 2.3522}
	sitterPos = types.Point{Lat: 48.8570, Lng: 2.3530}
)

func TestStartAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	walkID := types.ID("walk1")

	_, found, err := store.Get(ctx, walkID)
	if err != nil {
		t.Fatalf("get before start: %v", err)
	}
	if found {
		t.Fatal("expected no record before start")
	}

	if err := store.Start(ctx, walkID, ownerPos, sitterPos); err != nil {
		t.Fatalf("start: %v", err)
	}

	aw, found, err := store.Get(ctx, walkID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected record after start")
	}
	if aw.Status != walk.StatusWalking {
		t.Fatalf("status = %s, want walking", aw.Status)
	}
	if aw.Owner != ownerPos || aw.Sitter != sitterPos {
		t.Fatalf("positions = %+v / %+v", aw.Owner, aw.Sitter)
	}
	if aw.WalkStartedAt == 0 {
		t.Fatal("expected walk_started_at to be set")
	}
	if aw.WalkEndedAt != 0 {
		t.Fatalf("walk_ended_at = %d, want 0 while walking", aw.WalkEndedAt)
	}
}

func TestSetSitterPosition(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	walkID := types.ID("walk_pos")

	if err := store.Start(ctx, walkID, ownerPos, sitterPos); err != nil {
		t.Fatalf("start: %v", err)
	}
	next := types.Point{Lat: 48.8600, Lng: 2.3600}
	if err := store.SetSitterPosition(ctx, walkID, next); err != nil {
		t.Fatalf("set position: %v", err)
	}

	aw, _, err := store.Get(ctx, walkID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if aw.Sitter != next {
		t.Fatalf("sitter = %+v, want %+v", aw.Sitter, next)
	}
	// The owner position and timer anchor survive position merges.
	if aw.Owner != ownerPos || aw.WalkStartedAt == 0 {
		t.Fatalf("record corrupted by merge: %+v", aw)
	}
}

func TestMarkReturning(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	walkID := types.ID("walk_ret")

	if err := store.Start(ctx, walkID, ownerPos, sitterPos); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := store.MarkReturning(ctx, walkID); err != nil {
		t.Fatalf("mark returning: %v", err)
	}

	aw, _, err := store.Get(ctx, walkID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if aw.Status != walk.StatusReturning {
		t.Fatalf("status = %s, want returning", aw.Status)
	}
	if aw.WalkEndedAt == 0 {
		t.Fatal("expected walk_ended_at to be stamped on returning")
	}
}

func TestDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	walkID := types.ID("walk_del")

	// Deleting an absent record is a no-op.
	if err := store.Delete(ctx, walkID); err != nil {
		t.Fatalf("delete absent: %v", err)
	}

	if err := store.Start(ctx, walkID, ownerPos, sitterPos); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := store.Delete(ctx, walkID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, found, err := store.Get(ctx, walkID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if found {
		t.Fatal("expected record gone after delete")
	}
}

func TestSubscribe(t *testing.T) {
	store := setupTestStore(t)
	walkID := types.ID("walk_sub")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updates := store.Subscribe(ctx, walkID)
	// Give the subscription a moment to establish before the first publish.
	time.Sleep(50 * time.Millisecond)

	if err := store.Start(ctx, walkID, ownerPos, sitterPos); err != nil {
		t.Fatalf("start: %v", err)
	}

	aw := waitForUpdate(t, updates)
	if aw.Status != walk.StatusWalking || aw.WalkID != walkID {
		t.Fatalf("first update = %+v", aw)
	}

	if err := store.Delete(ctx, walkID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for {
		aw = waitForUpdate(t, updates)
		if aw.Removed {
			break
		}
	}
}

func waitForUpdate(t *testing.T, updates <-chan ActiveWalk) ActiveWalk {
	t.Helper()
	select {
	case aw, ok := <-updates:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return aw
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for track update")
	}
	return ActiveWalk{}
}
