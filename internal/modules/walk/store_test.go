// README: Postgres store integration tests (gated on LEASH_TEST_DSN).
package walk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leash/internal/types"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("LEASH_TEST_DSN")
	if dsn == "" {
		t.Skip("LEASH_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	// Simple protocol so the multi-statement migration file can run in one Exec.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE walk_events, walk_requests"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return db
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(content))
	return err
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func insertWalk(t *testing.T, store *PostgresStore, ownerID types.ID) *WalkRequest {
	t.Helper()
	w := &WalkRequest{
		ID:            newID(),
		OwnerID:       ownerID,
		OwnerName:     "Dana",
		PetIDs:        []string{"pet1", "pet2"},
		PetNames:      []string{"Rex", "Luna"},
		Pickup:        types.Point{Lat: 48.8566, Lng: 2.3522},
		PickupAddress: "1 Rue de Rivoli",
		DurationMins:  45,
		Status:        StatusPending,
		EstimatedFee:  types.Money{Amount: 2100, Currency: "EUR"},
		CreatedAt:     time.Now(),
	}
	if err := store.Create(context.Background(), w); err != nil {
		t.Fatalf("create walk: %v", err)
	}
	return w
}

func TestStoreCreateGetRoundtrip(t *testing.T) {
	store := NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	w := insertWalk(t, store, "owner_roundtrip")
	got, err := store.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OwnerID != w.OwnerID || got.Status != StatusPending || got.StatusVersion != 0 {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if len(got.PetIDs) != 2 || got.PetNames[1] != "Luna" {
		t.Fatalf("pet fields mismatch: %+v", got)
	}
	if got.EstimatedFee.Amount != 2100 {
		t.Fatalf("fee = %d, want 2100", got.EstimatedFee.Amount)
	}
	if got.SitterID != nil || got.CancelledBy != nil || got.CompletedAt != nil {
		t.Fatalf("expected empty optional fields: %+v", got)
	}

	if _, err := store.Get(ctx, newID()); err != ErrNotFound {
		t.Fatalf("missing walk: expected ErrNotFound, got %v", err)
	}
}

func TestStoreUpdateStatusCAS(t *testing.T) {
	store := NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	w := insertWalk(t, store, "owner_cas")

	ok, err := store.UpdateStatus(ctx, w.ID, StatusPending, StatusMatching, 0, nil, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !ok {
		t.Fatal("expected CAS success")
	}

	// Stale version loses.
	ok, err = store.UpdateStatus(ctx, w.ID, StatusMatching, StatusAssigned, 0, nil, nil)
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if ok {
		t.Fatal("expected CAS failure on stale version")
	}

	// Wrong expected status loses.
	ok, err = store.UpdateStatus(ctx, w.ID, StatusPending, StatusCancelled, 1, nil, nil)
	if err != nil {
		t.Fatalf("wrong-status update: %v", err)
	}
	if ok {
		t.Fatal("expected CAS failure on wrong status")
	}

	got, err := store.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusMatching || got.StatusVersion != 1 {
		t.Fatalf("status=%s version=%d, want matching/1", got.Status, got.StatusVersion)
	}
	if got.MatchingAt == nil {
		t.Fatal("expected matching_at to be stamped")
	}
}

func TestStoreUpdateStatusStampsSitterAndCompletion(t *testing.T) {
	store := NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	w := insertWalk(t, store, "owner_stamp")
	sitter := types.ID("sitter1")

	steps := []struct {
		from, to Status
		sitter   *types.ID
	}{
		{StatusPending, StatusMatching, nil},
		{StatusMatching, StatusAssigned, &sitter},
		{StatusAssigned, StatusWalking, nil},
		{StatusWalking, StatusCompleted, nil},
	}
	for i, st := range steps {
		ok, err := store.UpdateStatus(ctx, w.ID, st.from, st.to, i, st.sitter, nil)
		if err != nil || !ok {
			t.Fatalf("step %s→%s: ok=%v err=%v", st.from, st.to, ok, err)
		}
	}

	got, err := store.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted || got.StatusVersion != 4 {
		t.Fatalf("status=%s version=%d, want completed/4", got.Status, got.StatusVersion)
	}
	if got.SitterID == nil || *got.SitterID != sitter {
		t.Fatalf("sitter_id = %v, want %s", got.SitterID, sitter)
	}
	if got.AssignedAt == nil || got.CompletedAt == nil {
		t.Fatal("expected assigned_at and completed_at to be stamped")
	}
}

func TestStoreActiveAndHistoryByOwner(t *testing.T) {
	store := NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	owner := types.ID("owner_views")

	active, err := store.ActiveByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active != nil {
		t.Fatalf("expected no active walk, got %+v", active)
	}

	w := insertWalk(t, store, owner)
	has, err := store.HasActiveByOwner(ctx, owner)
	if err != nil || !has {
		t.Fatalf("HasActiveByOwner = %v, %v; want true", has, err)
	}

	active, err = store.ActiveByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active == nil || active.ID != w.ID {
		t.Fatalf("active = %+v, want %s", active, w.ID)
	}

	by := CancelledByOwner
	if ok, err := store.UpdateStatus(ctx, w.ID, StatusPending, StatusCancelled, 0, nil, &by); err != nil || !ok {
		t.Fatalf("cancel: ok=%v err=%v", ok, err)
	}

	active, err = store.ActiveByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("active after cancel: %v", err)
	}
	if active != nil {
		t.Fatal("cancelled walk should leave the active view")
	}
	history, err := store.HistoryByOwner(ctx, owner, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != w.ID || *history[0].CancelledBy != CancelledByOwner {
		t.Fatalf("history = %+v, want the cancelled walk", history)
	}
}

// TestWatchOwner exercises the LISTEN/NOTIFY feed end to end: initial
// snapshot on subscribe, then a fresh snapshot after a status change.
func TestWatchOwner(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostgresStore(db)
	watcher := NewWatcher(db, store, nil)
	owner := types.ID("owner_feed")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	feed, err := watcher.WatchOwner(ctx, owner)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	snap := <-feed
	if snap.Active != nil || len(snap.History) != 0 {
		t.Fatalf("initial snapshot should be empty, got %+v", snap)
	}

	w := insertWalk(t, store, owner)
	snap = waitForSnapshot(t, feed, func(s OwnerFeed) bool { return s.Active != nil })
	if snap.Active.ID != w.ID || snap.Active.Status != StatusPending {
		t.Fatalf("snapshot after create = %+v", snap.Active)
	}

	by := CancelledByOwner
	if ok, err := store.UpdateStatus(ctx, w.ID, StatusPending, StatusCancelled, 0, nil, &by); err != nil || !ok {
		t.Fatalf("cancel: ok=%v err=%v", ok, err)
	}
	snap = waitForSnapshot(t, feed, func(s OwnerFeed) bool { return s.Active == nil })
	if len(snap.History) != 1 || snap.History[0].Status != StatusCancelled {
		t.Fatalf("snapshot after cancel = %+v", snap)
	}
}

func waitForSnapshot(t *testing.T, feed <-chan OwnerFeed, match func(OwnerFeed) bool) OwnerFeed {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap, ok := <-feed:
			if !ok {
				t.Fatal("feed closed before expected snapshot")
			}
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for feed snapshot")
		}
	}
}
