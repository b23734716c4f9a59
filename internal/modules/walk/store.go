// README: Durable walk store backed by PostgreSQL.
package walk

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leash/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

const walkColumns = `
	id, owner_id, owner_name, pet_ids, pet_names,
	pickup_lat, pickup_lng, pickup_address, duration_mins,
	status, status_version, sitter_id, sitter_name, cancelled_by,
	estimated_fee, created_at, matching_at, assigned_at, completed_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, w *WalkRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO walk_requests (
			id, owner_id, owner_name, pet_ids, pet_names,
			pickup_lat, pickup_lng, pickup_address, duration_mins,
			status, status_version, estimated_fee, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $13
		)`,
		string(w.ID),
		string(w.OwnerID),
		w.OwnerName,
		w.PetIDs,
		w.PetNames,
		w.Pickup.Lat, w.Pickup.Lng,
		w.PickupAddress,
		w.DurationMins,
		string(w.Status),
		w.StatusVersion,
		w.EstimatedFee.Amount,
		w.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*WalkRequest, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+walkColumns+`
		FROM walk_requests
		WHERE id = $1`, string(id),
	)
	return scanWalk(row)
}

// UpdateStatus applies the transition only if the record still carries the
// expected status and version; the losing writer of a race gets false back.
// Lifecycle timestamps are stamped in the same statement so they can never
// drift from the status they describe.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, sitterID *types.ID, cancelledBy *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE walk_requests
		SET status = $1,
			status_version = status_version + 1,
			sitter_id = COALESCE($2, sitter_id),
			cancelled_by = COALESCE($3, cancelled_by),
			matching_at = CASE WHEN $1 = 'matching' THEN NOW() ELSE matching_at END,
			assigned_at = CASE WHEN $1 = 'assigned' THEN NOW() ELSE assigned_at END,
			completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		toStringPtr(sitterID),
		cancelledBy,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO walk_events (
			walk_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.WalkID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *PostgresStore) HasActiveByOwner(ctx context.Context, ownerID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM walk_requests
			WHERE owner_id = $1
			  AND status IN ('pending','matching','assigned','going_to_owner','walking','returning')
		)`, string(ownerID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ActiveByOwner returns the owner's single most recent non-retired request:
// anything not completed, cancelled, or dismissed. Failed/expired records
// stay in this view until the owner dismisses them. Returns nil when the
// owner has no active request.
func (s *PostgresStore) ActiveByOwner(ctx context.Context, ownerID types.ID) (*WalkRequest, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+walkColumns+`
		FROM walk_requests
		WHERE owner_id = $1
		  AND status NOT IN ('completed','cancelled','dismissed')
		ORDER BY created_at DESC
		LIMIT 1`, string(ownerID),
	)
	w, err := scanWalk(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return w, err
}

func (s *PostgresStore) HistoryByOwner(ctx context.Context, ownerID types.ID, limit int) ([]*WalkRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+walkColumns+`
		FROM walk_requests
		WHERE owner_id = $1
		  AND status IN ('completed','cancelled','dismissed')
		ORDER BY created_at DESC
		LIMIT $2`, string(ownerID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*WalkRequest
	for rows.Next() {
		w, err := scanWalk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWalk(row pgx.Row) (*WalkRequest, error) {
	var w WalkRequest
	var rawStatus string
	var sitterID, sitterName, cancelledBy sql.NullString
	var matchingAt, assignedAt, completedAt sql.NullTime

	err := row.Scan(
		&w.ID, &w.OwnerID, &w.OwnerName, &w.PetIDs, &w.PetNames,
		&w.Pickup.Lat, &w.Pickup.Lng, &w.PickupAddress, &w.DurationMins,
		&rawStatus, &w.StatusVersion, &sitterID, &sitterName, &cancelledBy,
		&w.EstimatedFee.Amount, &w.CreatedAt, &matchingAt, &assignedAt, &completedAt, &w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	w.Status = ParseStatus(rawStatus)
	if sitterID.Valid {
		id := types.ID(sitterID.String)
		w.SitterID = &id
	}
	if sitterName.Valid {
		w.SitterName = &sitterName.String
	}
	if cancelledBy.Valid {
		w.CancelledBy = &cancelledBy.String
	}
	w.MatchingAt = toTimePtr(matchingAt)
	w.AssignedAt = toTimePtr(assignedAt)
	w.CompletedAt = toTimePtr(completedAt)
	if w.EstimatedFee.Currency == "" {
		w.EstimatedFee.Currency = "EUR"
	}
	return &w, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
