// README: Petsitter mission offers and presence.
package sitter

import (
	"fmt"
	"time"

	"leash/internal/geo"
	"leash/internal/types"
)

// Mission is a time-boxed walk offer addressed to one petsitter. It is never
// the object of a transition itself: accepting or declining records a
// response for the external matcher, which owns the WalkRequest assignment.
type Mission struct {
	WalkID         types.ID    `json:"walk_id"`
	SitterID       types.ID    `json:"sitter_id"`
	OwnerID        types.ID    `json:"owner_id"`
	OwnerName      string      `json:"owner_name"`
	PetNames       []string    `json:"pet_names"`
	DurationMins   int         `json:"duration_mins"`
	DistanceMeters float64     `json:"distance_meters"`
	Pickup         types.Point `json:"pickup"`
	PickupAddress  string      `json:"pickup_address"`
	ExpiresAt      time.Time   `json:"expires_at"`
}

// Expired reports whether the offer window has closed. An expired mission is
// indistinguishable from a missing one everywhere in the API.
func (m Mission) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// TooFarError is returned when the completion distance gate fails. It is the
// only error carrying a payload: the UI renders the measured distance against
// the threshold so the refusal is explainable.
type TooFarError struct {
	DistanceMeters float64
	MaxMeters      float64
}

func (e *TooFarError) Error() string {
	return fmt.Sprintf("too far from owner: %.0fm away, must be within %.0fm", e.DistanceMeters, e.MaxMeters)
}

// NewTooFarError applies the standard completion radius.
func NewTooFarError(distanceMeters float64) *TooFarError {
	return &TooFarError{DistanceMeters: distanceMeters, MaxMeters: geo.CompletionRadiusMeters}
}
