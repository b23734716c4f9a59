// README: FCM push delivery for mission offers.
package notify

import (
	"context"
	"fmt"
	"strconv"

	"firebase.google.com/go/v4/messaging"

	"leash/internal/modules/sitter"
)

// FCMNotifier sends mission-offer data messages to a petsitter's device. The
// device token must be resolved by the caller.
type FCMNotifier struct {
	client *messaging.Client
}

func NewFCMNotifier(client *messaging.Client) *FCMNotifier {
	return &FCMNotifier{client: client}
}

func (n *FCMNotifier) NotifyMission(ctx context.Context, deviceToken string, m sitter.Mission) error {
	if deviceToken == "" {
		return fmt.Errorf("empty device token for walk %s", string(m.WalkID))
	}

	msg := &messaging.Message{
		Token: deviceToken,
		Data: map[string]string{
			"type":            "mission_offer",
			"walk_id":         string(m.WalkID),
			"owner_name":      m.OwnerName,
			"duration_mins":   strconv.Itoa(m.DurationMins),
			"distance_meters": strconv.FormatFloat(m.DistanceMeters, 'f', 0, 64),
			"pickup_lat":      strconv.FormatFloat(m.Pickup.Lat, 'f', 6, 64),
			"pickup_lng":      strconv.FormatFloat(m.Pickup.Lng, 'f', 6, 64),
			"expires_at":      strconv.FormatInt(m.ExpiresAt.UnixMilli(), 10),
		},
		Notification: &messaging.Notification{
			Title: "New walk request",
			Body:  fmt.Sprintf("%d min walk, pickup %.0fm away", m.DurationMins, m.DistanceMeters),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	if _, err := n.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending FCM for walk %s: %w", string(m.WalkID), err)
	}
	return nil
}
