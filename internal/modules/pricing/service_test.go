package pricing

import (
	"context"
	"testing"

	"leash/internal/modules/walk"
)

func TestEstimate(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	cases := []struct {
		mins int
		want int64
	}{
		{30, 1500},
		{45, 2100},
		{60, 2700},
	}
	for _, tc := range cases {
		m, err := svc.Estimate(ctx, tc.mins)
		if err != nil {
			t.Fatalf("estimate %d mins: %v", tc.mins, err)
		}
		if m.Amount != tc.want {
			t.Errorf("estimate %d mins = %d, want %d", tc.mins, m.Amount, tc.want)
		}
		if m.Currency != "EUR" {
			t.Errorf("currency = %s, want EUR", m.Currency)
		}
	}
}

func TestEstimate_UnknownDuration(t *testing.T) {
	svc := NewService()
	if _, err := svc.Estimate(context.Background(), 20); err != walk.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for 20 mins, got %v", err)
	}
}
