// README: Pricing service computes walk fee estimates.
package pricing

import (
	"context"

	"leash/internal/modules/walk"
	"leash/internal/types"
)

// Flat per-duration rates in euro cents. Walks are fixed-length, so there is
// no per-distance component.
var rates = map[int]int64{
	30: 1500,
	45: 2100,
	60: 2700,
}

type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Estimate(ctx context.Context, durationMins int) (types.Money, error) {
	amount, ok := rates[durationMins]
	if !ok {
		return types.Money{}, walk.ErrInvalidInput
	}
	return types.Money{Amount: amount, Currency: "EUR"}, nil
}
