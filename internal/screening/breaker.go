package screening

import (
	"context"
	"errors"

	"builder-maps/internal/models"
	"builder-maps/pkg/circuit"
	errs "builder-maps/pkg/errors"
)

type breakerScreener struct {
	next Screener
	cb   *circuit.Breaker
}

// WithBreaker routes screening calls through cb.
func WithBreaker(next Screener, cb *circuit.Breaker) Screener {
	return &breakerScreener{next: next, cb: cb}
}

func (s *breakerScreener) Screen(ctx context.Context, spot models.Spot) (*models.ScreeningResult, error) {
	var result *models.ScreeningResult
	err := s.cb.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.next.Screen(ctx, spot)
		return err
	})
	if errors.Is(err, circuit.ErrOpen) {
		return nil, errs.NewExternal("screening.Screen", "openai", "screening temporarily unavailable", err)
	}
	return result, err
}
