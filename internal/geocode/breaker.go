package geocode

import (
	"context"
	"errors"

	"builder-maps/pkg/circuit"
	errs "builder-maps/pkg/errors"
)

type breakerGeocoder struct {
	next Geocoder
	cb   *circuit.Breaker
}

// WithBreaker routes calls through cb. Only upstream failures count against
// the breaker; an address that simply has no match does not.
func WithBreaker(next Geocoder, cb *circuit.Breaker) Geocoder {
	return &breakerGeocoder{next: next, cb: cb}
}

func (g *breakerGeocoder) Geocode(ctx context.Context, address string) (*Place, error) {
	var (
		place   *Place
		callErr error
	)
	err := g.cb.Do(ctx, func(ctx context.Context) error {
		place, callErr = g.next.Geocode(ctx, address)
		if errs.Is(callErr, errs.ErrExternal) {
			return callErr
		}
		return nil
	})
	if errors.Is(err, circuit.ErrOpen) {
		return nil, errs.NewExternal("geocode.Geocode", "google", "geocoder temporarily unavailable", err)
	}
	if err != nil {
		return nil, err
	}
	return place, callErr
}
