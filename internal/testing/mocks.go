package testutil

import (
	"context"
	"sync"

	"builder-maps/internal/geocode"
	"builder-maps/internal/models"
	errs "builder-maps/pkg/errors"
)

// MockGeocoder implements geocode.Geocoder for tests.
type MockGeocoder struct {
	Mu    sync.Mutex
	Resp  map[string]*geocode.Place
	Err   error
	Calls []string
}

func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{Resp: map[string]*geocode.Place{}}
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*geocode.Place, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls = append(m.Calls, address)
	if m.Err != nil {
		return nil, m.Err
	}
	if p, ok := m.Resp[address]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, errs.NewNotFound("MockGeocoder.Geocode", "address", address)
}

// MockScreener implements screening.Screener for tests.
type MockScreener struct {
	Mu     sync.Mutex
	Result *models.ScreeningResult
	Err    error
	Seen   []models.Spot
}

func (m *MockScreener) Screen(ctx context.Context, spot models.Spot) (*models.ScreeningResult, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Seen = append(m.Seen, spot)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result == nil {
		return &models.ScreeningResult{Verdict: models.VerdictOK, Model: "mock"}, nil
	}
	r := *m.Result
	return &r, nil
}
