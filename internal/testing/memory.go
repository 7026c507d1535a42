package testutil

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"builder-maps/internal/domain"
	"builder-maps/internal/models"
	errs "builder-maps/pkg/errors"
)

// MemoryRepository is an in-memory domain.Repository and
// domain.UnitOfWorkFactory. Writes made through a unit of work become
// visible only on Commit.
type MemoryRepository struct {
	mu       sync.Mutex
	spots    map[int64]models.Spot
	logs     []domain.AuditLog
	nextSpot int64
	nextLog  int64
	// claimed holds spots with a status change staged by an open unit of work.
	claimed map[int64]bool

	// Fail, when set, is returned by every write.
	Fail error
	// Commits counts successful commits.
	Commits int
}

var (
	_ domain.Repository        = (*MemoryRepository)(nil)
	_ domain.UnitOfWorkFactory = (*MemoryRepository)(nil)
)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{spots: make(map[int64]models.Spot), claimed: make(map[int64]bool)}
}

// Seed stores spots directly, assigning IDs to those without one.
func (m *MemoryRepository) Seed(spots ...models.Spot) []models.Spot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Spot, 0, len(spots))
	for _, s := range spots {
		if s.ID == 0 {
			m.nextSpot++
			s.ID = m.nextSpot
		} else if s.ID > m.nextSpot {
			m.nextSpot = s.ID
		}
		if s.Status == "" {
			s.Status = models.StatusApproved
		}
		m.spots[s.ID] = s
		out = append(out, s)
	}
	return out
}

// Spots returns every stored spot ordered by ID.
func (m *MemoryRepository) Spots() []models.Spot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Spot, 0, len(m.spots))
	for _, s := range m.spots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AuditLogs returns every committed audit entry in insertion order.
func (m *MemoryRepository) AuditLogs() []domain.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditLog(nil), m.logs...)
}

func (m *MemoryRepository) ListSpotsByCityCtx(ctx context.Context, cityID string, statuses []models.SpotStatus) ([]models.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[models.SpotStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	out := make([]models.Spot, 0)
	for _, s := range m.spots {
		if s.CityID != cityID {
			continue
		}
		if len(want) > 0 && !want[s.Status] {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) GetSpotByIDCtx(ctx context.Context, id int64) (*models.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[id]
	if !ok {
		return nil, errs.NewNotFound("MemoryRepository.GetSpotByIDCtx", "spot", strconv.FormatInt(id, 10))
	}
	return &s, nil
}

func (m *MemoryRepository) CreateSpotCtx(ctx context.Context, spot *models.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.stageSpot(spot)
	m.spots[spot.ID] = *spot
	return nil
}

func (m *MemoryRepository) stageSpot(spot *models.Spot) {
	m.nextSpot++
	now := time.Now().UTC()
	spot.ID = m.nextSpot
	spot.CreatedAt = now
	spot.UpdatedAt = now
	if spot.Status == "" {
		spot.Status = models.StatusPending
	}
}

func (m *MemoryRepository) UpdateSpotStatusCtx(ctx context.Context, id int64, status models.SpotStatus, adminID int, note *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	if err := m.checkPending(id); err != nil {
		return err
	}
	m.applyStatus(id, status, adminID, note)
	return nil
}

// checkPending mirrors the SQL guard: only pending spots change status.
func (m *MemoryRepository) checkPending(id int64) error {
	s, ok := m.spots[id]
	if !ok {
		return errs.NewNotFound("MemoryRepository.UpdateSpotStatusCtx", "spot", strconv.FormatInt(id, 10))
	}
	if s.Status != models.StatusPending {
		return errs.NewBiz("MemoryRepository.UpdateSpotStatusCtx", fmt.Sprintf("spot is already %s", s.Status), nil)
	}
	if m.claimed[id] {
		return errs.NewBiz("MemoryRepository.UpdateSpotStatusCtx", "spot is already being reviewed", nil)
	}
	return nil
}

func (m *MemoryRepository) applyStatus(id int64, status models.SpotStatus, adminID int, note *string) {
	s := m.spots[id]
	now := time.Now().UTC()
	s.Status = status
	s.ReviewedBy = &adminID
	s.ReviewedAt = &now
	s.ReviewNote = note
	s.UpdatedAt = now
	m.spots[id] = s
}

func (m *MemoryRepository) GetCityStatsCtx(ctx context.Context, cityID string) (*models.CityStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &models.CityStats{CityID: cityID}
	for _, s := range m.spots {
		if s.CityID != cityID {
			continue
		}
		switch s.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusApproved:
			st.Approved++
		case models.StatusRejected:
			st.Rejected++
		}
		st.Total++
	}
	return st, nil
}

func (m *MemoryRepository) CreateAuditLogCtx(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.nextLog++
	log.ID = m.nextLog
	m.logs = append(m.logs, *log)
	return nil
}

func (m *MemoryRepository) GetAuditLogsBySpotIDCtx(ctx context.Context, spotID int64) ([]domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditLog, 0)
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].SpotID == spotID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

// Begin starts a buffered unit of work.
func (m *MemoryRepository) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	return &memoryUoW{MemoryRepository: m}, nil
}

// memoryUoW reads through to the repository and queues writes until Commit.
type memoryUoW struct {
	*MemoryRepository
	pending []func()
	claims  []int64
	done    bool
}

func (u *memoryUoW) CreateSpotCtx(ctx context.Context, spot *models.Spot) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail != nil {
		return u.Fail
	}
	u.stageSpot(spot)
	staged := *spot
	u.pending = append(u.pending, func() { u.spots[staged.ID] = staged })
	return nil
}

func (u *memoryUoW) UpdateSpotStatusCtx(ctx context.Context, id int64, status models.SpotStatus, adminID int, note *string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail != nil {
		return u.Fail
	}
	if err := u.checkPending(id); err != nil {
		return err
	}
	u.claimed[id] = true
	u.claims = append(u.claims, id)
	u.pending = append(u.pending, func() { u.applyStatus(id, status, adminID, note) })
	return nil
}

func (u *memoryUoW) CreateAuditLogCtx(ctx context.Context, log *domain.AuditLog) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail != nil {
		return u.Fail
	}
	u.nextLog++
	log.ID = u.nextLog
	staged := *log
	u.pending = append(u.pending, func() { u.logs = append(u.logs, staged) })
	return nil
}

func (u *memoryUoW) Commit() error {
	if u.done {
		return nil
	}
	u.done = true
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, apply := range u.pending {
		apply()
	}
	u.pending = nil
	u.release()
	u.Commits++
	return nil
}

func (u *memoryUoW) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = nil
	u.release()
	return nil
}

// release drops this unit's claims. Callers hold u.mu.
func (u *memoryUoW) release() {
	for _, id := range u.claims {
		delete(u.claimed, id)
	}
	u.claims = nil
}
