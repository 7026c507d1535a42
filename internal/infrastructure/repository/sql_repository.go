package repository

import (
	"context"

	"builder-maps/internal/domain"
	"builder-maps/internal/models"
	"builder-maps/pkg/database"
)

// SQLRepository is a thin adapter over pkg/database.DB to satisfy domain repositories.
// It keeps business logic decoupled from the SQL layer.
type SQLRepository struct {
	db *database.DB
}

func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Ensure interface compliance at compile time
var _ domain.Repository = (*SQLRepository)(nil)

// SpotRepository methods
func (r *SQLRepository) ListSpotsByCityCtx(ctx context.Context, cityID string, statuses []models.SpotStatus) ([]models.Spot, error) {
	return r.db.ListSpotsByCityCtx(ctx, cityID, statuses)
}

func (r *SQLRepository) GetSpotByIDCtx(ctx context.Context, id int64) (*models.Spot, error) {
	return r.db.GetSpotByIDCtx(ctx, id)
}

func (r *SQLRepository) CreateSpotCtx(ctx context.Context, spot *models.Spot) error {
	return r.db.CreateSpotCtx(ctx, spot)
}

func (r *SQLRepository) UpdateSpotStatusCtx(ctx context.Context, id int64, status models.SpotStatus, adminID int, note *string) error {
	return r.db.UpdateSpotStatusCtx(ctx, id, status, adminID, note)
}

func (r *SQLRepository) GetCityStatsCtx(ctx context.Context, cityID string) (*models.CityStats, error) {
	return r.db.GetCityStatsCtx(ctx, cityID)
}

// AuditLogRepository methods
func (r *SQLRepository) CreateAuditLogCtx(ctx context.Context, log *domain.AuditLog) error {
	return r.db.CreateAuditLogCtx(ctx, log)
}

func (r *SQLRepository) GetAuditLogsBySpotIDCtx(ctx context.Context, spotID int64) ([]domain.AuditLog, error) {
	return r.db.GetAuditLogsBySpotIDCtx(ctx, spotID)
}
