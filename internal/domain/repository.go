package domain

import (
	"context"

	"builder-maps/internal/models"
)

// SpotRepository defines data access for spots.
type SpotRepository interface {
	// ListSpotsByCityCtx returns spots of one city in the given statuses.
	// An empty statuses slice means every status.
	ListSpotsByCityCtx(ctx context.Context, cityID string, statuses []models.SpotStatus) ([]models.Spot, error)
	GetSpotByIDCtx(ctx context.Context, id int64) (*models.Spot, error)
	CreateSpotCtx(ctx context.Context, spot *models.Spot) error
	UpdateSpotStatusCtx(ctx context.Context, id int64, status models.SpotStatus, adminID int, note *string) error
	GetCityStatsCtx(ctx context.Context, cityID string) (*models.CityStats, error)
}

// AuditLogRepository defines audit log data access for spot moderation.
type AuditLogRepository interface {
	CreateAuditLogCtx(ctx context.Context, log *AuditLog) error
	GetAuditLogsBySpotIDCtx(ctx context.Context, spotID int64) ([]AuditLog, error)
}

// Repository aggregates the repos commonly required by services.
type Repository interface {
	SpotRepository
	AuditLogRepository
}
