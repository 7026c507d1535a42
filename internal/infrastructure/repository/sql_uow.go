package repository

import (
	"context"

	"builder-maps/internal/domain"
	"builder-maps/internal/models"
	"builder-maps/pkg/database"
)

// SQLUnitOfWorkFactory starts SQL-backed UnitOfWork transactions.
type SQLUnitOfWorkFactory struct {
	db *database.DB
}

func NewSQLUnitOfWorkFactory(db *database.DB) *SQLUnitOfWorkFactory {
	return &SQLUnitOfWorkFactory{db: db}
}

// Ensure interface conformance
var _ domain.UnitOfWorkFactory = (*SQLUnitOfWorkFactory)(nil)

func (f *SQLUnitOfWorkFactory) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	tx, err := f.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &SQLUnitOfWork{tx: tx}, nil
}

// SQLUnitOfWork routes every read and write through a single transaction.
type SQLUnitOfWork struct {
	tx *database.Tx
}

var _ domain.UnitOfWork = (*SQLUnitOfWork)(nil)

func (u *SQLUnitOfWork) Commit() error   { return u.tx.Commit() }
func (u *SQLUnitOfWork) Rollback() error { return u.tx.Rollback() }

func (u *SQLUnitOfWork) ListSpotsByCityCtx(ctx context.Context, cityID string, statuses []models.SpotStatus) ([]models.Spot, error) {
	return u.tx.ListSpotsByCityCtx(ctx, cityID, statuses)
}

func (u *SQLUnitOfWork) GetSpotByIDCtx(ctx context.Context, id int64) (*models.Spot, error) {
	return u.tx.GetSpotByIDCtx(ctx, id)
}

func (u *SQLUnitOfWork) CreateSpotCtx(ctx context.Context, spot *models.Spot) error {
	return u.tx.CreateSpotCtx(ctx, spot)
}

func (u *SQLUnitOfWork) UpdateSpotStatusCtx(ctx context.Context, id int64, status models.SpotStatus, adminID int, note *string) error {
	return u.tx.UpdateSpotStatusCtx(ctx, id, status, adminID, note)
}

func (u *SQLUnitOfWork) GetCityStatsCtx(ctx context.Context, cityID string) (*models.CityStats, error) {
	return u.tx.GetCityStatsCtx(ctx, cityID)
}

func (u *SQLUnitOfWork) CreateAuditLogCtx(ctx context.Context, log *domain.AuditLog) error {
	return u.tx.CreateAuditLogCtx(ctx, log)
}

func (u *SQLUnitOfWork) GetAuditLogsBySpotIDCtx(ctx context.Context, spotID int64) ([]domain.AuditLog, error) {
	return u.tx.GetAuditLogsBySpotIDCtx(ctx, spotID)
}
