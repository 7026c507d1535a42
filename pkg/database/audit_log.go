package database

import (
	"context"

	"builder-maps/internal/domain"
	errs "builder-maps/pkg/errors"
)

// CreateAuditLogCtx inserts a new audit log entry
func (s *store) CreateAuditLogCtx(ctx context.Context, log *domain.AuditLog) error {
	ctx, cancel := s.withWriteTimeout(ctx)
	defer cancel()

	result, err := s.q.ExecContext(ctx, `INSERT INTO spot_audit_logs
	          (spot_id, admin_id, action, reason, details, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`,
		log.SpotID,
		log.AdminID,
		string(log.Action),
		log.Reason,
		log.Details,
		log.CreatedAt,
	)
	if err != nil {
		return errs.NewDB("database.CreateAuditLogCtx", "failed to insert audit log", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errs.NewDB("database.CreateAuditLogCtx", "failed to get last insert ID", err)
	}

	log.ID = id
	return nil
}

// GetAuditLogsBySpotIDCtx returns the history of one spot, newest first.
func (s *store) GetAuditLogsBySpotIDCtx(ctx context.Context, spotID int64) ([]domain.AuditLog, error) {
	ctx, cancel := s.withReadTimeout(ctx)
	defer cancel()

	rows, err := s.q.QueryContext(ctx, `SELECT id, spot_id, admin_id, action, reason, details, created_at
	          FROM spot_audit_logs
	          WHERE spot_id = ?
	          ORDER BY created_at DESC, id DESC`, spotID)
	if err != nil {
		return nil, errs.NewDB("database.GetAuditLogsBySpotIDCtx", "failed to query audit logs", err)
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0)
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(&l.ID, &l.SpotID, &l.AdminID, &l.Action, &l.Reason, &l.Details, &l.CreatedAt); err != nil {
			return nil, errs.NewDB("database.GetAuditLogsBySpotIDCtx", "failed to scan audit log", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDB("database.GetAuditLogsBySpotIDCtx", "row iteration error", err)
	}
	return logs, nil
}
