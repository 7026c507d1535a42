package domain

import "context"

// UnitOfWork runs a set of repository operations in one database transaction.
//
// Typical usage:
//
//	uow, err := factory.Begin(ctx)
//	if err != nil { ... }
//	defer uow.Rollback()
//	if err := uow.UpdateSpotStatusCtx(ctx, id, models.StatusApproved, adminID, nil); err != nil { ... }
//	if err := uow.CreateAuditLogCtx(ctx, entry); err != nil { ... }
//	if err := uow.Commit(); err != nil { ... }
//
// Rollback after Commit is a no-op.
type UnitOfWork interface {
	Commit() error
	Rollback() error

	Repository
}

// UnitOfWorkFactory starts new UnitOfWork instances.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
