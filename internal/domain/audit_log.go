package domain

import "time"

// AuditAction is what happened to a spot.
type AuditAction string

const (
	ActionNominated AuditAction = "nominated"
	ActionApproved  AuditAction = "approved"
	ActionRejected  AuditAction = "rejected"
)

// AuditLog records a nomination or a moderation decision.
type AuditLog struct {
	ID      int64       `json:"id"`
	SpotID  int64       `json:"spotId"`
	AdminID *int        `json:"adminId,omitempty"` // NULL for public nominations
	Action  AuditAction `json:"action"`
	Reason  *string     `json:"reason,omitempty"`
	// Details is a JSON document, e.g. the duplicate matches a forced nomination overrode.
	Details   *string   `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewAuditLog creates a new audit log entry
func NewAuditLog(spotID int64, adminID *int, action AuditAction, reason *string) *AuditLog {
	return &AuditLog{
		SpotID:    spotID,
		AdminID:   adminID,
		Action:    action,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}
