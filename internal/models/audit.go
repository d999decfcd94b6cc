package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditEventType string

const (
	AuditAttemptStarted   AuditEventType = "attempt_started"
	AuditAttemptCompleted AuditEventType = "attempt_completed"
	AuditReattemptGranted AuditEventType = "reattempt_granted"
	AuditRetestRequested  AuditEventType = "retest_requested"
	AuditRetestApproved   AuditEventType = "retest_approved"
	AuditRetestDenied     AuditEventType = "retest_denied"
	AuditRosterImported   AuditEventType = "roster_imported"
)

// AuditLog records administrative and lifecycle actions. Details carries the
// action-specific payload as JSONB.
type AuditLog struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	EventType AuditEventType `json:"event_type" gorm:"not null;index"`
	ActorID   string         `json:"actor_id" gorm:"not null;index;size:36"`

	TargetType string  `json:"target_type" gorm:"size:50;index"` // exam, attempt, assignment
	TargetID   *string `json:"target_id" gorm:"size:36;index"`

	Details datatypes.JSON `json:"details" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
