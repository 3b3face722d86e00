package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditLog is an append-only record of every state changing mutation.
// It does NOT use BaseModel because audit rows are never updated.
type AuditLog struct {
	ID           uint                   `json:"id" gorm:"primaryKey"`
	UserID       *uint                  `json:"userId,omitempty" gorm:"index"`
	Action       string                 `json:"action" gorm:"type:varchar(50);not null;index"`
	ResourceType string                 `json:"resourceType" gorm:"type:varchar(30);not null;index"`
	ResourceID   *uint                  `json:"resourceId,omitempty" gorm:"index"`
	Details      map[string]interface{} `json:"details,omitempty" gorm:"serializer:json"`
	IPAddress    string                 `json:"ipAddress" gorm:"type:varchar(45);not null"`
	RequestID    string                 `json:"requestId,omitempty" gorm:"type:varchar(36)"`
	CreatedAt    time.Time              `json:"createdAt" gorm:"not null;index"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
