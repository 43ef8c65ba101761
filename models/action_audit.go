package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionAudit mirrors processed actions into a local database for reporting.
// The per-case history.json remains the canonical audit trail; this table is
// a queryable index across cases.
type ActionAudit struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	CaseID       string `gorm:"index"`
	BusinessName string `gorm:"index"`
	Code         string `gorm:"index"`
	Narrative    string `gorm:"type:text"`
	UserInitials string
	Success      bool
	Error        string `gorm:"type:text"`
	DocumentURL  string
	CreatedAt    time.Time
}

// BeforeCreate hook to generate UUID
func (a *ActionAudit) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ActionAudit
func (ActionAudit) TableName() string {
	return "action_audits"
}
