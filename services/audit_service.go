package services

import (
	"log"

	"collections_flow_go/models"

	"gorm.io/gorm"
)

// RecordActionAudit mirrors a processed action into the audit database.
// The per-case history.json is the canonical trail; this table exists for
// cross-case reporting, so a write failure is logged and swallowed.
func RecordActionAudit(db *gorm.DB, audit *models.ActionAudit) {
	if db == nil {
		return
	}
	if err := db.Create(audit).Error; err != nil {
		log.Printf("[AUDIT] Failed to record action audit: %v", err)
	}
}

// GetCaseAuditHistory retrieves the audited actions for one case, newest first.
func GetCaseAuditHistory(db *gorm.DB, caseID string) ([]models.ActionAudit, error) {
	var audits []models.ActionAudit
	err := db.Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&audits).Error
	return audits, err
}

// GetRecentAudits retrieves the most recent audited actions across all cases.
func GetRecentAudits(db *gorm.DB, limit int) ([]models.ActionAudit, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var audits []models.ActionAudit
	err := db.Order("created_at DESC").Limit(limit).Find(&audits).Error
	return audits, err
}
