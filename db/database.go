package db

import (
	"fmt"
	"log"

	"collections_flow_go/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenAudit opens the sqlite audit mirror and migrates its schema. The
// per-case history.json stays the canonical trail; this database only backs
// the cross-case audit queries, so callers may run without one.
func OpenAudit(dbPath string, environment string) (*gorm.DB, error) {
	logLevel := logger.Info
	if environment == "production" {
		logLevel = logger.Warn
	}

	// WAL keeps audit writes from blocking the read endpoints
	dsn := dbPath + "?_journal_mode=WAL"

	auditDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := auditDB.AutoMigrate(&models.ActionAudit{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit schema: %w", err)
	}

	log.Println("Audit database ready (WAL mode enabled)")
	return auditDB, nil
}

// Close releases the underlying sqlite connection. A nil handle is a no-op.
func Close(auditDB *gorm.DB) error {
	if auditDB == nil {
		return nil
	}
	sqlDB, err := auditDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
