package db

import (
	"path/filepath"
	"testing"

	"collections_flow_go/models"

	"github.com/stretchr/testify/assert"
)

func TestOpenAudit(t *testing.T) {
	auditDB, err := OpenAudit(filepath.Join(t.TempDir(), "audit.db"), "test")
	assert.NoError(t, err)
	assert.NotNil(t, auditDB)
	defer Close(auditDB)

	// Schema is migrated on open
	assert.True(t, auditDB.Migrator().HasTable(&models.ActionAudit{}))

	audit := models.ActionAudit{CaseID: "ACC-1001", Code: "NOTE", Success: true}
	assert.NoError(t, auditDB.Create(&audit).Error)
	assert.NotEmpty(t, audit.ID)
}

func TestCloseNilHandle(t *testing.T) {
	assert.NoError(t, Close(nil))
}
