package services

import (
	"context"
	"log"
	"os"
	"time"

	"collections_flow_go/config"

	"gorm.io/gorm"
)

// HealthCheck is the result of probing one dependency.
type HealthCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// HealthReport aggregates every dependency probe.
type HealthReport struct {
	Healthy   bool          `json:"healthy"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []HealthCheck `json:"checks"`
}

// DiagnosticsService probes the dependencies the workflow needs at runtime:
// the case sheet, the storage backend, letter templates, and the audit
// database. Probes are cheap enough to run on every health request.
type DiagnosticsService struct {
	source  CaseSource
	storage StorageProvider
	auditDB *gorm.DB
	cfg     *config.Config
	now     func() time.Time
}

func NewDiagnosticsService(source CaseSource, storage StorageProvider, auditDB *gorm.DB, cfg *config.Config) *DiagnosticsService {
	return &DiagnosticsService{
		source:  source,
		storage: storage,
		auditDB: auditDB,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Check runs all probes and reports overall health.
func (d *DiagnosticsService) Check(ctx context.Context) HealthReport {
	report := HealthReport{Healthy: true, Timestamp: d.now()}

	report.add(d.checkSheet())
	report.add(d.checkStorage(ctx))
	report.add(d.checkTemplates())
	report.add(d.checkAuditDB())

	if !report.Healthy {
		log.Printf("[WARNING] Health check failed: %+v", report.Checks)
	}
	return report
}

func (r *HealthReport) add(check HealthCheck) {
	r.Checks = append(r.Checks, check)
	if !check.OK {
		r.Healthy = false
	}
}

func (d *DiagnosticsService) checkSheet() HealthCheck {
	check := HealthCheck{Name: "sheet"}
	cases, err := d.source.ListCases()
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	if len(cases) == 0 {
		check.Detail = "sheet is readable but contains no cases"
	}
	return check
}

func (d *DiagnosticsService) checkStorage(ctx context.Context) HealthCheck {
	check := HealthCheck{Name: "storage"}
	if !d.storage.IsConfigured() {
		check.Detail = "storage provider not configured"
		return check
	}
	// Probing a key that cannot exist still exercises the backend round trip.
	if _, err := d.storage.Exists(ctx, ".healthcheck"); err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	return check
}

func (d *DiagnosticsService) checkTemplates() HealthCheck {
	check := HealthCheck{Name: "templates", OK: true}
	for code, path := range d.cfg.Templates {
		if _, err := os.Stat(path); err != nil {
			check.OK = false
			check.Detail = "template for " + code + " missing: " + path
			return check
		}
	}
	if len(d.cfg.Templates) == 0 {
		check.Detail = "no letter templates configured"
	}
	return check
}

func (d *DiagnosticsService) checkAuditDB() HealthCheck {
	check := HealthCheck{Name: "audit_db"}
	if d.auditDB == nil {
		// Auditing is optional; absence is not a failure.
		check.OK = true
		check.Detail = "audit database disabled"
		return check
	}
	sqlDB, err := d.auditDB.DB()
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	if err := sqlDB.Ping(); err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	return check
}
