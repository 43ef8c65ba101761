package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"collections_flow_go/config"
	"collections_flow_go/models"

	"gorm.io/gorm"
)

// ActionResult is the outcome of processing one workflow action. All
// failures are data: nothing escapes the processor boundary as a panic.
type ActionResult struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
	PDFURL      string                 `json:"pdfUrl,omitempty"`
	Corrections models.MetadataUpdates `json:"corrections,omitempty"`
}

// ActionProcessor orchestrates the case workflow: load case, resolve or
// create its container, validate the transition, run side effects, apply the
// metadata delta, append history. Every call re-reads current truth from the
// store; the processor holds no case state of its own.
type ActionProcessor struct {
	source    CaseSource
	store     CaseStore
	archiver  Archiver
	engine    *StatusEngine
	gate      *IntegrityGate
	generator DocumentGenerator // nil disables template generation
	users     UserResolver
	auditDB   *gorm.DB // nil disables the audit mirror
	cfg       *config.Config
	now       func() time.Time
}

// NewActionProcessor wires the processor. generator and auditDB may be nil.
func NewActionProcessor(
	source CaseSource,
	store CaseStore,
	archiver Archiver,
	engine *StatusEngine,
	gate *IntegrityGate,
	generator DocumentGenerator,
	users UserResolver,
	auditDB *gorm.DB,
	cfg *config.Config,
) *ActionProcessor {
	return &ActionProcessor{
		source:    source,
		store:     store,
		archiver:  archiver,
		engine:    engine,
		gate:      gate,
		generator: generator,
		users:     users,
		auditDB:   auditDB,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ProcessAction validates and records one action against a case.
func (p *ActionProcessor) ProcessAction(ctx context.Context, caseID string, actionCode string, narrative string) (result ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] ActionProcessor panic for %s/%s: %v", caseID, actionCode, r)
			result = ActionResult{Success: false, Error: fmt.Sprintf("%v", r)}
		}
	}()

	log.Printf("ActionProcessor: processing %s for case %s", actionCode, caseID)

	// 1. Resolve the case record
	record, err := p.source.GetCase(caseID)
	if err != nil {
		return p.fail(caseID, actionCode, narrative, err.Error())
	}
	if record == nil {
		return p.fail(caseID, actionCode, narrative, "Case not found")
	}

	// 2. Resolve or lazily create the container; creation is idempotent
	container, err := p.store.FindContainer(ctx, record)
	if err != nil {
		return p.fail(caseID, actionCode, narrative, err.Error())
	}
	if container == nil {
		container, _, err = p.store.CreateContainer(ctx, record)
		if err != nil {
			return p.fail(caseID, actionCode, narrative, err.Error())
		}
	}

	// 3. Validate: state-machine preconditions, then the integrity gate
	validation := p.engine.ValidateAction(ctx, record, actionCode, container)
	if !validation.Valid {
		return p.fail(caseID, actionCode, narrative, validation.Reason)
	}

	now := p.now()
	updates := p.engine.MetadataUpdatesForAction(actionCode, now)

	gateResult := p.gate.ValidateStateChange(ctx, record, container, actionCode, updates)
	if !gateResult.Allowed {
		// Integrity denials may carry metadata self-corrections. The gate
		// never applies them; whether we do is a configuration choice.
		if len(gateResult.Corrections) > 0 && p.cfg.ApplyCorrections {
			if err := p.store.UpdateMetadata(ctx, container, gateResult.Corrections); err != nil {
				log.Printf("[WARNING] Failed to apply integrity corrections: %v", err)
			} else {
				log.Printf("ActionProcessor: applied integrity corrections for %s", record.BusinessName)
			}
		}
		res := p.fail(caseID, actionCode, narrative, gateResult.Reason)
		res.Corrections = gateResult.Corrections
		return res
	}

	// 4-6. Action-specific side effects
	message := "Action recorded"
	extra := map[string]any{}

	switch actionCode {
	case models.ActionL1, models.ActionL2, models.ActionL3, models.ActionMCA:
		if p.generator != nil && p.hasTemplate(actionCode) {
			// Pass the already-resolved container to avoid extra store lookups
			gen := p.generator.Generate(ctx, caseID, actionCode, container)
			if !gen.Success {
				return p.fail(caseID, actionCode, narrative, gen.Error)
			}
			narrative = narrative + " | Document: " + gen.PDFURL
			message = gen.Message
			extra["documentUrl"] = gen.PDFURL
			result.PDFURL = gen.PDFURL

			// Best effort: a failed notice never fails the recorded action
			if err := SendLetterNotice(p.cfg, record, actionCode, gen.PDFURL); err != nil {
				log.Printf("[WARNING] Letter notice for %s failed: %v", record.BusinessName, err)
			}
		}

	case models.ActionCLOSE:
		moved, err := p.archiver.Archive(ctx, container)
		if err != nil {
			return p.fail(caseID, actionCode, narrative, err.Error())
		}
		container = moved
		narrative = "File closed and archived | " + narrative

	case models.ActionBK:
		moved, err := p.archiver.MoveToBankruptcy(ctx, container)
		if err != nil {
			return p.fail(caseID, actionCode, narrative, err.Error())
		}
		container = moved
		narrative = "Bankruptcy filed - case stayed | " + narrative
	}

	// 7. Apply the metadata delta; lastModified always refreshes
	user := p.users.CurrentUser()
	updates["currentState.lastActionUser"] = user.Initials
	if err := p.store.UpdateMetadata(ctx, container, updates); err != nil {
		return p.fail(caseID, actionCode, narrative, err.Error())
	}

	// 8. Append the audit-trail entry
	entry := models.HistoryEntry{
		Timestamp:    now,
		Code:         actionCode,
		Narrative:    narrative,
		UserInitials: user.Initials,
	}
	if len(extra) > 0 {
		entry.Extra = extra
	}
	if err := p.store.AppendHistory(ctx, container, entry); err != nil {
		return p.fail(caseID, actionCode, narrative, err.Error())
	}

	RecordActionAudit(p.auditDB, &models.ActionAudit{
		CaseID:       caseID,
		BusinessName: record.BusinessName,
		Code:         actionCode,
		Narrative:    narrative,
		UserInitials: user.Initials,
		Success:      true,
		DocumentURL:  result.PDFURL,
	})

	log.Printf("ActionProcessor: %s completed for %s", actionCode, record.BusinessName)
	result.Success = true
	result.Message = message
	return result
}

// CaseStatus computes the current status for a case identifier.
func (p *ActionProcessor) CaseStatus(ctx context.Context, caseID string) (*models.Status, error) {
	record, err := p.source.GetCase(caseID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	container, err := p.store.FindContainer(ctx, record)
	if err != nil {
		return nil, err
	}
	status := p.engine.CalculateStatus(ctx, record, container)
	return &status, nil
}

func (p *ActionProcessor) hasTemplate(actionCode string) bool {
	_, ok := p.cfg.Templates[actionCode]
	return ok
}

// fail records the rejected action in the audit mirror and builds the result.
// Rejections never touch metadata or history.
func (p *ActionProcessor) fail(caseID string, actionCode string, narrative string, reason string) ActionResult {
	RecordActionAudit(p.auditDB, &models.ActionAudit{
		CaseID:    caseID,
		Code:      actionCode,
		Narrative: narrative,
		Success:   false,
		Error:     reason,
	})
	return ActionResult{Success: false, Error: reason}
}
