package services

import (
	"context"
	"fmt"
	"log"

	"collections_flow_go/models"
)

// ValidationResult is the gate's decision on a proposed state change.
// Corrections carries metadata self-heals the caller may apply; the gate
// itself never mutates anything.
type ValidationResult struct {
	Allowed     bool                   `json:"allowed"`
	Reason      string                 `json:"reason,omitempty"`
	Recovery    string                 `json:"recovery,omitempty"`
	Corrections models.MetadataUpdates `json:"corrections"`
}

// IntegrityGate validates proposed state transitions against the documents
// actually present in the store and against SLA consistency. It exists to
// catch the one invariant metadata cannot enforce alone: a claimed letter
// send is only real if the document artifact exists.
type IntegrityGate struct {
	store  CaseStore
	engine *StatusEngine
}

// NewIntegrityGate builds the gate over the store and the status engine's
// SLA verification.
func NewIntegrityGate(store CaseStore, engine *StatusEngine) *IntegrityGate {
	return &IntegrityGate{store: store, engine: engine}
}

// ValidateStateChange evaluates the transition rules in order; the first
// failure wins. A pure decision function: callers apply Corrections
// explicitly if they choose to.
func (g *IntegrityGate) ValidateStateChange(ctx context.Context, record *models.CaseRecord, container *ContainerRef, actionCode string, proposedUpdates models.MetadataUpdates) ValidationResult {
	// L1 is always allowed - no prerequisites required
	if actionCode == models.ActionL1 {
		return ValidationResult{Allowed: true, Corrections: models.MetadataUpdates{}}
	}

	if actionCode == models.ActionL2 {
		l1, err := g.store.DocumentExists(ctx, record, models.ActionL1, container)
		if err != nil || !l1.Exists {
			if err != nil {
				log.Printf("[WARNING] L1 document check failed: %v", err)
			}
			return ValidationResult{
				Allowed:  false,
				Reason:   "L1 document must exist before L2",
				Recovery: "Generate L1 first",
			}
		}
	}
	if actionCode == models.ActionL3 {
		l2, err := g.store.DocumentExists(ctx, record, models.ActionL2, container)
		if err != nil || !l2.Exists {
			if err != nil {
				log.Printf("[WARNING] L2 document check failed: %v", err)
			}
			return ValidationResult{
				Allowed:  false,
				Reason:   "L2 document must exist before L3",
				Recovery: "Generate L2 first",
			}
		}
	}

	// Metadata/document consistency: a claimed L1 send with no L1 document is
	// a stale state. Deny and propose nulling the field; the caller decides
	// whether the self-heal is applied.
	metadata, err := g.store.GetMetadata(ctx, container)
	if err != nil {
		return ValidationResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Failed to read case metadata: %v", err),
		}
	}
	if metadata != nil && metadata.CurrentState.L1Sent != nil {
		l1, err := g.store.DocumentExists(ctx, record, models.ActionL1, container)
		if err != nil || !l1.Exists {
			return ValidationResult{
				Allowed:  false,
				Reason:   "Metadata claims L1 sent but document missing",
				Recovery: "Metadata will be corrected",
				Corrections: models.MetadataUpdates{
					"currentState.l1_sent": nil,
				},
			}
		}
	}

	if !g.engine.VerifySLA(record) {
		return ValidationResult{
			Allowed:  false,
			Reason:   "SLA verification failed",
			Recovery: "Review case SLA inputs",
		}
	}

	return ValidationResult{Allowed: true, Corrections: models.MetadataUpdates{}}
}
