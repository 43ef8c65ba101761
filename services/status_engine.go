package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"collections_flow_go/config"
	"collections_flow_go/models"
)

// StatusStore is the slice of the case store the status engine reads from.
type StatusStore interface {
	GetMetadata(ctx context.Context, container *ContainerRef) (*models.CaseMetadata, error)
	DocumentExists(ctx context.Context, record *models.CaseRecord, documentType string, container *ContainerRef) (DocCheck, error)
}

// ValidationCheck is the outcome of an action-precondition check.
type ValidationCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// StatusEngine derives the display status of a case from its record, its
// metadata, and the documents actually present in the store. It is pure with
// respect to the store: it reads, never writes.
type StatusEngine struct {
	store     StatusStore
	sla       config.SLARules
	colors    config.StatusColors
	templates map[string]string
	now       func() time.Time
}

// NewStatusEngine builds a status engine with injected rules. The clock is
// injectable so deadline arithmetic is testable.
func NewStatusEngine(store StatusStore, cfg *config.Config) *StatusEngine {
	return &StatusEngine{
		store:     store,
		sla:       cfg.SLA,
		colors:    cfg.Colors,
		templates: cfg.Templates,
		now:       time.Now,
	}
}

// CalculateStatus computes the traffic-light status of a case.
// Priority: message flags > metadata/document integrity > SLA deadlines.
// Status computation must never fail the caller: any internal panic is
// downgraded to an ERROR status.
func (e *StatusEngine) CalculateStatus(ctx context.Context, record *models.CaseRecord, container *ContainerRef) (status models.Status) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARNING] Status computation failed for %s: %v", record.Identifier(), r)
			status = models.Status{
				Color:      e.colors.Black,
				StatusText: "Status Unknown",
				StatusCode: models.StatusError,
				Priority:   models.PriorityNeutral,
			}
		}
	}()

	var metadata *models.CaseMetadata
	if container != nil {
		loaded, err := e.store.GetMetadata(ctx, container)
		if err != nil {
			log.Printf("[WARNING] Failed to read metadata for %s: %v", record.Identifier(), err)
			return models.Status{
				Color:      e.colors.Black,
				StatusText: "Status Unknown",
				StatusCode: models.StatusError,
				Priority:   models.PriorityNeutral,
			}
		}
		metadata = loaded
	}

	// Priority 1: message flags override everything else
	if metadata != nil && metadata.CurrentState.MTCOpen {
		return models.Status{
			Color:      e.colors.MTC,
			StatusText: "MTC Open - Awaiting Client Response",
			StatusCode: models.StatusMTCOpen,
			Priority:   models.PriorityMessage,
		}
	}
	if metadata != nil && metadata.CurrentState.MsgPendingAck {
		return models.Status{
			Color:      e.colors.MSG,
			StatusText: "Client Response - Needs Acknowledgment",
			StatusCode: models.StatusMsgPending,
			Priority:   models.PriorityMessage,
		}
	}

	return e.calculateSLAStatus(ctx, record, metadata, container)
}

// calculateSLAStatus walks the letter tiers against their deadlines.
func (e *StatusEngine) calculateSLAStatus(ctx context.Context, record *models.CaseRecord, metadata *models.CaseMetadata, container *ContainerRef) models.Status {
	if record.PlacementDate == nil {
		return models.Status{
			Color:      e.colors.Black,
			StatusText: "No Placement Date",
			StatusCode: models.StatusNoPlacement,
			Priority:   models.PriorityNeutral,
		}
	}

	today := startOfDay(e.now())
	daysSincePlacement := daysBetween(startOfDay(*record.PlacementDate), today)

	// A claimed send date is only trusted when the document artifact exists.
	l1Date := e.trustedSentDate(ctx, record, models.ActionL1, metadata, container)
	l2Date := e.trustedSentDate(ctx, record, models.ActionL2, metadata, container)
	l3Date := e.trustedSentDate(ctx, record, models.ActionL3, metadata, container)

	// Metadata/document mismatches outrank SLA computation; the first
	// mismatch in tier order short-circuits the rest.
	for _, tier := range []struct {
		code    string
		trusted *time.Time
		status  string
		text    string
	}{
		{models.ActionL1, l1Date, models.StatusL1Invalid, "L1 Metadata Invalid - PDF Missing"},
		{models.ActionL2, l2Date, models.StatusL2Invalid, "L2 Metadata Invalid - PDF Missing"},
		{models.ActionL3, l3Date, models.StatusL3Invalid, "L3 Metadata Invalid - PDF Missing"},
	} {
		if metadata.LetterSent(tier.code) != nil && tier.trusted == nil {
			return models.Status{
				Color:      e.colors.Red,
				StatusText: tier.text,
				StatusCode: tier.status,
				Priority:   models.PriorityMessage,
			}
		}
	}

	if l1Date == nil {
		return e.tierStatus("L1", daysSincePlacement, e.sla.L1Deadline)
	}
	if l2Date == nil {
		return e.tierStatus("L2", daysBetween(startOfDay(*l1Date), today), e.sla.L2Deadline)
	}
	if l3Date == nil {
		return e.tierStatus("L3", daysBetween(startOfDay(*l2Date), today), e.sla.L3Deadline)
	}

	// All letters sent
	return models.Status{
		Color:      e.colors.Black,
		StatusText: "All Letters Sent - Complete",
		StatusCode: models.StatusComplete,
		Priority:   models.PriorityNeutral,
	}
}

// tierStatus compares elapsed days against a tier deadline.
func (e *StatusEngine) tierStatus(tier string, elapsed int, deadline int) models.Status {
	switch {
	case elapsed > deadline:
		overdue := elapsed - deadline
		return models.Status{
			Color:       e.colors.Red,
			StatusText:  fmt.Sprintf("%s Overdue by %d days", tier, overdue),
			StatusCode:  tier + "_OVERDUE",
			Priority:    models.PrioritySLA,
			DaysOverdue: &overdue,
		}
	case elapsed == deadline:
		return models.Status{
			Color:      e.colors.Yellow,
			StatusText: tier + " Due Today",
			StatusCode: tier + "_DUE",
			Priority:   models.PrioritySLA,
		}
	default:
		untilDue := deadline - elapsed
		plural := "s"
		if untilDue == 1 {
			plural = ""
		}
		return models.Status{
			Color:        e.colors.Green,
			StatusText:   fmt.Sprintf("%s Due in %d day%s", tier, untilDue, plural),
			StatusCode:   tier + "_PENDING",
			Priority:     models.PrioritySLA,
			DaysUntilDue: &untilDue,
		}
	}
}

// trustedSentDate is the single point of metadata/document trust: a letter's
// claimed send timestamp counts only if the corresponding document artifact
// exists in the store. Both the status path and the validation path go
// through here so the two can never drift.
func (e *StatusEngine) trustedSentDate(ctx context.Context, record *models.CaseRecord, code string, metadata *models.CaseMetadata, container *ContainerRef) *time.Time {
	claimed := metadata.LetterSent(code)
	if claimed == nil || container == nil {
		return nil
	}
	check, err := e.store.DocumentExists(ctx, record, code, container)
	if err != nil {
		log.Printf("[WARNING] Document check for %s/%s failed: %v", record.Identifier(), code, err)
		return nil
	}
	if !check.Exists {
		return nil
	}
	return claimed
}

// ValidateAction checks whether an action may be taken on a case right now.
// All failures are returned as data; a panic inside the checks is downgraded
// to an invalid result.
func (e *StatusEngine) ValidateAction(ctx context.Context, record *models.CaseRecord, actionCode string, container *ContainerRef) (check ValidationCheck) {
	defer func() {
		if r := recover(); r != nil {
			check = ValidationCheck{Valid: false, Reason: fmt.Sprintf("Validation error: %v", r)}
		}
	}()

	var metadata *models.CaseMetadata
	if container != nil {
		loaded, err := e.store.GetMetadata(ctx, container)
		if err != nil {
			return ValidationCheck{Valid: false, Reason: fmt.Sprintf("Validation error: %v", err)}
		}
		metadata = loaded
	}

	// Bankruptcy gate: demand letters and exemplar filings are frozen
	if record.IsBankrupt() && models.IsBankruptcyRestricted(actionCode) {
		return ValidationCheck{
			Valid:  false,
			Reason: "Cannot send demands or file exemplar - bankruptcy flag is set",
		}
	}

	// Document requirement. When a generation template is configured the act
	// of processing will create the document, so the upload check is skipped.
	if models.IsDocRequired(actionCode) {
		if _, hasTemplate := e.templates[actionCode]; !hasTemplate {
			docCheck, err := e.store.DocumentExists(ctx, record, actionCode, container)
			if err != nil {
				return ValidationCheck{Valid: false, Reason: fmt.Sprintf("Validation error: %v", err)}
			}
			if !docCheck.Exists {
				return ValidationCheck{
					Valid:  false,
					Reason: fmt.Sprintf("%s requires document to be uploaded first", actionCode),
				}
			}
		}
	}

	// Message sequence gates
	if actionCode == models.ActionMSG {
		if metadata == nil || !metadata.CurrentState.MTCOpen {
			return ValidationCheck{Valid: false, Reason: "MSG requires an open MTC (Message to Client)"}
		}
	}
	if actionCode == models.ActionACK {
		if metadata == nil || !metadata.CurrentState.MsgPendingAck {
			return ValidationCheck{Valid: false, Reason: "ACK requires a pending MSG (Client Response)"}
		}
	}
	if actionCode == models.ActionMTC {
		if metadata != nil && (metadata.CurrentState.MTCOpen || metadata.CurrentState.MsgPendingAck) {
			return ValidationCheck{Valid: false, Reason: "MTC requires the message cycle to be closed"}
		}
	}

	// Letter sequence gates
	if actionCode == models.ActionL2 {
		if metadata == nil || metadata.CurrentState.L1Sent == nil {
			return ValidationCheck{Valid: false, Reason: "L2 requires L1 to be sent first"}
		}
	}
	if actionCode == models.ActionL3 {
		if metadata == nil || metadata.CurrentState.L2Sent == nil {
			return ValidationCheck{Valid: false, Reason: "L3 requires L2 to be sent first"}
		}
	}

	return ValidationCheck{Valid: true, Reason: "Action allowed"}
}

// GetAllowedActions lists the actions valid for the case's current state.
func (e *StatusEngine) GetAllowedActions(ctx context.Context, record *models.CaseRecord, container *ContainerRef) []string {
	allowed := append([]string{}, models.InformationalActions...)

	var metadata *models.CaseMetadata
	if container != nil {
		metadata, _ = e.store.GetMetadata(ctx, container)
	}

	if !record.IsBankrupt() {
		// Next unmet letter tier
		switch {
		case metadata == nil || metadata.CurrentState.L1Sent == nil:
			allowed = append(allowed, models.ActionL1)
		case metadata.CurrentState.L2Sent == nil:
			allowed = append(allowed, models.ActionL2)
		case metadata.CurrentState.L3Sent == nil:
			allowed = append(allowed, models.ActionL3)
		}
		allowed = append(allowed, models.ActionEX, models.ActionSA, models.ActionSAE)
	}

	// Message cycle
	mtcOpen := metadata != nil && metadata.CurrentState.MTCOpen
	msgPending := metadata != nil && metadata.CurrentState.MsgPendingAck
	if !mtcOpen && !msgPending {
		allowed = append(allowed, models.ActionMTC)
	}
	if mtcOpen {
		allowed = append(allowed, models.ActionMSG)
	}
	if msgPending {
		allowed = append(allowed, models.ActionACK)
	}

	return allowed
}

// MetadataUpdatesForAction returns the metadata delta an accepted action
// applies. The MTC/MSG/ACK deltas keep mtc_open and msg_pending_ack mutually
// exclusive in every reachable state.
func (e *StatusEngine) MetadataUpdatesForAction(actionCode string, now time.Time) models.MetadataUpdates {
	updates := models.MetadataUpdates{
		"currentState.lastActionCode": actionCode,
		"currentState.lastActionDate": now,
	}

	switch actionCode {
	case models.ActionL1:
		updates["currentState.l1_sent"] = now
	case models.ActionL2:
		updates["currentState.l2_sent"] = now
	case models.ActionL3:
		updates["currentState.l3_sent"] = now
	case models.ActionMTC:
		updates["currentState.mtc_open"] = true
		updates["currentState.msg_pending_ack"] = false
	case models.ActionMSG:
		updates["currentState.mtc_open"] = false
		updates["currentState.msg_pending_ack"] = true
	case models.ActionACK:
		updates["currentState.mtc_open"] = false
		updates["currentState.msg_pending_ack"] = false
	}

	return updates
}

// VerifySLA sanity-checks the SLA inputs for a case: configured deadlines
// must be positive and a placement date may not sit in the future.
func (e *StatusEngine) VerifySLA(record *models.CaseRecord) bool {
	if e.sla.L1Deadline <= 0 || e.sla.L2Deadline <= 0 || e.sla.L3Deadline <= 0 {
		return false
	}
	if record.PlacementDate != nil && startOfDay(*record.PlacementDate).After(startOfDay(e.now())) {
		return false
	}
	return true
}

// FormatStatusForDisplay projects a status for the UI.
func (e *StatusEngine) FormatStatusForDisplay(status models.Status) models.StatusDisplay {
	display := models.StatusDisplay{
		Color:     status.Color,
		Text:      status.StatusText,
		IsOverdue: status.Color == e.colors.Red,
		IsWarning: status.Color == e.colors.Yellow,
		IsMessage: status.Priority == models.PriorityMessage,
	}
	if status.DaysOverdue != nil {
		display.DaysInfo = status.DaysOverdue
	} else if status.DaysUntilDue != nil {
		display.DaysInfo = status.DaysUntilDue
	}
	return display
}

// startOfDay normalizes a timestamp to midnight for calendar-day arithmetic.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween is the whole number of calendar days from one date to another.
// Both ends are normalized to UTC midnights so a DST-shortened day still
// counts as a full day.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
