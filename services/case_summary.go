package services

import (
	"context"
	"fmt"

	"collections_flow_go/models"
)

// CaseSummary is the one-screen view of a case: the sheet record, the
// computed status, current metadata, and what the operator may do next.
type CaseSummary struct {
	Record         *models.CaseRecord   `json:"record"`
	Status         models.Status        `json:"status"`
	Display        models.StatusDisplay `json:"display"`
	Metadata       *models.CaseMetadata `json:"metadata,omitempty"`
	AllowedActions []string             `json:"allowedActions"`
	LastEntry      *models.HistoryEntry `json:"lastEntry,omitempty"`
	HistoryCount   int                  `json:"historyCount"`
}

// GetCaseSummary assembles the summary for a case identifier. Returns nil
// when the case is not on the sheet. Cases without a container get a summary
// with nil metadata; the container appears on first action.
func (p *ActionProcessor) GetCaseSummary(ctx context.Context, caseID string) (*CaseSummary, error) {
	record, err := p.source.GetCase(caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if record == nil {
		return nil, nil
	}

	container, err := p.store.FindContainer(ctx, record)
	if err != nil {
		return nil, err
	}

	status := p.engine.CalculateStatus(ctx, record, container)
	summary := &CaseSummary{
		Record:         record,
		Status:         status,
		Display:        p.engine.FormatStatusForDisplay(status),
		AllowedActions: p.engine.GetAllowedActions(ctx, record, container),
	}

	if container != nil {
		summary.Metadata, err = p.store.GetMetadata(ctx, container)
		if err != nil {
			return nil, err
		}
		history, err := p.store.GetHistory(ctx, container)
		if err != nil {
			return nil, err
		}
		summary.HistoryCount = len(history)
		if len(history) > 0 {
			summary.LastEntry = &history[len(history)-1]
		}
	}
	return summary, nil
}
