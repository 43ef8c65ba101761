package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CurrentState is the dynamic workflow state of a case. Field names are the
// storage format of metadata.json and must not change.
type CurrentState struct {
	L1Sent         *time.Time `json:"l1_sent"`
	L2Sent         *time.Time `json:"l2_sent"`
	L3Sent         *time.Time `json:"l3_sent"`
	MTCOpen        bool       `json:"mtc_open"`
	MsgPendingAck  bool       `json:"msg_pending_ack"`
	LastActionCode *string    `json:"lastActionCode"`
	LastActionDate *time.Time `json:"lastActionDate"`
	LastActionUser *string    `json:"lastActionUser"`
}

// CaseMetadata is the per-case metadata document owned by the case container.
// It is created with all-null/false defaults on first touch and mutated only
// through the action processor (and integrity corrections).
type CaseMetadata struct {
	AccountNumber  string         `json:"accountNumber"`
	FlexLoanNumber string         `json:"flexLoanNumber"`
	BusinessName   string         `json:"businessName"`
	Created        time.Time      `json:"created"`
	LastModified   time.Time      `json:"lastModified"`
	CurrentState   CurrentState   `json:"currentState"`
	DocumentCount  map[string]int `json:"documentCount"`
}

// NewCaseMetadata returns the initial metadata document for a case.
func NewCaseMetadata(record *CaseRecord, now time.Time) *CaseMetadata {
	return &CaseMetadata{
		AccountNumber:  record.AccountNumber,
		FlexLoanNumber: record.FlexLoanNumber,
		BusinessName:   record.BusinessName,
		Created:        now,
		LastModified:   now,
		CurrentState:   CurrentState{},
		DocumentCount: map[string]int{
			"demands":        0,
			"correspondence": 0,
			"filings":        0,
			"settlements":    0,
		},
	}
}

// LetterSent returns the claimed send timestamp for a letter tier, or nil.
func (m *CaseMetadata) LetterSent(code string) *time.Time {
	if m == nil {
		return nil
	}
	switch code {
	case "L1":
		return m.CurrentState.L1Sent
	case "L2":
		return m.CurrentState.L2Sent
	case "L3":
		return m.CurrentState.L3Sent
	}
	return nil
}

// MetadataUpdates is a partial update keyed by dotted paths into the metadata
// document, e.g. "currentState.l1_sent". Values must be JSON-representable.
type MetadataUpdates map[string]any

// Apply merges the updates into the metadata document non-destructively:
// only listed fields change. The merge goes through the JSON representation
// so dotted paths address the storage field names, not Go field names.
func (u MetadataUpdates) Apply(metadata *CaseMetadata) error {
	if len(u) == 0 {
		return nil
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	for key, value := range u {
		setDottedPath(doc, key, value)
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal merged metadata: %w", err)
	}
	// Decode into a fresh value: unmarshalling null into an existing pointer
	// field would leave the old value in place, which breaks corrections that
	// null out a stale letter timestamp.
	var result CaseMetadata
	if err := json.Unmarshal(merged, &result); err != nil {
		return fmt.Errorf("failed to apply metadata updates: %w", err)
	}
	*metadata = result
	return nil
}

// setDottedPath writes value at a dotted path, creating intermediate objects.
func setDottedPath(doc map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	target := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := target[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[part] = next
		}
		target = next
	}
	target[parts[len(parts)-1]] = value
}
