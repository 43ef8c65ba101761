package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// HistoryEntry is one record in a case's append-only history log. The fixed
// fields are always present; Extra carries action-specific additions such as
// a generated document URL. The flattened JSON shape is the storage format.
type HistoryEntry struct {
	Timestamp    time.Time
	Code         string
	Narrative    string
	UserInitials string
	Extra        map[string]any
}

// historyEntryJSON is the fixed part of the wire shape.
type historyEntryJSON struct {
	Timestamp    time.Time `json:"timestamp"`
	Code         string    `json:"code"`
	Narrative    string    `json:"narrative"`
	UserInitials string    `json:"userInitials"`
}

// MarshalJSON flattens Extra alongside the fixed fields.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	doc := map[string]any{
		"timestamp":    e.Timestamp,
		"code":         e.Code,
		"narrative":    e.Narrative,
		"userInitials": e.UserInitials,
	}
	for key, value := range e.Extra {
		// Fixed fields win over extension fields of the same name.
		if _, reserved := doc[key]; !reserved {
			doc[key] = value
		}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON splits fixed fields from extension fields.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var fixed historyEntryJSON
	if err := json.Unmarshal(data, &fixed); err != nil {
		return fmt.Errorf("failed to decode history entry: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode history entry fields: %w", err)
	}
	delete(doc, "timestamp")
	delete(doc, "code")
	delete(doc, "narrative")
	delete(doc, "userInitials")

	e.Timestamp = fixed.Timestamp
	e.Code = fixed.Code
	e.Narrative = fixed.Narrative
	e.UserInitials = fixed.UserInitials
	if len(doc) > 0 {
		e.Extra = doc
	} else {
		e.Extra = nil
	}
	return nil
}

// DocumentURL returns the documentUrl extension field if present.
func (e *HistoryEntry) DocumentURL() string {
	if url, ok := e.Extra["documentUrl"].(string); ok {
		return url
	}
	return ""
}
