package models

// Status codes produced by the status engine.
const (
	StatusMTCOpen     = "MTC_OPEN"
	StatusMsgPending  = "MSG_PENDING"
	StatusL1Invalid   = "L1_INVALID"
	StatusL2Invalid   = "L2_INVALID"
	StatusL3Invalid   = "L3_INVALID"
	StatusL1Overdue   = "L1_OVERDUE"
	StatusL1Due       = "L1_DUE"
	StatusL1Pending   = "L1_PENDING"
	StatusL2Overdue   = "L2_OVERDUE"
	StatusL2Due       = "L2_DUE"
	StatusL2Pending   = "L2_PENDING"
	StatusL3Overdue   = "L3_OVERDUE"
	StatusL3Due       = "L3_DUE"
	StatusL3Pending   = "L3_PENDING"
	StatusNoPlacement = "NO_PLACEMENT"
	StatusComplete    = "COMPLETE"
	StatusUnknown     = "UNKNOWN"
	StatusError       = "ERROR"
)

// Status priorities: message flags and integrity violations outrank SLA
// states, which outrank terminal/neutral states.
const (
	PriorityMessage = 1
	PrioritySLA     = 2
	PriorityNeutral = 3
)

// Status is the derived traffic-light state of a case. It has no stored
// identity and is recomputed on every read.
type Status struct {
	Color        string `json:"color"`
	StatusText   string `json:"statusText"`
	StatusCode   string `json:"statusCode"`
	Priority     int    `json:"priority"`
	DaysOverdue  *int   `json:"daysOverdue,omitempty"`
	DaysUntilDue *int   `json:"daysUntilDue,omitempty"`
}

// StatusDisplay is the UI-facing projection of a Status.
type StatusDisplay struct {
	Color     string `json:"color"`
	Text      string `json:"text"`
	IsOverdue bool   `json:"isOverdue"`
	IsWarning bool   `json:"isWarning"`
	IsMessage bool   `json:"isMessage"`
	DaysInfo  *int   `json:"daysInfo,omitempty"`
}
