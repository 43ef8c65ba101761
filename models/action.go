package models

// Action codes form the transition alphabet of the case workflow.
const (
	ActionL1    = "L1"    // first demand letter
	ActionL2    = "L2"    // second demand letter
	ActionL3    = "L3"    // final demand letter
	ActionMTC   = "MTC"   // message to client opened
	ActionMSG   = "MSG"   // client response received, pending acknowledgment
	ActionACK   = "ACK"   // acknowledgment closes the message cycle
	ActionBK    = "BK"    // bankruptcy filed, case stayed
	ActionCLOSE = "CLOSE" // case closed and archived
	ActionNOTE  = "NOTE"  // freeform note
	ActionMCA   = "MCA"   // merchant cash advance demand (alternate document)
	ActionEX    = "EX"    // exemplar filing
	ActionSA    = "SA"    // settlement agreement
	ActionSAE   = "SAE"   // settlement agreement executed
)

// ActionCodes are the recognized workflow actions.
var ActionCodes = []string{
	ActionL1, ActionL2, ActionL3,
	ActionMTC, ActionMSG, ActionACK,
	ActionBK, ActionCLOSE, ActionNOTE,
}

// InformationalActions are always-allowed freeform codes recorded to history
// without preconditions or state changes.
var InformationalActions = []string{
	ActionNOTE, "HIS", "PC", "VM", "EM", "EMR", "PTP", "PAY",
}

// DocRequiredActions must have a document artifact, either generated from a
// template or uploaded manually before the action is recorded.
var DocRequiredActions = []string{ActionL1, ActionL2, ActionL3}

// BankruptcyRestrictedActions are denied outright while the bankruptcy flag is set.
var BankruptcyRestrictedActions = []string{ActionL1, ActionL2, ActionL3, ActionEX}

// Document buckets within a case container.
const (
	BucketDemands        = "demands"
	BucketCorrespondence = "correspondence"
	BucketFilings        = "filings"
	BucketSettlements    = "settlements"
)

// BucketForDocumentType routes a document type to its container subfolder.
// Unrecognized types land in settlements.
func BucketForDocumentType(documentType string) string {
	switch documentType {
	case ActionL1, ActionL2, ActionL3:
		return BucketDemands
	case ActionEX, ActionSA, ActionSAE:
		return BucketFilings
	case ActionMTC, ActionMSG:
		return BucketCorrespondence
	default:
		return BucketSettlements
	}
}

// IsDocRequired reports whether the action needs a document artifact.
func IsDocRequired(code string) bool {
	return containsCode(DocRequiredActions, code)
}

// IsBankruptcyRestricted reports whether the action is blocked for bankrupt cases.
func IsBankruptcyRestricted(code string) bool {
	return containsCode(BankruptcyRestrictedActions, code)
}

// IsValidActionCode reports whether the code is a recognized workflow or
// informational action.
func IsValidActionCode(code string) bool {
	return containsCode(ActionCodes, code) ||
		containsCode(InformationalActions, code) ||
		code == ActionMCA || code == ActionEX || code == ActionSA || code == ActionSAE
}

// IsFreeformActionCode reports whether a code outside the recognized lists is
// still acceptable as a freeform informational entry: a short uppercase tag
// starting with a letter. Freeform codes carry no preconditions and record to
// history without state changes.
func IsFreeformActionCode(code string) bool {
	if len(code) == 0 || len(code) > 12 {
		return false
	}
	for i, r := range code {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
