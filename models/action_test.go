package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("invalid test date %s: %v", value, err)
	}
	return parsed
}

func TestBucketForDocumentType(t *testing.T) {
	tests := []struct {
		documentType string
		expected     string
	}{
		{ActionL1, BucketDemands},
		{ActionL2, BucketDemands},
		{ActionL3, BucketDemands},
		{ActionEX, BucketFilings},
		{ActionSA, BucketFilings},
		{ActionSAE, BucketFilings},
		{ActionMTC, BucketCorrespondence},
		{ActionMSG, BucketCorrespondence},
		{"SOMETHING_ELSE", BucketSettlements},
		{"", BucketSettlements},
	}

	for _, tt := range tests {
		t.Run(tt.documentType, func(t *testing.T) {
			assert.Equal(t, tt.expected, BucketForDocumentType(tt.documentType))
		})
	}
}

func TestActionPredicates(t *testing.T) {
	assert.True(t, IsDocRequired(ActionL1))
	assert.True(t, IsDocRequired(ActionL3))
	assert.False(t, IsDocRequired(ActionNOTE))
	assert.False(t, IsDocRequired(ActionMTC))

	assert.True(t, IsBankruptcyRestricted(ActionL1))
	assert.True(t, IsBankruptcyRestricted(ActionEX))
	assert.False(t, IsBankruptcyRestricted(ActionNOTE))
	assert.False(t, IsBankruptcyRestricted(ActionCLOSE))
}

func TestIsValidActionCode(t *testing.T) {
	for _, code := range []string{"L1", "L2", "L3", "MTC", "MSG", "ACK", "BK", "CLOSE", "NOTE", "MCA", "EX", "SA", "SAE", "PC", "VM", "PTP"} {
		assert.True(t, IsValidActionCode(code), "code %s should be valid", code)
	}
	assert.False(t, IsValidActionCode("XYZ"))
	assert.False(t, IsValidActionCode(""))
	assert.False(t, IsValidActionCode("l1"), "codes are case-sensitive")
}

func TestIsFreeformActionCode(t *testing.T) {
	for _, code := range []string{"TXT", "XYZ", "FAX2", "A"} {
		assert.True(t, IsFreeformActionCode(code), "code %s should pass as freeform", code)
	}
	for _, code := range []string{"", "txt", "B@D", "1ST", "TOOLONGACODEIS"} {
		assert.False(t, IsFreeformActionCode(code), "code %q should be rejected", code)
	}
}

func TestCaseFiltersMatch(t *testing.T) {
	placed := mustDate(t, "2026-01-05")
	record := &CaseRecord{
		AccountNumber:      "ACC-1",
		BusinessName:       "Acme",
		OutstandingBalance: 5000,
		DaysDelinquent:     45,
		BankruptcyFlag:     "N",
		PlacementDate:      &placed,
	}

	assert.True(t, CaseFilters{}.Match(record))
	assert.True(t, CaseFilters{HasPlacementDate: true, NoBankruptcy: true, MinBalance: 5000, MinDaysDelinquent: 45}.Match(record))
	assert.False(t, CaseFilters{MinBalance: 5001}.Match(record))
	assert.False(t, CaseFilters{MinDaysDelinquent: 46}.Match(record))

	record.BankruptcyFlag = BankruptcyFlagSet
	assert.False(t, CaseFilters{NoBankruptcy: true}.Match(record))

	record.PlacementDate = nil
	assert.False(t, CaseFilters{HasPlacementDate: true}.Match(record))
}
