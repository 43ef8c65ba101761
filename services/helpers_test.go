package services

import (
	"context"
	"testing"
	"time"

	"collections_flow_go/config"
	"collections_flow_go/models"
)

// testNow is the fixed clock all service tests run against.
var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Environment:      "test",
		ArchiveDir:       "_archive",
		BankruptcyDir:    "_bankruptcy",
		FolderNameMaxLen: 50,
		Subfolders:       []string{"demands", "correspondence", "filings", "settlements"},
		ApplyCorrections: true,
		Templates:        map[string]string{},
		OperatorEmail:    "jane.doe@example.com",
		SLA:              config.SLARules{L1Deadline: 2, L2Deadline: 10, L3Deadline: 10},
		Colors: config.StatusColors{
			MTC:    "#0000FF",
			MSG:    "#4285F4",
			Red:    "#cc0000",
			Yellow: "#f1c232",
			Green:  "#0d7813",
			Black:  "#000000",
		},
	}
}

// newTestStore builds a FolderStore over a throwaway local directory with a
// fixed clock.
func newTestStore(t *testing.T, cfg *config.Config) *FolderStore {
	t.Helper()
	store := NewFolderStore(NewLocalStorage(t.TempDir()), cfg)
	store.now = func() time.Time { return testNow }
	return store
}

func testCase() *models.CaseRecord {
	placed := testNow.AddDate(0, 0, -1)
	return &models.CaseRecord{
		RowIndex:           2,
		AccountNumber:      "ACC-1001",
		FlexLoanNumber:     "FLX-2002",
		BusinessName:       "Acme Widgets LLC",
		OwnerName:          "Pat Smith",
		Email1:             "pat@acme.example.com",
		OutstandingBalance: 15250.75,
		DaysDelinquent:     45,
		BankruptcyFlag:     "N",
		PlacementDate:      &placed,
	}
}

// placedDaysAgo returns a copy of the base test case placed N days before the
// fixed clock.
func placedDaysAgo(days int) *models.CaseRecord {
	record := testCase()
	placed := testNow.AddDate(0, 0, -days)
	record.PlacementDate = &placed
	return record
}

// stubSource serves fixed case records.
type stubSource struct {
	cases []models.CaseRecord
}

func (s *stubSource) ListCases() ([]models.CaseRecord, error) {
	return s.cases, nil
}

func (s *stubSource) GetCase(identifier string) (*models.CaseRecord, error) {
	for i := range s.cases {
		if s.cases[i].Matches(identifier) {
			return &s.cases[i], nil
		}
	}
	return nil, nil
}

// saveTestDocument stores a document artifact directly, bypassing generation.
func saveTestDocument(t *testing.T, store *FolderStore, record *models.CaseRecord, documentType string) DocCheck {
	t.Helper()
	name := documentType + "_Acme_Widgets_LLC_2026-06-15.pdf"
	check, err := store.SaveDocument(context.Background(), record, documentType, name, "application/pdf", []byte("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("failed to save test document %s: %v", documentType, err)
	}
	return check
}
