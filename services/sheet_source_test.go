package services

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

// writeTestSheet builds an xlsx workbook with the production column layout.
func writeTestSheet(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{
		"Account Number", "Flex Loan Number", "Business Name", "Owner Name", "Owner Rep Type",
		"Mailing Address", "Physical Address", "Phone 1", "Phone 2", "Email 1", "Email 2",
		"Social Media", "Outstanding Balance", "Merchant Balance", "Past Due Amount",
		"Delinquent Since", "Days Delinquent", "Opposing Counsel Name", "Opposing Counsel Phone",
		"Opposing Counsel Email", "Opposing Counsel Address", "Bankruptcy Flag", "Placement Date",
	}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("failed to write row %d: %v", i+2, err)
		}
	}

	path := filepath.Join(t.TempDir(), "cases.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

func testSheetRow(account, flexLoan, business string) []interface{} {
	return []interface{}{
		account, flexLoan, business, "Pat Smith", "Owner",
		"1 Main St", "2 Side St", "555-0100", "", "pat@example.com", "",
		"", "$15,250.75", "1,000.00", "500", "2026-05-01", "45",
		"", "", "", "", "N", "2026-06-14",
	}
}

func TestExcelCaseSourceListCases(t *testing.T) {
	path := writeTestSheet(t, [][]interface{}{
		testSheetRow("ACC-1001", "FLX-2002", "Acme Widgets LLC"),
		{"", "", "No Identifier Co"}, // skipped: no account or loan number
		testSheetRow("", "FLX-3003", "Beta Supply Co"),
	})
	source := NewExcelCaseSource(path, "Sheet1")

	cases, err := source.ListCases()
	assert.NoError(t, err)
	if assert.Len(t, cases, 2, "rows without an identifier are not cases") {
		first := cases[0]
		assert.Equal(t, 2, first.RowIndex)
		assert.Equal(t, "ACC-1001", first.AccountNumber)
		assert.Equal(t, "Acme Widgets LLC", first.BusinessName)
		assert.Equal(t, 15250.75, first.OutstandingBalance)
		assert.Equal(t, 1000.0, first.MerchantBalance)
		assert.Equal(t, 45, first.DaysDelinquent)
		assert.Equal(t, "N", first.BankruptcyFlag)
		if assert.NotNil(t, first.PlacementDate) {
			assert.Equal(t, "2026-06-14", first.PlacementDate.Format("2006-01-02"))
		}

		assert.Equal(t, 4, cases[1].RowIndex, "row index tracks the sheet, not the filtered list")
		assert.Equal(t, "FLX-3003", cases[1].FlexLoanNumber)
	}
}

func TestExcelCaseSourceGetCase(t *testing.T) {
	path := writeTestSheet(t, [][]interface{}{
		testSheetRow("ACC-1001", "FLX-2002", "Acme Widgets LLC"),
		testSheetRow("ACC-5005", "", "Beta Supply Co"),
	})
	source := NewExcelCaseSource(path, "Sheet1")

	t.Run("ByAccountNumber", func(t *testing.T) {
		record, err := source.GetCase("ACC-5005")
		assert.NoError(t, err)
		if assert.NotNil(t, record) {
			assert.Equal(t, "Beta Supply Co", record.BusinessName)
		}
	})

	t.Run("ByFlexLoanNumber", func(t *testing.T) {
		record, err := source.GetCase("FLX-2002")
		assert.NoError(t, err)
		if assert.NotNil(t, record) {
			assert.Equal(t, "ACC-1001", record.AccountNumber)
		}
	})

	t.Run("ByBusinessName", func(t *testing.T) {
		record, err := source.GetCase("Acme Widgets LLC")
		assert.NoError(t, err)
		assert.NotNil(t, record)
	})

	t.Run("NotFound", func(t *testing.T) {
		record, err := source.GetCase("ACC-9999")
		assert.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("EmptyIdentifier", func(t *testing.T) {
		_, err := source.GetCase("")
		assert.Error(t, err)
	})
}

func TestExcelCaseSourceEmptySheet(t *testing.T) {
	path := writeTestSheet(t, nil)
	source := NewExcelCaseSource(path, "Sheet1")

	cases, err := source.ListCases()
	assert.NoError(t, err)
	assert.Empty(t, cases)
}

func TestExcelCaseSourceMissingFile(t *testing.T) {
	source := NewExcelCaseSource(filepath.Join(t.TempDir(), "missing.xlsx"), "Sheet1")

	_, err := source.ListCases()
	assert.Error(t, err)
}

func TestParseHelpers(t *testing.T) {
	t.Run("Money", func(t *testing.T) {
		assert.Equal(t, 15250.75, parseMoney("$15,250.75"))
		assert.Equal(t, 500.0, parseMoney("500"))
		assert.Equal(t, 0.0, parseMoney(""))
		assert.Equal(t, 0.0, parseMoney("n/a"))
	})

	t.Run("Dates", func(t *testing.T) {
		assert.NotNil(t, parseDate("2026-05-01"))
		assert.NotNil(t, parseDate("05/01/2026"))
		assert.NotNil(t, parseDate("5/1/26"))
		assert.Nil(t, parseDate(""))
		assert.Nil(t, parseDate("not a date"))
	})

	t.Run("BankruptcyFlagDefaults", func(t *testing.T) {
		assert.Equal(t, "N", defaultFlag(""))
		assert.Equal(t, "Y", defaultFlag("y"))
		assert.Equal(t, "N", defaultFlag("n"))
	})
}
