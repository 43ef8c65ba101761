package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"collections_flow_go/models"

	"github.com/xuri/excelize/v2"
)

// CaseSource supplies read-only case records. The spreadsheet is the upstream
// source of truth; this system never writes to it.
type CaseSource interface {
	ListCases() ([]models.CaseRecord, error)
	GetCase(identifier string) (*models.CaseRecord, error)
}

// Spreadsheet column layout (0-based).
const (
	colAccountNumber = iota
	colFlexLoanNumber
	colBusinessName
	colOwnerName
	colOwnerRepType
	colMailingAddress
	colPhysicalAddress
	colPhone1
	colPhone2
	colEmail1
	colEmail2
	colSocialMedia
	colOutstandingBalance
	colMerchantBalance
	colPastDueAmount
	colDelinquentSince
	colDaysDelinquent
	colOpposingCounselName
	colOpposingCounselPhone
	colOpposingCounselEmail
	colOpposingCounselAddress
	colBankruptcyFlag
	colPlacementDate
)

// ExcelCaseSource reads case records from an xlsx workbook.
type ExcelCaseSource struct {
	path  string
	sheet string
}

// NewExcelCaseSource creates a case source over the given workbook and tab.
func NewExcelCaseSource(path string, sheet string) *ExcelCaseSource {
	return &ExcelCaseSource{path: path, sheet: sheet}
}

// ListCases returns all valid case rows in sheet order. Rows with neither an
// account number nor a flex loan number are not valid cases and are skipped.
func (s *ExcelCaseSource) ListCases() ([]models.CaseRecord, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", s.sheet, err)
	}
	if len(rows) <= 1 {
		log.Printf("[WARNING] Sheet %q has no data rows (only header)", s.sheet)
		return nil, nil
	}

	var cases []models.CaseRecord
	for i, row := range rows[1:] {
		record := parseCaseRow(row, i+2) // 1-based sheet row, accounting for header
		if !record.HasIdentifier() {
			continue
		}
		cases = append(cases, record)
	}
	return cases, nil
}

// GetCase resolves a single case by account number, flex loan number, or
// business name, in that precedence. Returns nil when no row matches.
func (s *ExcelCaseSource) GetCase(identifier string) (*models.CaseRecord, error) {
	if identifier == "" {
		return nil, fmt.Errorf("identifier is required")
	}
	cases, err := s.ListCases()
	if err != nil {
		return nil, err
	}
	for i := range cases {
		if cases[i].Matches(identifier) {
			return &cases[i], nil
		}
	}
	return nil, nil
}

func parseCaseRow(row []string, rowIndex int) models.CaseRecord {
	return models.CaseRecord{
		RowIndex:               rowIndex,
		AccountNumber:          cell(row, colAccountNumber),
		FlexLoanNumber:         cell(row, colFlexLoanNumber),
		BusinessName:           cell(row, colBusinessName),
		OwnerName:              cell(row, colOwnerName),
		OwnerRepType:           cell(row, colOwnerRepType),
		MailingAddress:         cell(row, colMailingAddress),
		PhysicalAddress:        cell(row, colPhysicalAddress),
		Phone1:                 cell(row, colPhone1),
		Phone2:                 cell(row, colPhone2),
		Email1:                 cell(row, colEmail1),
		Email2:                 cell(row, colEmail2),
		SocialMedia:            cell(row, colSocialMedia),
		OutstandingBalance:     parseMoney(cell(row, colOutstandingBalance)),
		MerchantBalance:        parseMoney(cell(row, colMerchantBalance)),
		PastDueAmount:          parseMoney(cell(row, colPastDueAmount)),
		DelinquentSince:        parseDate(cell(row, colDelinquentSince)),
		DaysDelinquent:         parseInt(cell(row, colDaysDelinquent)),
		OpposingCounselName:    cell(row, colOpposingCounselName),
		OpposingCounselPhone:   cell(row, colOpposingCounselPhone),
		OpposingCounselEmail:   cell(row, colOpposingCounselEmail),
		OpposingCounselAddress: cell(row, colOpposingCounselAddress),
		BankruptcyFlag:         defaultFlag(cell(row, colBankruptcyFlag)),
		PlacementDate:          parseDate(cell(row, colPlacementDate)),
	}
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func defaultFlag(value string) string {
	if value == "" {
		return "N"
	}
	return strings.ToUpper(value)
}

func parseMoney(value string) float64 {
	if value == "" {
		return 0
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func parseInt(value string) int {
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return parsed
}

// dateLayouts covers the formats excelize renders for date cells plus the
// ISO forms used when the sheet is exported programmatically.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}
