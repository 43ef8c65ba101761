package models

import "time"

// BankruptcyFlagSet is the spreadsheet value marking a case as in bankruptcy.
const BankruptcyFlagSet = "Y"

// CaseRecord is one debtor case row from the placement spreadsheet. The
// spreadsheet is the upstream source of truth for these fields and is
// read-only to this system; all dynamic state lives in the case container.
type CaseRecord struct {
	RowIndex int `json:"rowIndex"` // 1-based sheet row, accounting for header

	// Case identifiers (at least one required)
	AccountNumber  string `json:"accountNumber"`
	FlexLoanNumber string `json:"flexLoanNumber"`

	// Business/owner information
	BusinessName string `json:"businessName"`
	OwnerName    string `json:"ownerName"`
	OwnerRepType string `json:"ownerRepType"`

	// Addresses
	MailingAddress  string `json:"mailingAddress"`
	PhysicalAddress string `json:"physicalAddress"`

	// Contact information
	Phone1      string `json:"phone1"`
	Phone2      string `json:"phone2"`
	Email1      string `json:"email1"`
	Email2      string `json:"email2"`
	SocialMedia string `json:"socialMedia"`

	// Financial information
	OutstandingBalance float64 `json:"outstandingBalance"`
	MerchantBalance    float64 `json:"merchantBalance"`
	PastDueAmount      float64 `json:"pastDueAmount"`

	// Delinquency information
	DelinquentSince *time.Time `json:"delinquentSince"`
	DaysDelinquent  int        `json:"daysDelinquent"`

	// Opposing counsel
	OpposingCounselName    string `json:"opposingCounselName"`
	OpposingCounselPhone   string `json:"opposingCounselPhone"`
	OpposingCounselEmail   string `json:"opposingCounselEmail"`
	OpposingCounselAddress string `json:"opposingCounselAddress"`

	// Flags and dates
	BankruptcyFlag string     `json:"bankruptcyFlag"`
	PlacementDate  *time.Time `json:"placementDate"`
}

// HasIdentifier reports whether the row carries at least one case identifier.
// Rows without one are not valid cases and are excluded by the sheet source.
func (c *CaseRecord) HasIdentifier() bool {
	return c.AccountNumber != "" || c.FlexLoanNumber != ""
}

// IsBankrupt reports whether the bankruptcy flag is set on the record.
func (c *CaseRecord) IsBankrupt() bool {
	return c.BankruptcyFlag == BankruptcyFlagSet
}

// Identifier returns the preferred lookup identifier for the case:
// account number, then flex loan number, then business name.
func (c *CaseRecord) Identifier() string {
	if c.AccountNumber != "" {
		return c.AccountNumber
	}
	if c.FlexLoanNumber != "" {
		return c.FlexLoanNumber
	}
	return c.BusinessName
}

// Matches reports whether the record is identified by the given value,
// checking account number, flex loan number, then business name.
func (c *CaseRecord) Matches(identifier string) bool {
	return c.AccountNumber == identifier ||
		c.FlexLoanNumber == identifier ||
		c.BusinessName == identifier
}

// CaseFilters narrows a case listing. Zero values mean "no filter".
type CaseFilters struct {
	HasPlacementDate  bool
	NoBankruptcy      bool
	MinBalance        float64
	MinDaysDelinquent int
}

// Match reports whether the record passes every set filter.
func (f CaseFilters) Match(c *CaseRecord) bool {
	if f.HasPlacementDate && c.PlacementDate == nil {
		return false
	}
	if f.NoBankruptcy && c.IsBankrupt() {
		return false
	}
	if f.MinBalance > 0 && c.OutstandingBalance < f.MinBalance {
		return false
	}
	if f.MinDaysDelinquent > 0 && c.DaysDelinquent < f.MinDaysDelinquent {
		return false
	}
	return true
}
