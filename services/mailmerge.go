package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"collections_flow_go/config"
	"collections_flow_go/models"

	"github.com/microcosm-cc/bluemonday"
)

// GenerateResult is the outcome of a document generation.
type GenerateResult struct {
	Success bool   `json:"success"`
	PDFURL  string `json:"pdfUrl,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DocumentGenerator produces the document artifact for an action.
type DocumentGenerator interface {
	Generate(ctx context.Context, caseID string, actionCode string, container *ContainerRef) GenerateResult
}

// mergeFieldRegex matches {{Merge_Field}} placeholders in letter templates.
var mergeFieldRegex = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// unsafeFileChars matches characters stripped from generated file names.
var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9 _-]`)

// MailMergeService generates demand-letter PDFs from HTML templates: merge
// the case's fields into the template, render to PDF, save to the demands
// bucket. It records nothing itself; metadata and history stay with the
// action processor.
type MailMergeService struct {
	source    CaseSource
	store     CaseStore
	templates map[string]string
	sanitizer *bluemonday.Policy
	pdfOpts   PDFOptions
	now       func() time.Time
}

// NewMailMergeService builds the generator with the configured templates.
func NewMailMergeService(source CaseSource, store CaseStore, cfg *config.Config) *MailMergeService {
	return &MailMergeService{
		source:    source,
		store:     store,
		templates: cfg.Templates,
		sanitizer: bluemonday.UGCPolicy(),
		pdfOpts:   DefaultPDFOptions(),
		now:       time.Now,
	}
}

// HasTemplate reports whether a generation template is configured for the code.
func (m *MailMergeService) HasTemplate(actionCode string) bool {
	_, ok := m.templates[actionCode]
	return ok
}

// Generate merges the case into the template for the action and saves the
// rendered PDF into the case container. The container should be the one the
// caller already resolved, to avoid redundant lookups; when nil it is
// resolved (or created) here.
func (m *MailMergeService) Generate(ctx context.Context, caseID string, actionCode string, container *ContainerRef) GenerateResult {
	templatePath, ok := m.templates[actionCode]
	if !ok {
		return GenerateResult{Success: false, Error: fmt.Sprintf("No template defined for %s", actionCode)}
	}

	record, err := m.source.GetCase(caseID)
	if err != nil {
		return GenerateResult{Success: false, Error: err.Error()}
	}
	if record == nil {
		return GenerateResult{Success: false, Error: fmt.Sprintf("Case not found: %s", caseID)}
	}

	if container == nil {
		resolved, _, err := m.store.CreateContainer(ctx, record)
		if err != nil {
			return GenerateResult{Success: false, Error: err.Error()}
		}
		container = resolved
	}

	templateContent, err := os.ReadFile(templatePath)
	if err != nil {
		return GenerateResult{Success: false, Error: fmt.Sprintf("Failed to read template for %s: %v", actionCode, err)}
	}

	merged := m.MergeTemplate(string(templateContent), record)
	merged = m.sanitizer.Sanitize(merged)

	pdf, err := GeneratePDF(WrapHTMLForPDF(merged), m.pdfOpts)
	if err != nil {
		return GenerateResult{Success: false, Error: err.Error()}
	}

	fileName := m.documentFileName(actionCode, record)
	saved, err := m.store.SaveDocument(ctx, record, actionCode, fileName, "application/pdf", pdf)
	if err != nil {
		return GenerateResult{Success: false, Error: err.Error()}
	}

	log.Printf("MailMerge: generated %s for %s", actionCode, record.BusinessName)
	return GenerateResult{
		Success: true,
		PDFURL:  saved.URL,
		Message: fmt.Sprintf("%s document generated successfully", actionCode),
	}
}

// documentFileName builds {CODE}_{SafeBusiness}_{YYYY-MM-DD}.pdf. The action
// code prefix is what document-existence checks match on.
func (m *MailMergeService) documentFileName(actionCode string, record *models.CaseRecord) string {
	business := record.BusinessName
	if business == "" {
		business = "case"
	}
	safeBusiness := unsafeFileChars.ReplaceAllString(business, "_")
	return fmt.Sprintf("%s_%s_%s.pdf", actionCode, safeBusiness, m.now().Format("2006-01-02"))
}

// MergeTemplate replaces {{Merge_Field}} placeholders with formatted case
// values. Unknown placeholders are left intact so template errors are visible
// in the output rather than silently blanked.
func (m *MailMergeService) MergeTemplate(content string, record *models.CaseRecord) string {
	fields := MergeFields(record, m.now())
	return mergeFieldRegex.ReplaceAllStringFunc(content, func(match string) string {
		key := strings.TrimSuffix(strings.TrimPrefix(match, "{{"), "}}")
		if value, ok := fields[key]; ok {
			return value
		}
		return match
	})
}

// MergeFields returns the formatted merge values for a case.
func MergeFields(record *models.CaseRecord, now time.Time) map[string]string {
	return map[string]string{
		"Business_Name":            record.BusinessName,
		"Owner_Name":               record.OwnerName,
		"Owner_Rep_Type":           record.OwnerRepType,
		"Mailing_Address":          record.MailingAddress,
		"Physical_Address":         record.PhysicalAddress,
		"Phone_1":                  record.Phone1,
		"Phone_2":                  record.Phone2,
		"Email_1":                  record.Email1,
		"Email_2":                  record.Email2,
		"Account_Number":           record.AccountNumber,
		"Flex_Loan_Number":         record.FlexLoanNumber,
		"Outstanding_Balance":      formatCurrency(record.OutstandingBalance),
		"Merchant_Balance":         formatCurrency(record.MerchantBalance),
		"Past_Due_Amount":          formatCurrency(record.PastDueAmount),
		"Delinquent_Since":         formatDate(record.DelinquentSince),
		"Days_Delinquent":          strconv.Itoa(record.DaysDelinquent),
		"Opposing_Counsel_Name":    record.OpposingCounselName,
		"Opposing_Counsel_Phone":   record.OpposingCounselPhone,
		"Opposing_Counsel_Email":   record.OpposingCounselEmail,
		"Opposing_Counsel_Address": record.OpposingCounselAddress,
		"Placement_Date":           formatDate(record.PlacementDate),
		"Current_Date":             now.Format("January 2, 2006"),
	}
}

// formatCurrency renders a dollar amount as $1,234.56.
func formatCurrency(amount float64) string {
	if amount < 0 {
		return "-" + formatCurrency(-amount)
	}
	// Round to whole cents first so a carried cent rolls into the dollars.
	total := int64(math.Round(amount * 100))
	whole := total / 100
	cents := total % 100

	digits := strconv.FormatInt(whole, 10)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}
	return fmt.Sprintf("$%s.%02d", grouped.String(), cents)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("01/02/2006")
}
