package services

import (
	"fmt"
	"log"
	"strings"

	"collections_flow_go/config"
	"collections_flow_go/models"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendLetterNotice emails the debtor's contacts a notice that a demand letter
// has been issued, with a link to the generated document. Delivery is best
// effort: a failed notice never fails the action that generated the letter.
func SendLetterNotice(cfg *config.Config, record *models.CaseRecord, actionCode string, documentURL string) error {
	to := contactEmails(record)
	if len(to) == 0 {
		log.Printf("LetterEmail: no contact emails for %s, skipping notice", record.BusinessName)
		return nil
	}

	subject := fmt.Sprintf("%s Demand Notice - %s", actionCode, record.BusinessName)
	text := fmt.Sprintf(
		"A %s demand letter has been issued for account %s.\n\nDocument: %s\n",
		actionCode, record.Identifier(), documentURL,
	)
	html := fmt.Sprintf(
		"<p>A %s demand letter has been issued for account %s.</p><p><a href=%q>View document</a></p>",
		actionCode, record.Identifier(), documentURL,
	)

	return SendEmail(cfg, &Email{To: to, Subject: subject, HTMLBody: html, TextBody: text})
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	// In test mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)

	fromAddress := fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom)

	params := &resend.SendEmailRequest{
		From:    fromAddress,
		To:      email.To,
		Subject: email.Subject,
	}
	if email.HTMLBody != "" {
		params.Html = email.HTMLBody
	}
	if email.TextBody != "" {
		params.Text = email.TextBody
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}

	log.Printf("Email sent successfully via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

func contactEmails(record *models.CaseRecord) []string {
	var to []string
	if record.Email1 != "" {
		to = append(to, record.Email1)
	}
	if record.Email2 != "" {
		to = append(to, record.Email2)
	}
	return to
}

// logEmailToConsole logs email details in test mode instead of sending
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\nEMAIL (test mode - not actually sent)\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n--- TEXT BODY ---\n%s", email.TextBody)
	log.Printf("%s\n", separator)
}
