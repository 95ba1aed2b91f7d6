package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService sends transactional email through SendGrid. When no API key
// is configured the service runs disabled and only logs what it would have
// sent, so local development does not need a mail account.
type EmailService struct {
	client *sendgrid.Client
	sender string
}

// NewEmailService initializes the service from SENDGRID_API_KEY and
// EMAIL_SENDER.
func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		log.Println("SENDGRID_API_KEY not set; email sending disabled")
		return &EmailService{}
	}
	return &EmailService{
		client: sendgrid.NewSendClient(apiKey),
		sender: os.Getenv("EMAIL_SENDER"),
	}
}

// SendEmail sends a plain-text email to the specified recipient.
func (es *EmailService) SendEmail(toEmail, subject, content string) error {
	if es.client == nil {
		log.Printf("email disabled, skipping %q to %s", subject, toEmail)
		return nil
	}
	from := mail.NewEmail("E-Commerce Platform", es.sender)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, content, content)
	resp, err := es.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}
	return nil
}

// SendOrderConfirmation notifies a user that their order was placed.
func (es *EmailService) SendOrderConfirmation(toEmail, name, orderID string, total float64) error {
	subject := "Order Confirmation - E-commerce Platform"
	content := fmt.Sprintf(
		"Dear %s,\n\nThank you for your purchase! Your order (ID: %s) has been placed successfully.\n\nTotal Amount: $%.2f\n\nThank you for shopping with us!\n",
		name, orderID, total,
	)
	return es.SendEmail(toEmail, subject, content)
}
