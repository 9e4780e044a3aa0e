// utils/email.go
package utils

import (
	"fmt"

	"github.com/keighl/postmark"

	"github.com/congbach123/baccon-ecommerce/models"
)

// EmailService handles sending emails using Postmark
type EmailService struct {
	client *postmark.Client
	sender string
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(apiToken, sender string) *EmailService {
	client := postmark.NewClient(apiToken, "")
	return &EmailService{
		client: client,
		sender: sender,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendOrderReceipt sends a payment receipt after an order settles
func (es *EmailService) SendOrderReceipt(toEmail string, order *models.Order) error {
	subject := "Payment Received - Order Confirmation"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>We have received your payment for order <strong>%s</strong>.<br><br>Items: <strong>$%.2f</strong><br>Shipping: <strong>$%.2f</strong><br>Tax: <strong>$%.2f</strong><br>Total Paid: <strong>$%.2f</strong><br><br>Thank you for shopping with us!",
		order.ID.Hex(),
		order.ItemsPrice,
		order.ShippingPrice,
		order.TaxPrice,
		order.TotalPrice,
	)

	return es.SendEmail(toEmail, subject, htmlContent)
}
