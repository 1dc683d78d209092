// Package notify tells the shop about new contact form submissions.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/partsline/partsline/internal/models"
)

// Notifier sends a notification about a contact request to recipient
type Notifier interface {
	ContactReceived(ctx context.Context, recipient string, req *models.ContactRequest) error
}

// Nop drops every notification
type Nop struct{}

func (Nop) ContactReceived(context.Context, string, *models.ContactRequest) error { return nil }

// sender is the part of the SendGrid client we call
type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*sendgridResponse, error)
}

type sendgridResponse struct {
	StatusCode int
	Body       string
}

type sendgridSender struct {
	client *sendgrid.Client
}

func (s sendgridSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*sendgridResponse, error) {
	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return nil, err
	}
	return &sendgridResponse{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

// SendGrid sends notifications through the SendGrid API
type SendGrid struct {
	sender sender
	from   *mail.Email
	logger zerolog.Logger
}

// New returns a SendGrid notifier, or Nop when apiKey is empty
func New(apiKey, fromEmail string, logger zerolog.Logger) Notifier {
	if apiKey == "" {
		logger.Info().Msg("SENDGRID_API_KEY not set - contact notifications disabled")
		return Nop{}
	}
	return &SendGrid{
		sender: sendgridSender{client: sendgrid.NewSendClient(apiKey)},
		from:   mail.NewEmail("Partsline website", fromEmail),
		logger: logger,
	}
}

func (s *SendGrid) ContactReceived(ctx context.Context, recipient string, req *models.ContactRequest) error {
	if recipient == "" {
		return nil
	}

	subject := fmt.Sprintf("New contact request from %s", req.Name)
	to := mail.NewEmail("", recipient)
	plainTextContent := fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\n\n%s", req.Name, req.Email, req.Phone, req.Message)
	htmlContent := fmt.Sprintf("<p><strong>Name:</strong> %s<br><strong>Email:</strong> %s<br><strong>Phone:</strong> %s</p><p>%s</p>",
		html.EscapeString(req.Name), html.EscapeString(req.Email), html.EscapeString(req.Phone), html.EscapeString(req.Message))

	message := mail.NewSingleEmail(s.from, subject, to, plainTextContent, htmlContent)
	message.SetReplyTo(mail.NewEmail(req.Name, req.Email))

	resp, err := s.sender.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected (status %d): %s", resp.StatusCode, resp.Body)
	}

	s.logger.Info().Str("recipient", recipient).Msg("Contact notification sent")
	return nil
}
