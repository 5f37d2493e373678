package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventhub/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendRSVPConfirmation sends the "rsvp_confirmed" template.
func (s *emailService) SendRSVPConfirmation(ctx context.Context, data *domain.RSVPEmailData) error {
	return s.send(ctx, "rsvp_confirmed", data)
}

// SendRSVPCancellation sends the "rsvp_cancelled" template.
func (s *emailService) SendRSVPCancellation(ctx context.Context, data *domain.RSVPEmailData) error {
	return s.send(ctx, "rsvp_cancelled", data)
}

func (s *emailService) send(ctx context.Context, templateName string, data *domain.RSVPEmailData) error {
	if data == nil {
		return fmt.Errorf("%s email data is nil", templateName)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("render %s template: %w", templateName, err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send %s email: %w", templateName, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", templateName, "to", data.Email)
	return nil
}
