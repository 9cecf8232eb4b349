package services

import (
	"context"
	"fmt"
	"log/slog"

	"meetupbot/internal/domain"
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

// SendSpeakerApplication alerts the organizer mailbox about a new application using
// the "speaker_application" template.
func (s *emailService) SendSpeakerApplication(ctx context.Context, data *domain.SpeakerApplicationEmailData) error {
	if data == nil {
		return fmt.Errorf("speaker application email data is nil")
	}
	if data.To == "" {
		return fmt.Errorf("speaker application email has no recipient")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("speaker_application", data)
	if err != nil {
		return fmt.Errorf("failed to render speaker_application template: %w", err)
	}
	if err := s.mailer.Send(data.To, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send speaker application email: %w", err)
	}
	s.logger.InfoContext(ctx, "speaker application email sent", "to", data.To, "application_id", data.ApplicationID)
	return nil
}
