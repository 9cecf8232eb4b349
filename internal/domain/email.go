package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// SpeakerApplicationEmailData holds data for the organizer alert about a new application.
type SpeakerApplicationEmailData struct {
	To            string
	EventName     string
	ApplicantName string
	ApplicantTag  string
	Topic         string
	Contact       string
	ApplicationID string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendSpeakerApplication(ctx context.Context, data *SpeakerApplicationEmailData) error
}
