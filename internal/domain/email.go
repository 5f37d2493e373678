package domain

import "context"

// Mailer delivers one message with HTML and plain-text bodies.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer fills the named subject, HTML and text templates with data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RSVPEmailData holds data for the RSVP confirmation and cancellation emails.
type RSVPEmailData struct {
	Email      string
	Name       string
	EventTitle string
	EventDate  string
	Location   string
	SpotsLeft  int
}

// EmailService sends the RSVP notification emails.
type EmailService interface {
	SendRSVPConfirmation(ctx context.Context, data *RSVPEmailData) error
	SendRSVPCancellation(ctx context.Context, data *RSVPEmailData) error
}
