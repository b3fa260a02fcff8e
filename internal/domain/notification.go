package domain

import "context"

// MailMessage is what the outbound provider accepts.
type MailMessage struct {
	To      string
	Subject string
	HTML    string
	ReplyTo string
}

// Mailer delivers a message synchronously and reports failure.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// Notifier is best-effort: it never reports failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, msg MailMessage)
}
