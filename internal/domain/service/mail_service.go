package service

import "context"

// Mailer is the notification side-channel. Callers fire it from a goroutine
// and log failures; a mail error never surfaces to the request path.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
