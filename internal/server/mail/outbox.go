// Package mail delivers outgoing messages (email verification links) to an
// outbox: the server log in development or an S3-compatible bucket that a
// separate mailer drains.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// Message is a single outgoing mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Bytes renders m as a minimal RFC 5322 message.
func (m Message) Bytes(now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(m.Body)
	return []byte(b.String())
}

// VerificationMessage builds the mail carrying an email verification token.
func VerificationMessage(to, token string, validity time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Verify your email address",
		Body: fmt.Sprintf("Your verification code is %s\r\n"+
			"Run `verify %s` in the client. The code expires in %s.\r\n", token, token, validity),
	}
}

// Outbox accepts messages for delivery.
type Outbox interface {
	Send(ctx context.Context, msg Message) error
}

// LogOutbox writes messages to the logger instead of delivering them.
type LogOutbox struct {
	logger logging.Logger
}

func NewLogOutbox(logger logging.Logger) *LogOutbox {
	return &LogOutbox{logger: logger.With("module", "mail")}
}

func (o *LogOutbox) Send(ctx context.Context, msg Message) error {
	o.logger.Info(ctx, "outgoing mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
