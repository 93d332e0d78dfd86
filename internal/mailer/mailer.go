// Package mailer sends outbound notification email. The engine treats email
// as fire-and-forget: a send failure is logged by the caller, never
// propagated into a workflow transition.
package mailer

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer is the outbound email contract.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. Used in
// development.
type LogMailer struct{}

// Send logs the message.
func (LogMailer) Send(ctx context.Context, msg Message) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Email (log mailer, not sent)")
	return nil
}

// CaptureMailer records messages in memory. Used in tests.
type CaptureMailer struct {
	mu       sync.Mutex
	messages []Message

	// Err, when set, is returned from every Send.
	Err error
}

// Send records the message.
func (m *CaptureMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns the captured messages.
func (m *CaptureMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Message(nil), m.messages...)
}
