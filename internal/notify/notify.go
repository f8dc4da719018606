// Package notify provides a pluggable delivery abstraction for outbound
// notifications: scheduled reminder emails and user-requested sends.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"net/smtp"
	"strings"
	"sync"
)

// Sender defines a pluggable notification delivery abstraction.
type Sender interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a
	// recipient address. Returns the canonicalized recipient and an error
	// if validation fails.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// Send delivers a message to a recipient.
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPOpts holds SMTP sender configuration.
type SMTPOpts struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender delivers notifications over plain SMTP.
type SMTPSender struct {
	opts SMTPOpts
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(opts SMTPOpts) (*SMTPSender, error) {
	if opts.Host == "" || opts.From == "" {
		return nil, fmt.Errorf("smtp host and from address required")
	}
	if opts.Port == "" {
		opts.Port = "587"
	}
	return &SMTPSender{opts: opts}, nil
}

// ValidateAndCanonicalizeRecipient implements Sender.
func (s *SMTPSender) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	return strings.ToLower(addr.Address), nil
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	recipient, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + s.opts.From,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if s.opts.Username != "" {
		auth = smtp.PlainAuth("", s.opts.Username, s.opts.Password, s.opts.Host)
	}
	addr := s.opts.Host + ":" + s.opts.Port
	if err := smtp.SendMail(addr, auth, s.opts.From, []string{recipient}, []byte(msg)); err != nil {
		slog.Error("SMTPSender.Send failed", "error", err, "to", recipient)
		return fmt.Errorf("failed to send to %s: %w", recipient, err)
	}
	slog.Info("SMTPSender.Send succeeded", "to", recipient, "subject", subject)
	return nil
}

// LogSender records sends in memory and logs them. It backs development
// setups without SMTP credentials, and tests.
type LogSender struct {
	mu   sync.Mutex
	sent []SentMessage
}

// SentMessage is one recorded delivery.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// NewLogSender creates an in-memory sender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// ValidateAndCanonicalizeRecipient implements Sender.
func (l *LogSender) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	return strings.ToLower(addr.Address), nil
}

// Send implements Sender.
func (l *LogSender) Send(_ context.Context, to, subject, body string) error {
	recipient, err := l.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.sent = append(l.sent, SentMessage{To: recipient, Subject: subject, Body: body})
	l.mu.Unlock()
	slog.Info("LogSender.Send: notification recorded", "to", recipient, "subject", subject)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (l *LogSender) Sent() []SentMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]SentMessage, len(l.sent))
	copy(out, l.sent)
	return out
}
