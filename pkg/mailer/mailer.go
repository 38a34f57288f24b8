package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// Config holds the SMTP settings
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	SenderName string
}

// SMTPMailer delivers mail through an SMTP relay
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
	log    *zap.Logger
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(cfg Config, log *zap.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, errors.New("SMTP host, port, and sender address must be configured")
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	if cfg.Port == 465 {
		dialer.SSL = true
	}

	from := cfg.From
	if cfg.SenderName != "" {
		from = gomail.NewMessage().FormatAddress(cfg.From, cfg.SenderName)
	}

	return &SMTPMailer{from: from, dialer: dialer, log: log}, nil
}

// Send delivers one message, giving up when ctx is done
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)

	switch {
	case htmlBody != "":
		msg.SetBody("text/html", htmlBody)
		if textBody != "" {
			msg.AddAlternative("text/plain", textBody)
		}
	case textBody != "":
		msg.SetBody("text/plain", textBody)
	default:
		return errors.New("email body must be provided")
	}

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		m.log.Warn("email send cancelled", zap.String("subject", subject), zap.Error(ctx.Err()))
		return fmt.Errorf("email sending cancelled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	m.log.Info("email sent", zap.String("subject", subject))
	return nil
}

// Message is a mail captured by MockMailer
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// MockMailer logs messages instead of sending them and keeps them for inspection
type MockMailer struct {
	log *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewMockMailer creates a new MockMailer
func NewMockMailer(log *zap.Logger) *MockMailer {
	return &MockMailer{log: log}
}

// Send records the message
func (m *MockMailer) Send(_ context.Context, to, subject, htmlBody, textBody string) error {
	m.mu.Lock()
	m.sent = append(m.sent, Message{To: to, Subject: subject, HTMLBody: htmlBody, TextBody: textBody})
	m.mu.Unlock()

	m.log.Info("mock mailer: message captured",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", textBody))
	return nil
}

// Sent returns a copy of every captured message
func (m *MockMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
