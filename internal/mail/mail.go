// Package mail delivers account emails.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sitehub/internal/config"
	"sitehub/internal/middleware"

	gomail "github.com/wneessen/go-mail"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTPMailer when SMTP_HOST is configured and a LogMailer otherwise.
func New(cfg *config.Config) Mailer {
	from := cfg.MailFrom
	if from == "" {
		from = "no-reply@sitehub.local"
	}
	if cfg.SMTPHost == "" {
		return &LogMailer{From: from}
	}
	return &SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     from,
	}
}

// LogMailer writes messages to the application log instead of sending them.
type LogMailer struct {
	From string
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	middleware.Logger.InfoContext(ctx, "email (not sent)",
		slog.String("from", m.From),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}

// SMTPMailer sends messages through an SMTP relay. The connection upgrades to
// STARTTLS when the relay offers it and uses PLAIN auth when a username is set.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	deliver func(ctx context.Context, msg *gomail.Msg) error
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	built, err := m.build(msg)
	if err != nil {
		return err
	}
	deliver := m.deliver
	if deliver == nil {
		deliver = m.dialAndSend
	}
	if err := deliver(ctx, built); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return nil
}

// build renders msg with a Date, a Message-ID and RFC 2047 encoded headers.
func (m *SMTPMailer) build(msg Message) (*gomail.Msg, error) {
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return nil, errors.New("mail: subject contains a line break")
	}
	out := gomail.NewMsg()
	if err := out.From(m.From); err != nil {
		return nil, fmt.Errorf("mail: from address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: recipient address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return out, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	port := m.Port
	if port == 0 {
		port = 587
	}
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.Username),
			gomail.WithPassword(m.Password),
		)
	}
	client, err := gomail.NewClient(m.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
