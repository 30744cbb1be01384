package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Mailer delivers a plain-text message. Errors propagate to the caller, the
// request that triggered the mail fails with them.
type Mailer interface {
	Send(ctx context.Context, subject, body, from string, to []string) error
}

// SMTPConfig holds SMTP settings passed in from app config
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPMailer dials the SMTP server for every message.
type SMTPMailer struct {
	dialer *gomail.Dialer
	logger *slog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, subject, body, from string, to []string) error {
	if len(to) == 0 {
		return errors.New("mail: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	// gomail has no context support; the send keeps running in the
	// background after ctx ends and its result is only logged
	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		m.logger.WarnContext(ctx, "mail_send_abandoned", "to", to, "subject", subject, "error", ctx.Err().Error())
		go func() {
			if err := <-done; err != nil {
				m.logger.Warn("mail_send_failed", "to", to, "subject", subject, "error", err.Error())
			}
		}()
		return fmt.Errorf("send mail: %w", ctx.Err())
	}
	if err != nil {
		m.logger.WarnContext(ctx, "mail_send_failed", "to", to, "subject", subject, "error", err.Error())
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.InfoContext(ctx, "mail_sent", "to", to, "subject", subject)
	return nil
}

// LogMailer writes messages to the log instead of delivering them; used
// when no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, subject, body, from string, to []string) error {
	if len(to) == 0 {
		return errors.New("mail: no recipients")
	}
	m.logger.InfoContext(ctx, "mail_logged",
		"from", from,
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
