package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/quickbite/storefront-api/internal/config"
	"github.com/quickbite/storefront-api/pkg/logger"
)

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewSMTPSender builds a Sender backed by a plain SMTP relay.
func NewSMTPSender(cfg config.SMTPConfig, logger *logger.Logger) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	s.logger.Debug("email sent", "to", to, "subject", subject)
	return nil
}

type noopSender struct{}

// NewNoopSender is used when no SMTP relay is configured.
func NewNoopSender() Sender { return noopSender{} }

func (noopSender) Send(ctx context.Context, to, subject, body string) error { return nil }
