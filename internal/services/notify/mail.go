// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package notify

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/walletsurance/nominee/internal/config"
	"github.com/wneessen/go-mail"
)

// Mail delivers claim notifications through a mail-to-SMS gateway: the
// message is mailed to <digits>@<gateway domain>.
type Mail struct {
	cfg      *config.SMTPConfig
	domain   string
	composer *Composer
}

// NewMail creates a mail gateway notifier.
func NewMail(cfg *config.SMTPConfig, gatewayDomain string, composer *Composer) (*Mail, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: SMTP host is required", ErrNotConfigured)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: SMTP from address is required", ErrNotConfigured)
	}
	if gatewayDomain == "" {
		return nil, fmt.Errorf("%w: SMS gateway domain is required", ErrNotConfigured)
	}

	return &Mail{
		cfg:      cfg,
		domain:   strings.TrimPrefix(gatewayDomain, "@"),
		composer: composer,
	}, nil
}

// GatewayAddress returns the gateway mailbox for an E.164 phone number.
func (m *Mail) GatewayAddress(phone string) string {
	return strings.TrimPrefix(phone, "+") + "@" + m.domain
}

// SendClaim implements Notifier.
func (m *Mail) SendClaim(ctx context.Context, msg Message) error {
	if err := m.send(ctx, m.GatewayAddress(msg.Phone), m.composer.Subject(ctx), m.composer.Body(ctx, msg)); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// send sends an email via SMTP using go-mail.
func (m *Mail) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if m.cfg.FromName != "" {
		if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(m.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}

	// Implicit TLS on 465, STARTTLS elsewhere
	if m.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if m.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
