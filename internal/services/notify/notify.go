// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package notify delivers claim links to nominees.
package notify

//go:generate mockgen -source=notify.go -destination=mocks/mocks.go -package=mocks Notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/walletsurance/nominee/internal/config"
	"codeberg.org/walletsurance/nominee/internal/i18n"
	"golang.org/x/text/language"
)

var (
	// ErrNotConfigured means the selected provider is missing settings.
	ErrNotConfigured = errors.New("notification provider not configured")
	// ErrDeliveryFailed means the provider refused or failed to deliver.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// Message is one claim notification.
type Message struct {
	Phone           string
	Token           string
	QuestionPreview string
}

// Notifier sends claim notifications.
type Notifier interface {
	SendClaim(ctx context.Context, msg Message) error
}

// Composer renders the localized notification text.
type Composer struct {
	linkBase string
	locale   language.Tag
}

// NewComposer creates a Composer for claim links under linkBase.
func NewComposer(linkBase, locale string) (*Composer, error) {
	if err := i18n.Init(); err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}
	return &Composer{
		linkBase: strings.TrimSuffix(linkBase, "/"),
		locale:   i18n.MatchLanguage(locale),
	}, nil
}

// Link returns the claim link for a token.
func (c *Composer) Link(token string) string {
	return c.linkBase + "/claim/" + token
}

// Body returns the notification text for msg.
func (c *Composer) Body(ctx context.Context, msg Message) string {
	ctx = i18n.WithLocale(ctx, c.locale)
	body := i18n.TData(ctx, "claim_sms_body", map[string]any{"Link": c.Link(msg.Token)})
	if msg.QuestionPreview != "" {
		body += "\n" + i18n.TData(ctx, "claim_sms_question", map[string]any{"Question": msg.QuestionPreview})
	}
	return body
}

// Subject returns the subject line used by mail-based delivery.
func (c *Composer) Subject(ctx context.Context) string {
	return i18n.T(i18n.WithLocale(ctx, c.locale), "claim_mail_subject")
}

// New resolves the configured provider. With provider "auto" Twilio is used
// when its credentials are complete, the mail gateway when SMTP and a gateway
// domain are set, and the log sink otherwise.
func New(cfg *config.Config, logger *slog.Logger) (Notifier, string, error) {
	composer, err := NewComposer(cfg.Claim.BaseURL, cfg.SMS.Locale)
	if err != nil {
		return nil, "", err
	}

	provider := cfg.SMS.Provider
	if provider == "auto" || provider == "" {
		switch {
		case cfg.SMS.TwilioAccountSID != "" && cfg.SMS.TwilioAuthToken != "" && cfg.SMS.TwilioFrom != "":
			provider = "twilio"
		case cfg.SMTP.Host != "" && cfg.SMS.GatewayDomain != "":
			provider = "mail"
		default:
			provider = "log"
		}
	}

	switch provider {
	case "twilio":
		n, err := NewTwilio(TwilioConfig{
			AccountSID: cfg.SMS.TwilioAccountSID,
			AuthToken:  cfg.SMS.TwilioAuthToken,
			From:       cfg.SMS.TwilioFrom,
			BaseURL:    cfg.SMS.TwilioBaseURL,
			Timeout:    cfg.Monitor.CollaboratorTimeout,
		}, composer)
		if err != nil {
			return nil, "", err
		}
		return n, provider, nil
	case "mail":
		n, err := NewMail(&cfg.SMTP, cfg.SMS.GatewayDomain, composer)
		if err != nil {
			return nil, "", err
		}
		return n, provider, nil
	case "log":
		return NewLog(logger, composer), provider, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, provider)
	}
}

// maskPhone keeps the last four digits of a phone number.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
