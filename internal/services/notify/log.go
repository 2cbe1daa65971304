// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package notify

import (
	"context"
	"log/slog"

	"codeberg.org/walletsurance/nominee/internal/models"
)

// Log writes notifications to the log instead of delivering them. It is the
// fallback when no provider is configured and counts every message as sent.
type Log struct {
	logger   *slog.Logger
	composer *Composer
}

// NewLog creates a log-only notifier.
func NewLog(logger *slog.Logger, composer *Composer) *Log {
	return &Log{logger: logger, composer: composer}
}

// SendClaim implements Notifier.
func (l *Log) SendClaim(ctx context.Context, msg Message) error {
	l.logger.InfoContext(ctx, "claim_notification_logged",
		"phone", maskPhone(msg.Phone),
		"token", models.ShortToken(msg.Token),
		"length", len(l.composer.Body(ctx, msg)),
	)
	return nil
}
