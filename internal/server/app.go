// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"log/slog"

	"codeberg.org/walletsurance/nominee/internal/config"
	"codeberg.org/walletsurance/nominee/internal/handlers"
	"codeberg.org/walletsurance/nominee/internal/metrics"
	"codeberg.org/walletsurance/nominee/internal/repository"
	"codeberg.org/walletsurance/nominee/internal/services/claim"
	"codeberg.org/walletsurance/nominee/internal/services/ledger"
	"codeberg.org/walletsurance/nominee/internal/services/monitor"
	"codeberg.org/walletsurance/nominee/internal/services/nominee"
	"codeberg.org/walletsurance/nominee/internal/services/notify"
	"codeberg.org/walletsurance/nominee/internal/services/offramp"
	"github.com/vinovest/sqlx"
)

// Collaborators are the external systems the services talk to. Nil fields
// are built from the configuration.
type Collaborators struct {
	Oracle   ledger.Oracle
	Accounts ledger.AccountReader
	Relay    ledger.Relay
	Signers  ledger.SignerBuilder
	Notifier notify.Notifier
}

// App holds the wired services shared by the serve and check commands.
type App struct {
	Config   *config.Config
	Repo     *repository.Repository
	Metrics  *metrics.Metrics
	Nominees *nominee.Service
	Tokens   *claim.Tokens
	Claims   *claim.Service
	Monitor  *monitor.Service
	Offramp  *offramp.Service
}

// NewApp wires the services on top of an open database.
func NewApp(cfg *config.Config, db *sqlx.DB, collab Collaborators) (*App, error) {
	if collab.Oracle == nil || collab.Accounts == nil || collab.Relay == nil || collab.Signers == nil {
		horizon := ledger.NewHorizon(cfg.Ledger.HorizonURL, cfg.Ledger.Timeout)
		if collab.Oracle == nil {
			collab.Oracle = horizon
		}
		if collab.Accounts == nil {
			collab.Accounts = horizon
		}
		if collab.Relay == nil {
			collab.Relay = horizon
		}
		if collab.Signers == nil {
			collab.Signers = horizon
		}
	}
	if collab.Notifier == nil {
		n, provider, err := notify.New(cfg, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("failed to configure sms provider: %w", err)
		}
		slog.Info("sms provider configured", "provider", provider)
		collab.Notifier = n
	}

	repo := repository.New(db)
	m := metrics.New()
	tokens := claim.NewTokens(repo, cfg.Claim.SingleUse)

	return &App{
		Config:   cfg,
		Repo:     repo,
		Metrics:  m,
		Nominees: nominee.NewService(repo, cfg.Monitor.DefaultInactivityDays, m).WithSignerBuilder(collab.Signers),
		Tokens:   tokens,
		Claims: claim.NewService(tokens, collab.Accounts, collab.Relay, claim.Options{
			NetworkPassphrase:    cfg.Ledger.NetworkPassphrase,
			HorizonURL:           cfg.Ledger.HorizonURL,
			PlatformSweepAddress: cfg.Ledger.PlatformSweepAddress,
			Timeout:              cfg.Ledger.Timeout,
		}, m),
		Monitor: monitor.NewService(repo, tokens, collab.Oracle, collab.Notifier, monitor.Options{
			MissingActivity:     monitor.MissingActivityPolicy(cfg.Monitor.MissingActivity),
			Concurrency:         cfg.Monitor.Concurrency,
			CollaboratorTimeout: cfg.Monitor.CollaboratorTimeout,
		}, m),
		Offramp: offramp.NewService(tokens, cfg.Offramp.RateXLMINR),
	}, nil
}

// Handlers returns the HTTP handlers for the app.
func (a *App) Handlers() *handlers.Handlers {
	return handlers.New(handlers.Deps{
		Repo:        a.Repo,
		Nominees:    a.Nominees,
		Monitor:     a.Monitor,
		Claims:      a.Claims,
		Offramp:     a.Offramp,
		ErrorDetail: a.Config.Errors.Detail,
	})
}
