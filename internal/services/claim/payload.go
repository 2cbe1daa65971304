// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package claim

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"codeberg.org/walletsurance/nominee/internal/metrics"
	"codeberg.org/walletsurance/nominee/internal/models"
	"codeberg.org/walletsurance/nominee/internal/services/escrow"
	"codeberg.org/walletsurance/nominee/internal/services/ledger"
)

// Options configures the claim service.
type Options struct { //nolint:govet // fieldalignment not critical for config structs
	NetworkPassphrase    string
	HorizonURL           string
	PlatformSweepAddress string
	Timeout              time.Duration // per collaborator call
}

// Service exposes escrow material to claimants and relays their signed
// transactions. It never decrypts anything.
type Service struct {
	tokens   *Tokens
	accounts ledger.AccountReader
	relay    ledger.Relay
	opts     Options
	metrics  *metrics.Metrics
}

func NewService(tokens *Tokens, accounts ledger.AccountReader, relay ledger.Relay, opts Options, m *metrics.Metrics) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Service{
		tokens:   tokens,
		accounts: accounts,
		relay:    relay,
		opts:     opts,
		metrics:  m,
	}
}

// Tokens returns the token store.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Payload is what the claim page needs to decrypt and sign in the browser.
type Payload struct { //nolint:govet // fieldalignment: readability over optimization
	Question             string           `json:"question"`
	CiphertextB64        string           `json:"ciphertext_b64"`
	NonceB64             string           `json:"nonce_b64"`
	SaltB64              string           `json:"salt_b64"`
	KDF                  escrow.KDFParams `json:"kdf"`
	NetworkPassphrase    string           `json:"network_passphrase"`
	HorizonURL           string           `json:"horizon_url"`
	DepositorAccountID   string           `json:"depositor_account_id"`
	BeneficiaryAddress   string           `json:"beneficiary_stellar_address"`
	Account              json.RawMessage  `json:"account"`
	PlatformSweepAddress string           `json:"platform_sweep_address,omitempty"`
}

// Payload resolves a token into the claim payload. The account snapshot is
// best effort and null when the ledger cannot provide it.
func (s *Service) Payload(ctx context.Context, token string) (*Payload, error) {
	view, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	p := &Payload{
		Question:             view.Question,
		CiphertextB64:        view.CiphertextB64,
		NonceB64:             view.NonceB64,
		SaltB64:              view.SaltB64,
		KDF:                  escrow.Params(),
		NetworkPassphrase:    s.opts.NetworkPassphrase,
		HorizonURL:           s.opts.HorizonURL,
		DepositorAccountID:   view.DepositorAccountID,
		PlatformSweepAddress: s.opts.PlatformSweepAddress,
	}
	if view.BeneficiaryAddress != nil {
		p.BeneficiaryAddress = *view.BeneficiaryAddress
	}
	p.Account = s.snapshot(ctx, view)

	return p, nil
}

func (s *Service) snapshot(ctx context.Context, view *models.ClaimView) json.RawMessage {
	if s.accounts == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	account, err := s.accounts.Account(ctx, view.DepositorAccountID)
	if err != nil {
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			s.metrics.IncCollaboratorFailure(metrics.CollaboratorAccount)
		}
		slog.WarnContext(ctx, "claim_account_snapshot_failed",
			"nominee_id", view.NomineeID,
			"depositor", view.DepositorAccountID,
			"error", err,
		)
		return nil
	}
	return account
}
