// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package nominee registers depositors' nominees and their escrowed sweep keys.
package nominee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"codeberg.org/walletsurance/nominee/internal/metrics"
	"codeberg.org/walletsurance/nominee/internal/models"
	"codeberg.org/walletsurance/nominee/internal/repository"
	"codeberg.org/walletsurance/nominee/internal/services/escrow"
	"codeberg.org/walletsurance/nominee/internal/services/ledger"
)

var (
	ErrValidation = errors.New("invalid registration")
	ErrNotFound   = errors.New("nominee not found")
)

var phonePattern = regexp.MustCompile(`^\+[0-9]{8,15}$`)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// KeypairFunc generates the sweep keypair for a registration.
type KeypairFunc func() (*ledger.Keypair, error)

type Service struct {
	repo        *repository.Repository
	defaultDays int
	metrics     *metrics.Metrics
	newKeypair  KeypairFunc
	signers     ledger.SignerBuilder
}

func NewService(repo *repository.Repository, defaultInactivityDays int, m *metrics.Metrics) *Service {
	return &Service{
		repo:        repo,
		defaultDays: defaultInactivityDays,
		metrics:     m,
		newKeypair:  ledger.RandomKeypair,
	}
}

// WithKeypairFunc replaces the keypair generator.
func (s *Service) WithKeypairFunc(fn KeypairFunc) *Service {
	s.newKeypair = fn
	return s
}

// RegisterParams holds the parameters for a nominee registration.
type RegisterParams struct {
	DepositorAccountID string
	BeneficiaryPhone   string
	BeneficiaryAddress string
	Question           string
	Answer             string
	InactivityDays     *int // nil selects the configured default
}

// RegisterResult is returned to the depositor. The sweep secret never
// leaves the service unencrypted.
type RegisterResult struct {
	SweepPublicKey string
	Nominee        *models.Nominee
}

// Register validates params, generates a sweep keypair, escrows its seed
// under the answer and stores the record. Re-registering a depositor
// replaces the previous escrow and clears any outstanding claim.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*RegisterResult, error) {
	n, err := s.validate(params)
	if err != nil {
		return nil, err
	}

	kp, err := s.newKeypair()
	if err != nil {
		return nil, fmt.Errorf("%w: generating sweep keypair: %v", escrow.ErrCryptoConfiguration, err)
	}

	sealed, err := escrow.Encrypt(kp.Seed, strings.TrimSpace(params.Answer))
	if err != nil {
		return nil, fmt.Errorf("failed to escrow sweep key: %w", err)
	}

	n.SweepPublicKey = kp.Address
	n.CiphertextB64 = sealed.CiphertextB64()
	n.NonceB64 = sealed.NonceB64()
	n.SaltB64 = sealed.SaltB64()

	if err := s.repo.UpsertNominee(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to store nominee: %w", err)
	}

	s.metrics.IncRegistration()
	slog.InfoContext(ctx, "nominee_registered",
		"nominee_id", n.ID,
		"depositor", n.DepositorAccountID,
		"inactivity_days", n.InactivityDays,
	)

	return &RegisterResult{SweepPublicKey: kp.Address, Nominee: n}, nil
}

func (s *Service) validate(params RegisterParams) (*models.Nominee, error) {
	depositor := strings.TrimSpace(params.DepositorAccountID)
	question := strings.TrimSpace(params.Question)
	answer := strings.TrimSpace(params.Answer)
	phone := normalizePhone(params.BeneficiaryPhone)
	address := strings.TrimSpace(params.BeneficiaryAddress)

	switch {
	case depositor == "":
		return nil, invalid("depositor_account_id", "is required")
	case !ledger.IsAccountID(depositor):
		return nil, invalid("depositor_account_id", "must be a Stellar public key (G..., 56 chars)")
	case phone == "":
		return nil, invalid("beneficiary_phone", "is required")
	case !phonePattern.MatchString(phone):
		return nil, invalid("beneficiary_phone", "must be an international number such as +15551234567")
	case question == "":
		return nil, invalid("question", "is required")
	case answer == "":
		return nil, invalid("answer", "is required")
	case address != "" && !ledger.IsAccountID(address):
		return nil, invalid("beneficiary_stellar_address", "must be a Stellar public key (G..., 56 chars)")
	}

	days := s.defaultDays
	if params.InactivityDays != nil {
		days = *params.InactivityDays
	}
	if days < 0 {
		return nil, invalid("inactivity_days", "must not be negative")
	}
	if days > models.MaxInactivityDays {
		return nil, invalid("inactivity_days", fmt.Sprintf("must not exceed %d", models.MaxInactivityDays))
	}

	n := &models.Nominee{
		DepositorAccountID: depositor,
		Question:           question,
		BeneficiaryPhone:   phone,
		InactivityDays:     days,
	}
	if address != "" {
		n.BeneficiaryAddress = &address
	}
	return n, nil
}

// normalizePhone drops common separators.
func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// GetByDepositor returns the nominee registered for a depositor.
func (s *Service) GetByDepositor(ctx context.Context, depositorAccountID string) (*models.Nominee, error) {
	n, err := s.repo.GetNomineeByDepositor(ctx, strings.TrimSpace(depositorAccountID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load nominee: %w", err)
	}
	return n, nil
}

// List returns all nominees with their claim state.
func (s *Service) List(ctx context.Context) ([]models.NomineeWithClaim, error) {
	nominees, err := s.repo.ListNomineesWithClaimState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nominees: %w", err)
	}
	return nominees, nil
}
