// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package offramp quotes a mocked crypto-to-bank payout for claimants.
// Nothing is settled.
package offramp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"codeberg.org/walletsurance/nominee/internal/models"
	"github.com/google/uuid"
)

// DefaultRateXLMINR is the mock conversion rate.
const DefaultRateXLMINR = 10.5

var ErrValidation = errors.New("invalid payout request")

// TokenResolver validates claim tokens.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*models.ClaimView, error)
}

type Service struct {
	tokens TokenResolver
	rate   float64
}

func NewService(tokens TokenResolver, rateXLMINR float64) *Service {
	if rateXLMINR <= 0 {
		rateXLMINR = DefaultRateXLMINR
	}
	return &Service{tokens: tokens, rate: rateXLMINR}
}

// PayoutParams holds the claimant's bank details.
type PayoutParams struct {
	ClaimToken    string
	AccountHolder string
	AccountNumber string
	IFSC          string
	BankName      string
	AmountXLM     string
}

// Payout is the mocked payout receipt.
type Payout struct { //nolint:govet // fieldalignment: readability over optimization
	Status        string  `json:"status"`
	Mock          bool    `json:"mock"`
	OrderID       string  `json:"order_id"`
	AccountHolder string  `json:"bank_account_holder"`
	AccountMasked string  `json:"bank_account_masked"`
	IFSC          string  `json:"bank_ifsc"`
	BankName      *string `json:"bank_name"`
	AmountXLM     string  `json:"amount_xlm"`
	AmountINR     float64 `json:"amount_inr_mock"`
}

// RequestPayout validates the claim token and bank details and returns a
// mock receipt.
func (s *Service) RequestPayout(ctx context.Context, params PayoutParams) (*Payout, error) {
	token := strings.TrimSpace(params.ClaimToken)
	holder := strings.TrimSpace(params.AccountHolder)
	number := strings.TrimSpace(params.AccountNumber)
	ifsc := strings.TrimSpace(params.IFSC)
	bankName := strings.TrimSpace(params.BankName)

	if token == "" {
		return nil, fmt.Errorf("%w: claim_token required", ErrValidation)
	}
	if holder == "" || number == "" || ifsc == "" {
		return nil, fmt.Errorf("%w: bank_account_holder, bank_account_number, and bank_ifsc required", ErrValidation)
	}

	if _, err := s.tokens.Resolve(ctx, token); err != nil {
		return nil, err
	}

	amount := strings.TrimSpace(params.AmountXLM)
	if amount == "" {
		amount = "0"
	}

	p := &Payout{
		Status:        "success",
		Mock:          true,
		OrderID:       "mock-offramp-" + uuid.NewString(),
		AccountHolder: holder,
		AccountMasked: maskAccount(number),
		IFSC:          ifsc,
		AmountXLM:     amount,
		AmountINR:     s.convert(amount),
	}
	if bankName != "" {
		p.BankName = &bankName
	}

	slog.InfoContext(ctx, "offramp_payout_mocked",
		"order_id", p.OrderID,
		"token", models.ShortToken(token),
		"amount_xlm", amount,
	)
	return p, nil
}

// convert returns the INR amount rounded to paise; unparsable amounts quote 0.
func (s *Service) convert(amountXLM string) float64 {
	xlm, err := strconv.ParseFloat(amountXLM, 64)
	if err != nil || xlm < 0 || math.IsInf(xlm, 0) || math.IsNaN(xlm) {
		return 0
	}
	return math.Round(xlm*s.rate*100) / 100
}

func maskAccount(number string) string {
	last := "****"
	if len(number) >= 4 {
		last = number[len(number)-4:]
	}
	return "****" + last
}
