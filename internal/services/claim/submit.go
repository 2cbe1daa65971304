// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/walletsurance/nominee/internal/metrics"
	"codeberg.org/walletsurance/nominee/internal/models"
	"codeberg.org/walletsurance/nominee/internal/services/ledger"
)

// SubmitParams holds a client-signed transaction envelope. ClaimToken is
// optional and, when present, is consumed by a successful submission.
type SubmitParams struct {
	SignedEnvelopeXDR string
	ClaimToken        string
}

// SubmitResult is the accepted submission.
type SubmitResult struct {
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

// Submit relays a signed envelope to the ledger. Rejections come back as
// *ledger.UpstreamError with the upstream detail untouched.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (*SubmitResult, error) {
	envelope := strings.TrimSpace(params.SignedEnvelopeXDR)
	if envelope == "" {
		return nil, fmt.Errorf("%w: signed_envelope_xdr required", ErrValidation)
	}

	token := strings.TrimSpace(params.ClaimToken)
	if token != "" {
		if _, err := s.tokens.Resolve(ctx, token); err != nil {
			return nil, err
		}
	}

	relayCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	res, err := s.relay.SubmitTransaction(relayCtx, envelope)
	if err != nil {
		var upstream *ledger.UpstreamError
		if !errors.As(err, &upstream) {
			s.metrics.IncCollaboratorFailure(metrics.CollaboratorRelay)
		}
		slog.WarnContext(ctx, "claim_submit_failed", "error", err)
		return nil, err
	}

	if token != "" {
		if _, err := s.tokens.Consume(ctx, token); err != nil {
			slog.ErrorContext(ctx, "claim_consume_failed", "token", models.ShortToken(token), "error", err)
		}
	}

	slog.InfoContext(ctx, "claim_submitted", "hash", res.Hash, "with_token", token != "")
	return &SubmitResult{Hash: res.Hash, Status: "success"}, nil
}
