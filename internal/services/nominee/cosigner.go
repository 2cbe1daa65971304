// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package nominee

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/walletsurance/nominee/internal/services/ledger"
)

// WithSignerBuilder sets the builder used by BuildAddSigner.
func (s *Service) WithSignerBuilder(b ledger.SignerBuilder) *Service {
	s.signers = b
	return s
}

// AddSignerParams names the depositor's account and the key to add to it,
// usually the sweep key returned by Register.
type AddSignerParams struct {
	AccountPublicKey string
	SignerPublicKey  string
}

// BuildAddSigner returns an unsigned transaction that adds the signer to
// the depositor's account. The depositor signs and submits it with their
// own wallet.
func (s *Service) BuildAddSigner(ctx context.Context, params AddSignerParams) (string, error) {
	account := strings.TrimSpace(params.AccountPublicKey)
	signer := strings.TrimSpace(params.SignerPublicKey)

	switch {
	case account == "":
		return "", invalid("account_public_key", "is required")
	case !ledger.IsAccountID(account):
		return "", invalid("account_public_key", "must be a Stellar public key (G..., 56 chars)")
	case signer == "":
		return "", invalid("signer_public_key", "is required")
	case !ledger.IsAccountID(signer):
		return "", invalid("signer_public_key", "must be a Stellar public key (G..., 56 chars)")
	case signer == account:
		return "", invalid("signer_public_key", "must differ from account_public_key")
	}

	if s.signers == nil {
		return "", fmt.Errorf("%w: no transaction builder configured", ledger.ErrUnavailable)
	}

	envelope, err := s.signers.BuildAddSigner(ctx, account, signer)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "add_signer_built", "depositor", account)
	return envelope, nil
}
