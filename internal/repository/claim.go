// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"

	"codeberg.org/walletsurance/nominee/internal/models"
)

// CreateClaimIfAbsent inserts a claim token for a nominee unless one already
// exists. The uniqueness constraint on nominee_id makes the check and the
// insert a single statement, so overlapping monitor passes cannot issue two
// tokens. created is false when another token was already present.
func (r *Repository) CreateClaimIfAbsent(ctx context.Context, nomineeID int64, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO nominee_claims (claim_token, nominee_id) VALUES (?, ?)
		ON CONFLICT(nominee_id) DO NOTHING`,
		token, nomineeID)
	if err != nil {
		return false, fmt.Errorf("insert claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetClaimByNominee retrieves the claim issued for a nominee.
func (r *Repository) GetClaimByNominee(ctx context.Context, nomineeID int64) (*models.NomineeClaim, error) {
	var claim models.NomineeClaim
	err := r.db.GetContext(ctx, &claim, `SELECT * FROM nominee_claims WHERE nominee_id = ?`, nomineeID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &claim, nil
}

// GetClaimView resolves a claim token to the nominee data a claimant needs.
func (r *Repository) GetClaimView(ctx context.Context, token string) (*models.ClaimView, error) {
	var view models.ClaimView
	err := r.db.GetContext(ctx, &view, `
		SELECT c.id AS claim_id, n.id AS nominee_id, n.question, n.ciphertext_b64, n.nonce_b64, n.salt_b64,
			n.depositor_account_id, n.beneficiary_address, c.created_at AS claim_created_at, c.consumed_at
		FROM nominee_claims c
		JOIN nominees n ON c.nominee_id = n.id
		WHERE c.claim_token = ?`, token)
	if err != nil {
		return nil, wrapError(err)
	}
	return &view, nil
}

// MarkClaimConsumed stamps the first successful use of a claim token.
// consumed is false when the token is unknown or was already consumed.
func (r *Repository) MarkClaimConsumed(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE nominee_claims SET consumed_at = CURRENT_TIMESTAMP WHERE claim_token = ? AND consumed_at IS NULL`,
		token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountClaims returns the total number of issued claim tokens.
func (r *Repository) CountClaims(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM nominee_claims`)
	return count, err
}
