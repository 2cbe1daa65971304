// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"

	"codeberg.org/walletsurance/nominee/internal/models"
	"github.com/vinovest/sqlx"
)

const nomineeColumns = `id, depositor_account_id, sweep_public_key, ciphertext_b64, nonce_b64, salt_b64,
	question, beneficiary_phone, beneficiary_address, inactivity_days, created_at, updated_at`

// UpsertNominee stores the escrow record for a depositor, replacing any
// previous one. The replaced escrow's claim token is removed in the same
// transaction so the new nominee starts out active.
func (r *Repository) UpsertNominee(ctx context.Context, n *models.Nominee) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.GetContext(ctx, &id, `
			INSERT INTO nominees (depositor_account_id, sweep_public_key, ciphertext_b64, nonce_b64, salt_b64,
				question, beneficiary_phone, beneficiary_address, inactivity_days)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(depositor_account_id) DO UPDATE SET
				sweep_public_key = excluded.sweep_public_key,
				ciphertext_b64 = excluded.ciphertext_b64,
				nonce_b64 = excluded.nonce_b64,
				salt_b64 = excluded.salt_b64,
				question = excluded.question,
				beneficiary_phone = excluded.beneficiary_phone,
				beneficiary_address = excluded.beneficiary_address,
				inactivity_days = excluded.inactivity_days,
				updated_at = CURRENT_TIMESTAMP
			RETURNING id`,
			n.DepositorAccountID, n.SweepPublicKey, n.CiphertextB64, n.NonceB64, n.SaltB64,
			n.Question, n.BeneficiaryPhone, n.BeneficiaryAddress, n.InactivityDays)
		if err != nil {
			return fmt.Errorf("upsert nominee: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM nominee_claims WHERE nominee_id = ?`, id); err != nil {
			return fmt.Errorf("reset nominee claim: %w", err)
		}

		if err := tx.GetContext(ctx, n, `SELECT `+nomineeColumns+` FROM nominees WHERE id = ?`, id); err != nil {
			return fmt.Errorf("reload nominee: %w", err)
		}
		return nil
	})
}

// GetNomineeByDepositor retrieves a nominee by depositor account ID.
func (r *Repository) GetNomineeByDepositor(ctx context.Context, depositorAccountID string) (*models.Nominee, error) {
	var n models.Nominee
	err := r.db.GetContext(ctx, &n, `SELECT `+nomineeColumns+` FROM nominees WHERE depositor_account_id = ?`, depositorAccountID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &n, nil
}

// GetNomineeByID retrieves a nominee by ID.
func (r *Repository) GetNomineeByID(ctx context.Context, id int64) (*models.Nominee, error) {
	var n models.Nominee
	if err := r.db.GetContext(ctx, &n, `SELECT `+nomineeColumns+` FROM nominees WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &n, nil
}

// ListNominees returns all nominees ordered by ID.
func (r *Repository) ListNominees(ctx context.Context) ([]models.Nominee, error) {
	var nominees []models.Nominee
	if err := r.db.SelectContext(ctx, &nominees, `SELECT `+nomineeColumns+` FROM nominees ORDER BY id`); err != nil {
		return nil, err
	}
	return nominees, nil
}

// ListNomineesWithClaimState returns all nominees together with whether a
// claim token has been issued for them.
func (r *Repository) ListNomineesWithClaimState(ctx context.Context) ([]models.NomineeWithClaim, error) {
	var nominees []models.NomineeWithClaim
	err := r.db.SelectContext(ctx, &nominees, `
		SELECT n.id, n.depositor_account_id, n.sweep_public_key, n.ciphertext_b64, n.nonce_b64, n.salt_b64,
			n.question, n.beneficiary_phone, n.beneficiary_address, n.inactivity_days, n.created_at, n.updated_at,
			EXISTS(SELECT 1 FROM nominee_claims c WHERE c.nominee_id = n.id) AS has_claim
		FROM nominees n
		ORDER BY n.id`)
	if err != nil {
		return nil, err
	}
	return nominees, nil
}

// CountNominees returns the total number of nominees.
func (r *Repository) CountNominees(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM nominees`)
	return count, err
}
