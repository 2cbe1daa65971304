// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// NomineeClaim is the claim token issued once a depositor went inactive.
type NomineeClaim struct { //nolint:govet // fieldalignment: readability over optimization
	ID         int64      `db:"id" json:"id"`
	ClaimToken string     `db:"claim_token" json:"-"`
	NomineeID  int64      `db:"nominee_id" json:"nominee_id"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
}

// Consumed reports whether a claim submission already used the token.
func (c *NomineeClaim) Consumed() bool {
	return c.ConsumedAt != nil
}

// ClaimView is everything a claimant needs, resolved from a claim token.
type ClaimView struct { //nolint:govet // fieldalignment: readability over optimization
	ClaimID            int64      `db:"claim_id"`
	NomineeID          int64      `db:"nominee_id"`
	Question           string     `db:"question"`
	CiphertextB64      string     `db:"ciphertext_b64"`
	NonceB64           string     `db:"nonce_b64"`
	SaltB64            string     `db:"salt_b64"`
	DepositorAccountID string     `db:"depositor_account_id"`
	BeneficiaryAddress *string    `db:"beneficiary_address"`
	ClaimCreatedAt     time.Time  `db:"claim_created_at"`
	ConsumedAt         *time.Time `db:"consumed_at"`
}

// ShortToken returns a loggable prefix of a claim token.
func ShortToken(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[:6] + "…"
}
