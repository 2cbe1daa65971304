// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// Nominee is the escrow record a depositor registers for their beneficiary.
// Exactly one row exists per depositor account. The question only reaches
// holders of a claim link, so it is left out of the JSON form along with
// the escrow material and the phone number.
type Nominee struct { //nolint:govet // fieldalignment: readability over optimization
	ID                 int64     `db:"id" json:"id"`
	DepositorAccountID string    `db:"depositor_account_id" json:"depositor_account_id"`
	SweepPublicKey     string    `db:"sweep_public_key" json:"sweep_public_key"`
	CiphertextB64      string    `db:"ciphertext_b64" json:"-"`
	NonceB64           string    `db:"nonce_b64" json:"-"`
	SaltB64            string    `db:"salt_b64" json:"-"`
	Question           string    `db:"question" json:"-"`
	BeneficiaryPhone   string    `db:"beneficiary_phone" json:"-"`
	BeneficiaryAddress *string   `db:"beneficiary_address" json:"beneficiary_stellar_address,omitempty"`
	InactivityDays     int       `db:"inactivity_days" json:"inactivity_days"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// MaxInactivityDays is the longest accepted inactivity threshold.
const MaxInactivityDays = 36500

// InactiveSince returns the cutoff for now: a depositor whose last activity
// is not after it is inactive.
func (n *Nominee) InactiveSince(now time.Time) time.Time {
	return now.AddDate(0, 0, -n.InactivityDays)
}

// NomineeWithClaim is a nominee row joined with its claim state, as the
// monitor scans it.
type NomineeWithClaim struct {
	Nominee
	HasClaim bool `db:"has_claim" json:"has_claim"`
}
