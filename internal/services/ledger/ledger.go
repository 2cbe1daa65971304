// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ledger is the single adapter to the Stellar network. It wraps the
// Stellar Go SDK for sweep keys, the last-activity oracle, account
// snapshots, co-signer transactions and transaction relay through Horizon.
package ledger

//go:generate mockgen -source=ledger.go -destination=mocks/mocks.go -package=mocks Oracle,AccountReader,Relay,SignerBuilder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable means Horizon could not be reached or answered with a
	// server error.
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrAccountNotFound means the account does not exist on the ledger.
	ErrAccountNotFound = errors.New("account not found")
)

// Oracle reports when an account was last active.
type Oracle interface {
	// LastActivity returns the time of the account's most recent
	// transaction. found is false when the account has no recorded activity.
	LastActivity(ctx context.Context, accountID string) (last time.Time, found bool, err error)
}

// AccountReader fetches a read-only account snapshot.
type AccountReader interface {
	Account(ctx context.Context, accountID string) (json.RawMessage, error)
}

// Relay submits client-signed transaction envelopes.
type Relay interface {
	SubmitTransaction(ctx context.Context, envelopeXDR string) (*SubmitResult, error)
}

// SignerBuilder prepares unsigned transactions for the depositor's wallet.
type SignerBuilder interface {
	// BuildAddSigner returns a base64 envelope that adds signer to
	// accountID with weight 1.
	BuildAddSigner(ctx context.Context, accountID, signer string) (string, error)
}

// SubmitResult is the accepted outcome of a submission.
type SubmitResult struct {
	Hash       string `json:"hash"`
	Successful bool   `json:"successful"`
}

// UpstreamError carries a rejection from Horizon as it was returned.
type UpstreamError struct {
	Status int
	Detail string
	Body   json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("horizon rejected transaction (%d): %s", e.Status, e.Detail)
}
