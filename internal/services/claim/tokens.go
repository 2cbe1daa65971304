// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package claim issues claim tokens and serves everything a nominee needs
// to recover the escrowed sweep key.
package claim

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"codeberg.org/walletsurance/nominee/internal/models"
	"codeberg.org/walletsurance/nominee/internal/repository"
)

// TokenBytes is the number of random bytes in a claim token.
const TokenBytes = 24

var (
	// ErrNotFound is returned for tokens that do not resolve. It never
	// reveals whether a token existed.
	ErrNotFound = errors.New("invalid or expired claim link")
	// ErrValidation is returned for malformed claim requests.
	ErrValidation = errors.New("invalid claim request")
)

var randReader io.Reader = rand.Reader

// GenerateToken returns a fresh URL-safe claim token.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Tokens manages the claim token lifecycle: issue, resolve, consume.
type Tokens struct {
	repo      *repository.Repository
	singleUse bool
}

// NewTokens creates a token store. With singleUse, consumed tokens stop
// resolving.
func NewTokens(repo *repository.Repository, singleUse bool) *Tokens {
	return &Tokens{repo: repo, singleUse: singleUse}
}

// Issue creates the claim token for a nominee unless one exists. created is
// false when another pass issued it first; the existing token is returned.
func (t *Tokens) Issue(ctx context.Context, nomineeID int64) (token string, created bool, err error) {
	token, err = GenerateToken()
	if err != nil {
		return "", false, err
	}

	created, err = t.repo.CreateClaimIfAbsent(ctx, nomineeID, token)
	if err != nil {
		return "", false, fmt.Errorf("failed to issue claim: %w", err)
	}
	if created {
		return token, true, nil
	}

	existing, err := t.repo.GetClaimByNominee(ctx, nomineeID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load existing claim: %w", err)
	}
	return existing.ClaimToken, false, nil
}

// Resolve returns the claim behind a token.
func (t *Tokens) Resolve(ctx context.Context, token string) (*models.ClaimView, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}

	view, err := t.repo.GetClaimView(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve claim: %w", err)
	}
	if t.singleUse && view.ConsumedAt != nil {
		return nil, ErrNotFound
	}
	return view, nil
}

// Consume marks a token as used by a claim submission. Consuming twice is
// a no-op.
func (t *Tokens) Consume(ctx context.Context, token string) (bool, error) {
	marked, err := t.repo.MarkClaimConsumed(ctx, strings.TrimSpace(token))
	if err != nil {
		return false, fmt.Errorf("failed to consume claim: %w", err)
	}
	return marked, nil
}
