// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ledger

import (
	"fmt"

	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/strkey"
)

// AccountIDLength is the length of an encoded account ID or seed.
const AccountIDLength = 56

// Keypair is an ed25519 keypair in Stellar strkey form.
type Keypair struct {
	Address string // public half, G...
	Seed    string // secret half, S...
}

// RandomKeypair generates a fresh sweep keypair.
func RandomKeypair() (*Keypair, error) {
	full, err := keypair.Random()
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	return &Keypair{Address: full.Address(), Seed: full.Seed()}, nil
}

// KeypairFromSeed parses an S... seed and derives its address.
func KeypairFromSeed(seed string) (*Keypair, error) {
	full, err := keypair.ParseFull(seed)
	if err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &Keypair{Address: full.Address(), Seed: full.Seed()}, nil
}

// IsAccountID reports whether s is a valid G... account ID, checksum
// included.
func IsAccountID(s string) bool {
	return strkey.IsValidEd25519PublicKey(s)
}
