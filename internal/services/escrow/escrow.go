// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package escrow seals a secret under a key derived from a low-entropy
// answer. Only encryption happens here: the claimant re-derives the key
// from the published parameters and decrypts locally.
package escrow

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// KDF and cipher parameters. The claim page uses the same values with
// Web Crypto, so changing any of them breaks every stored escrow.
const (
	Iterations  = 100_000
	KeyLength   = 32 // AES-256
	SaltLength  = 16
	NonceLength = 12
)

// ErrCryptoConfiguration is returned when a required primitive is unavailable.
var ErrCryptoConfiguration = errors.New("cryptographic primitive unavailable")

// randReader is swapped in tests to simulate a failing entropy source.
var randReader io.Reader = rand.Reader

// KDFParams describes how a client reproduces the escrow key.
type KDFParams struct {
	Algorithm   string `json:"algorithm"`
	Hash        string `json:"hash"`
	Iterations  int    `json:"iterations"`
	KeyLength   int    `json:"keyLength"`
	SaltLength  int    `json:"saltLength"`
	NonceLength int    `json:"nonceLength"`
	Cipher      string `json:"cipher"`
}

// Params returns the published KDF parameters.
func Params() KDFParams {
	return KDFParams{
		Algorithm:   "PBKDF2",
		Hash:        "SHA-256",
		Iterations:  Iterations,
		KeyLength:   KeyLength,
		SaltLength:  SaltLength,
		NonceLength: NonceLength,
		Cipher:      "AES-GCM",
	}
}

// Sealed is the output of Encrypt. Ciphertext includes the GCM tag.
type Sealed struct {
	Ciphertext []byte
	Nonce      []byte
	Salt       []byte
}

// CiphertextB64 returns the ciphertext in standard base64.
func (s *Sealed) CiphertextB64() string { return base64.StdEncoding.EncodeToString(s.Ciphertext) }

// NonceB64 returns the nonce in standard base64.
func (s *Sealed) NonceB64() string { return base64.StdEncoding.EncodeToString(s.Nonce) }

// SaltB64 returns the salt in standard base64.
func (s *Sealed) SaltB64() string { return base64.StdEncoding.EncodeToString(s.Salt) }

// DeriveKey derives the AES key from the answer with PBKDF2-HMAC-SHA256.
func DeriveKey(answer string, salt []byte) []byte {
	return pbkdf2.Key([]byte(answer), salt, Iterations, KeyLength, sha256.New)
}

// Encrypt seals secret under a key derived from answer. Salt and nonce are
// fresh for every call.
func Encrypt(secret, answer string) (*Sealed, error) {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(randReader, salt); err != nil {
		return nil, fmt.Errorf("%w: reading salt: %v", ErrCryptoConfiguration, err)
	}
	nonce := make([]byte, NonceLength)
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, fmt.Errorf("%w: reading nonce: %v", ErrCryptoConfiguration, err)
	}

	aead, err := newAEAD(DeriveKey(answer, salt))
	if err != nil {
		return nil, err
	}

	return &Sealed{
		Ciphertext: aead.Seal(nil, nonce, []byte(secret), nil),
		Nonce:      nonce,
		Salt:       salt,
	}, nil
}

// CheckPrimitives verifies at startup that AES-GCM and the random source
// work, so registration never runs against a broken setup.
func CheckPrimitives() error {
	key := make([]byte, KeyLength)
	if _, err := io.ReadFull(randReader, key); err != nil {
		return fmt.Errorf("%w: random source: %v", ErrCryptoConfiguration, err)
	}
	aead, err := newAEAD(key)
	if err != nil {
		return err
	}
	if aead.NonceSize() != NonceLength {
		return fmt.Errorf("%w: unexpected GCM nonce size %d", ErrCryptoConfiguration, aead.NonceSize())
	}
	return nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: aes: %v", ErrCryptoConfiguration, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: gcm: %v", ErrCryptoConfiguration, err)
	}
	return aead, nil
}
