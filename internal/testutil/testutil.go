// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/walletsurance/nominee/internal/database"
	"codeberg.org/walletsurance/nominee/internal/models"
	"codeberg.org/walletsurance/nominee/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// DepositorID is a valid depositor account ID.
var DepositorID = AccountID("A")

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.New(db)
}

// AccountID returns a valid account ID whose key bytes repeat letter.
// Different letters give different accounts.
func AccountID(letter string) string {
	id, err := strkey.Encode(strkey.VersionByteAccountID, bytes.Repeat([]byte(letter), 32))
	if err != nil {
		panic(err)
	}
	return id
}

// NewTestNominee stores a nominee with placeholder escrow material.
func NewTestNominee(t *testing.T, repo *repository.Repository, depositor string, inactivityDays int) *models.Nominee {
	t.Helper()
	n := &models.Nominee{
		DepositorAccountID: depositor,
		SweepPublicKey:     AccountID("B"),
		CiphertextB64:      "cipher",
		NonceB64:           "nonce",
		SaltB64:            "salt",
		Question:           "Test?",
		BeneficiaryPhone:   "+15551234567",
		InactivityDays:     inactivityDays,
	}
	require.NoError(t, repo.UpsertNominee(context.Background(), n))
	return n
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
