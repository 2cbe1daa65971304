// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/walletsurance/nominee/internal/config"
	"codeberg.org/walletsurance/nominee/internal/database"
	"codeberg.org/walletsurance/nominee/internal/i18n"
	"codeberg.org/walletsurance/nominee/internal/services/ledger"
	ledgermocks "codeberg.org/walletsurance/nominee/internal/services/ledger/mocks"
	"codeberg.org/walletsurance/nominee/internal/services/notify"
	notifymocks "codeberg.org/walletsurance/nominee/internal/services/notify/mocks"
	"codeberg.org/walletsurance/nominee/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testApp struct {
	app      *App
	oracle   *ledgermocks.MockOracle
	accounts *ledgermocks.MockAccountReader
	relay    *ledgermocks.MockRelay
	signers  *ledgermocks.MockSignerBuilder
	notifier *notifymocks.MockNotifier
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 8080, BaseURL: "http://localhost:8080", MaxBodySize: 1},
		Ledger: config.LedgerConfig{
			HorizonURL:        "https://horizon-testnet.stellar.org",
			NetworkPassphrase: "Test SDF Network ; September 2015",
			Timeout:           time.Second,
		},
		Monitor: config.MonitorConfig{
			DefaultInactivityDays: 30,
			MissingActivity:       "inactive",
			Concurrency:           2,
			CollaboratorTimeout:   time.Second,
		},
		Claim:   config.ClaimConfig{BaseURL: "http://localhost:8080"},
		SMS:     config.SMSConfig{Provider: "log", Locale: "en"},
		Offramp: config.OfframpConfig{RateXLMINR: 10.5},
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	require.NoError(t, i18n.Init())
	ctrl := gomock.NewController(t)
	db, _ := testutil.NewTestDB(t)

	ta := &testApp{
		oracle:   ledgermocks.NewMockOracle(ctrl),
		accounts: ledgermocks.NewMockAccountReader(ctrl),
		relay:    ledgermocks.NewMockRelay(ctrl),
		signers:  ledgermocks.NewMockSignerBuilder(ctrl),
		notifier: notifymocks.NewMockNotifier(ctrl),
	}
	app, err := NewApp(testConfig(), db, Collaborators{
		Oracle:   ta.oracle,
		Accounts: ta.accounts,
		Relay:    ta.relay,
		Signers:  ta.signers,
		Notifier: ta.notifier,
	})
	require.NoError(t, err)
	ta.app = app
	return ta
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := testutil.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestNewApp_BuildsCollaboratorsFromConfig(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	app, err := NewApp(testConfig(), db, Collaborators{})
	require.NoError(t, err)
	assert.NotNil(t, app.Monitor)
	assert.NotNil(t, app.Claims)
}

func TestNewApp_MisconfiguredProvider(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := testConfig()
	cfg.SMS.Provider = "twilio"

	_, err = NewApp(cfg, db, Collaborators{})
	assert.ErrorIs(t, err, notify.ErrNotConfigured)
}

func TestRoutes_ClaimFlow(t *testing.T) {
	ta := newTestApp(t)
	e := newEcho(ta.app)

	register := fmt.Sprintf(`{"depositor_account_id": %q, "beneficiary_phone": "+15551234567",
		"question": "First pet?", "answer": "rex", "inactivity_days": 0}`, testutil.DepositorID)
	rec, out := do(t, e, http.MethodPost, "/api/nominee/register", register)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sweepKey, _ := out["sweep_public_key"].(string)
	require.NotEmpty(t, sweepKey)

	ta.signers.EXPECT().BuildAddSigner(gomock.Any(), testutil.DepositorID, sweepKey).Return("AAAAsetoptions", nil)
	cosign := fmt.Sprintf(`{"account_public_key": %q, "signer_public_key": %q}`, testutil.DepositorID, sweepKey)
	rec, out = do(t, e, http.MethodPost, "/api/build-add-signer", cosign)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "AAAAsetoptions", out["transaction_xdr"])

	rec, out = do(t, e, http.MethodGet, "/api/nominee/"+testutil.DepositorID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sweepKey, out["sweep_public_key"])
	assert.NotContains(t, out, "question")

	var delivered notify.Message
	ta.oracle.EXPECT().LastActivity(gomock.Any(), testutil.DepositorID).Return(time.Time{}, false, nil)
	ta.notifier.EXPECT().SendClaim(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg notify.Message) error {
			delivered = msg
			return nil
		})

	rec, out = do(t, e, http.MethodGet, "/api/agent/check-nominees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out["sms_sent"])
	require.NotEmpty(t, delivered.Token)
	assert.Equal(t, "First pet?", delivered.QuestionPreview)

	ta.accounts.EXPECT().Account(gomock.Any(), testutil.DepositorID).Return(json.RawMessage(`{"id":"x"}`), nil)
	rec, out = do(t, e, http.MethodGet, "/api/claim/data/"+delivered.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "First pet?", out["question"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotNil(t, out["account"])

	ta.relay.EXPECT().SubmitTransaction(gomock.Any(), "AAAA").Return(&ledger.SubmitResult{Hash: "deadbeef"}, nil)
	submit := fmt.Sprintf(`{"signed_envelope_xdr": "AAAA", "claim_token": %q}`, delivered.Token)
	rec, out = do(t, e, http.MethodPost, "/api/claim/submit", submit)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deadbeef", out["hash"])

	// A second pass leaves the existing claim alone.
	rec, out = do(t, e, http.MethodPost, "/api/agent/check-nominees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, out["sms_sent"])
	assert.EqualValues(t, 1, out["already_issued_count"])
}

func TestRoutes_Endpoints(t *testing.T) {
	ta := newTestApp(t)
	e := newEcho(ta.app)

	tests := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{"health", http.MethodGet, "/health", http.StatusOK, ""},
		{"ready", http.MethodGet, "/ready", http.StatusOK, ""},
		{"kdf", http.MethodGet, "/api/claim/kdf", http.StatusOK, ""},
		{"unknown claim", http.MethodGet, "/api/claim/data/unknown", http.StatusNotFound, "not_found"},
		{"unknown nominee", http.MethodGet, "/api/nominee/" + testutil.DepositorID, http.StatusNotFound, "not_found"},
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound, "not_found"},
		{"wrong method", http.MethodDelete, "/api/claim/kdf", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"submit without envelope", http.MethodPost, "/api/submit", http.StatusBadRequest, "validation_error"},
		{"add signer without keys", http.MethodPost, "/api/build-add-signer", http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, e, tt.method, tt.path, "")

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, out["code"])
			}
		})
	}
}

func TestRoutes_BodyLimit(t *testing.T) {
	ta := newTestApp(t)
	e := newEcho(ta.app)

	big := `{"answer": "` + string(bytes.Repeat([]byte("a"), 2<<20)) + `"}`
	rec, out := do(t, e, http.MethodPost, "/api/nominee/register", big)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "validation_error", out["code"])
}

func TestRoutes_Metrics(t *testing.T) {
	ta := newTestApp(t)
	e := newEcho(ta.app)

	register := fmt.Sprintf(`{"depositor_account_id": %q, "beneficiary_phone": "+15551234567",
		"question": "Q?", "answer": "a"}`, testutil.DepositorID)
	rec, _ := do(t, e, http.MethodPost, "/api/nominee/register", register)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nominee_registrations_total 1")
}
