// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package nominee_test

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"testing"

	"codeberg.org/walletsurance/nominee/internal/metrics"
	"codeberg.org/walletsurance/nominee/internal/models"
	"codeberg.org/walletsurance/nominee/internal/services/escrow"
	"codeberg.org/walletsurance/nominee/internal/services/ledger"
	"codeberg.org/walletsurance/nominee/internal/services/nominee"
	"codeberg.org/walletsurance/nominee/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() nominee.RegisterParams {
	return nominee.RegisterParams{
		DepositorAccountID: testutil.DepositorID,
		BeneficiaryPhone:   "+15551234567",
		Question:           "Name of our first dog?",
		Answer:             "rex",
	}
}

func intPtr(v int) *int { return &v }

func open(t *testing.T, n *models.Nominee, answer string) (string, error) {
	t.Helper()
	dec := func(s string) []byte {
		b, err := base64.StdEncoding.DecodeString(s)
		require.NoError(t, err)
		return b
	}
	block, err := aes.NewCipher(escrow.DeriveKey(answer, dec(n.SaltB64)))
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	plain, err := gcm.Open(nil, dec(n.NonceB64), dec(n.CiphertextB64), nil)
	return string(plain), err
}

func newService(t *testing.T) (*nominee.Service, *metrics.Metrics) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	m := metrics.New()
	return nominee.NewService(repo, 30, m), m
}

func TestRegister(t *testing.T) {
	svc, m := newService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, validParams())

	require.NoError(t, err)
	assert.True(t, ledger.IsAccountID(res.SweepPublicKey))
	assert.Equal(t, res.SweepPublicKey, res.Nominee.SweepPublicKey)
	assert.Equal(t, 30, res.Nominee.InactivityDays)
	assert.Nil(t, res.Nominee.BeneficiaryAddress)

	stored, err := svc.GetByDepositor(ctx, testutil.DepositorID)
	require.NoError(t, err)
	assert.Equal(t, "Name of our first dog?", stored.Question)
	assert.InDelta(t, 1, promtest.ToFloat64(m.Registrations), 0)

	seed, err := open(t, stored, "rex")
	require.NoError(t, err)
	assert.Len(t, seed, ledger.AccountIDLength)
	assert.Equal(t, byte('S'), seed[0])

	_, err = open(t, stored, "max")
	assert.Error(t, err)
}

func TestRegister_TrimsInput(t *testing.T) {
	svc, _ := newService(t)
	params := validParams()
	params.DepositorAccountID = "  " + testutil.DepositorID + " "
	params.BeneficiaryPhone = "+1 (555) 123-4567"
	params.Answer = " rex "
	params.BeneficiaryAddress = " " + testutil.AccountID("C") + " "

	res, err := svc.Register(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, testutil.DepositorID, res.Nominee.DepositorAccountID)
	assert.Equal(t, "+15551234567", res.Nominee.BeneficiaryPhone)
	require.NotNil(t, res.Nominee.BeneficiaryAddress)
	assert.Equal(t, testutil.AccountID("C"), *res.Nominee.BeneficiaryAddress)

	seed, err := open(t, res.Nominee, "rex")
	require.NoError(t, err)
	assert.NotEmpty(t, seed)
}

func TestRegister_InactivityDays(t *testing.T) {
	svc, _ := newService(t)

	params := validParams()
	params.InactivityDays = intPtr(0)
	res, err := svc.Register(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Nominee.InactivityDays)

	params.InactivityDays = intPtr(7)
	res, err = svc.Register(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Nominee.InactivityDays)

	params.InactivityDays = intPtr(models.MaxInactivityDays)
	res, err = svc.Register(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, models.MaxInactivityDays, res.Nominee.InactivityDays)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*nominee.RegisterParams)
		field  string
	}{
		{"missing depositor", func(p *nominee.RegisterParams) { p.DepositorAccountID = "" }, "depositor_account_id"},
		{"short depositor", func(p *nominee.RegisterParams) { p.DepositorAccountID = "GABC" }, "depositor_account_id"},
		{"seed as depositor", func(p *nominee.RegisterParams) { p.DepositorAccountID = "S" + testutil.DepositorID[1:] }, "depositor_account_id"},
		{"missing phone", func(p *nominee.RegisterParams) { p.BeneficiaryPhone = " " }, "beneficiary_phone"},
		{"phone without plus", func(p *nominee.RegisterParams) { p.BeneficiaryPhone = "15551234567" }, "beneficiary_phone"},
		{"phone too short", func(p *nominee.RegisterParams) { p.BeneficiaryPhone = "+1555" }, "beneficiary_phone"},
		{"phone with letters", func(p *nominee.RegisterParams) { p.BeneficiaryPhone = "+1555CALLME" }, "beneficiary_phone"},
		{"missing question", func(p *nominee.RegisterParams) { p.Question = "" }, "question"},
		{"blank answer", func(p *nominee.RegisterParams) { p.Answer = "   " }, "answer"},
		{"bad beneficiary address", func(p *nominee.RegisterParams) { p.BeneficiaryAddress = "not-an-address" }, "beneficiary_stellar_address"},
		{"negative days", func(p *nominee.RegisterParams) { p.InactivityDays = intPtr(-1) }, "inactivity_days"},
		{"days above maximum", func(p *nominee.RegisterParams) { p.InactivityDays = intPtr(models.MaxInactivityDays + 1) }, "inactivity_days"},
		{"days past duration range", func(p *nominee.RegisterParams) { p.InactivityDays = intPtr(200000) }, "inactivity_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			params := validParams()
			tt.mutate(&params)

			_, err := svc.Register(context.Background(), params)

			require.ErrorIs(t, err, nominee.ErrValidation)
			var verr *nominee.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)

			_, err = svc.GetByDepositor(context.Background(), testutil.DepositorID)
			assert.ErrorIs(t, err, nominee.ErrNotFound)
		})
	}
}

func TestRegister_ReplacesEscrow(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := nominee.NewService(repo, 30, nil)
	ctx := context.Background()

	first, err := svc.Register(ctx, validParams())
	require.NoError(t, err)
	created, err := repo.CreateClaimIfAbsent(ctx, first.Nominee.ID, "outstanding-token")
	require.NoError(t, err)
	require.True(t, created)

	params := validParams()
	params.Answer = "max"
	params.Question = "Second dog?"
	second, err := svc.Register(ctx, params)
	require.NoError(t, err)

	assert.NotEqual(t, first.SweepPublicKey, second.SweepPublicKey)
	count, err := repo.CountNominees(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := svc.GetByDepositor(ctx, testutil.DepositorID)
	require.NoError(t, err)
	assert.Equal(t, "Second dog?", stored.Question)
	_, err = open(t, stored, "rex")
	assert.Error(t, err)
	_, err = open(t, stored, "max")
	assert.NoError(t, err)

	claims, err := repo.CountClaims(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), claims)
}

func TestRegister_KeypairFailure(t *testing.T) {
	svc, _ := newService(t)
	svc.WithKeypairFunc(func() (*ledger.Keypair, error) {
		return nil, errors.New("entropy exhausted")
	})

	_, err := svc.Register(context.Background(), validParams())

	assert.ErrorIs(t, err, escrow.ErrCryptoConfiguration)
}

func TestGetByDepositor_NotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.GetByDepositor(context.Background(), testutil.AccountID("Z"))

	assert.ErrorIs(t, err, nominee.ErrNotFound)
}

func TestList(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := nominee.NewService(repo, 30, nil)
	ctx := context.Background()

	a := testutil.NewTestNominee(t, repo, testutil.AccountID("C"), 30)
	testutil.NewTestNominee(t, repo, testutil.AccountID("D"), 30)
	_, err := repo.CreateClaimIfAbsent(ctx, a.ID, "token-a")
	require.NoError(t, err)

	list, err := svc.List(ctx)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].HasClaim)
	assert.False(t, list[1].HasClaim)
}
