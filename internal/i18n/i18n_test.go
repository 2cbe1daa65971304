// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"codeberg.org/walletsurance/nominee/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInit(t *testing.T) {
	require.NoError(t, i18n.Init())
	require.NoError(t, i18n.Init())
}

func TestT(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "Invalid or expired claim link", i18n.T(ctx, "error_not_found"))
}

func TestT_German(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.German)

	assert.Equal(t, "Ungültiger oder abgelaufener Link", i18n.T(ctx, "error_not_found"))
}

func TestT_UnknownKey(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	// Should return the key itself for unknown messages
	result := i18n.T(ctx, "unknown_key_that_does_not_exist")
	assert.Equal(t, "unknown_key_that_does_not_exist", result)
}

func TestT_NoLocaleContext(t *testing.T) {
	require.NoError(t, i18n.Init())

	// Without WithLocale, should fallback to English
	result := i18n.T(context.Background(), "error_internal")
	assert.Equal(t, "Internal server error", result)
}

func TestTData(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	result := i18n.TData(ctx, "claim_sms_body", map[string]any{"Link": "https://example.com/claim/abc"})
	assert.Contains(t, result, "https://example.com/claim/abc")

	result = i18n.TData(ctx, "claim_sms_question", map[string]any{"Question": "First pet?"})
	assert.Equal(t, "Security question: First pet?", result)
}

func TestTranslationsComplete(t *testing.T) {
	require.NoError(t, i18n.Init())

	ids := []string{
		"claim_sms_body", "claim_sms_question", "claim_mail_subject",
		"register_instruction", "register_success", "check_complete",
		"error_validation", "error_not_found", "error_account_not_found", "error_unavailable",
		"error_upstream", "error_crypto", "error_internal",
	}
	for _, tag := range []language.Tag{language.English, language.German} {
		ctx := i18n.WithLocale(context.Background(), tag)
		for _, id := range ids {
			assert.NotEqual(t, id, i18n.T(ctx, id), "%s missing for %s", id, tag)
		}
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		expected       language.Tag
		acceptLanguage string
	}{
		{language.English, "en"},
		{language.English, "en-US"},
		{language.German, "de"},
		{language.German, "de-DE"},
		{language.German, "de-CH"},
		{language.English, "fr"}, // fallback to English
		{language.English, ""},   // empty defaults to English
		{language.German, "de, en;q=0.9"},
		{language.English, "en, de;q=0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.acceptLanguage, func(t *testing.T) {
			assert.Equal(t, tt.expected.String(), i18n.MatchLanguage(tt.acceptLanguage).String())
		})
	}
}

func TestWithLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.German)

	locale := i18n.GetLocale(ctx)
	assert.Equal(t, "de", locale)
}

func TestGetLocale_Default(t *testing.T) {
	ctx := context.Background()

	// Without WithLocale, should return "en"
	assert.Equal(t, "en", i18n.GetLocale(ctx))
}
