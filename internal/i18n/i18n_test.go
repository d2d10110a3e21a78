// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"github.com/lqhuy/langcenter/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestMain(m *testing.M) {
	if err := i18n.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func TestTDefaultsToVietnamese(t *testing.T) {
	msg := i18n.T(context.Background(), "login_success")
	assert.Equal(t, "Đăng nhập thành công", msg)
}

func TestTEnglishLocale(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), language.English)
	msg := i18n.T(ctx, "login_success")
	assert.Equal(t, "Login successful", msg)
}

func TestTUnknownMessageReturnsID(t *testing.T) {
	msg := i18n.T(context.Background(), "no_such_message")
	assert.Equal(t, "no_such_message", msg)
}

func TestTData(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), language.English)
	msg := i18n.TData(ctx, "email_otp_body", map[string]any{"Code": "123456", "Minutes": 10})
	assert.Contains(t, msg, "123456")
	assert.Contains(t, msg, "10 minutes")
}

func TestMatchLanguage(t *testing.T) {
	require.Equal(t, language.Vietnamese, i18n.MatchLanguage("vi-VN,vi;q=0.9"))
	assert.Equal(t, language.English, i18n.MatchLanguage("en-US,en;q=0.9"))
	// Unknown languages fall back to the default.
	assert.Equal(t, language.Vietnamese, i18n.MatchLanguage("fr-FR"))
}

func TestGetLocale(t *testing.T) {
	assert.Equal(t, "vi", i18n.GetLocale(context.Background()))
	ctx := i18n.WithLocale(context.Background(), language.English)
	assert.Equal(t, "en", i18n.GetLocale(ctx))
}
