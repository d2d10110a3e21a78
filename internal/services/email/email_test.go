// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package email_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/lqhuy/langcenter/internal/config"
	"github.com/lqhuy/langcenter/internal/i18n"
	"github.com/lqhuy/langcenter/internal/services/email"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Trung tâm tiếng Anh",
		TLS:      true,
	}
}

func TestNewService(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig())

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewService(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewService(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestComposeOTP(t *testing.T) {
	require.NoError(t, i18n.Init())
	svc, err := email.NewService(validSMTPConfig())
	require.NoError(t, err)

	ctx := i18n.WithLocale(context.Background(), language.Vietnamese)
	subject, text, html, err := svc.ComposeOTP(ctx, "123456", 10*time.Minute)

	require.NoError(t, err)
	assert.NotEmpty(t, subject)
	assert.Contains(t, text, "123456")
	assert.Contains(t, text, "10")
	assert.Contains(t, html, "123456")
	assert.Contains(t, html, "10 phút")
}

func TestComposeOTPEnglish(t *testing.T) {
	require.NoError(t, i18n.Init())
	svc, err := email.NewService(validSMTPConfig())
	require.NoError(t, err)

	ctx := i18n.WithLocale(context.Background(), language.English)
	_, text, _, err := svc.ComposeOTP(ctx, "654321", 10*time.Minute)

	require.NoError(t, err)
	assert.Contains(t, text, "654321")
}
