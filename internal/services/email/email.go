// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

// Package email delivers one-time codes over SMTP.
package email

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/lqhuy/langcenter/internal/config"
	"github.com/lqhuy/langcenter/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service sends account emails through the configured SMTP relay.
type Service struct {
	cfg  *config.SMTPConfig
	tmpl *template.Template
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing email templates: %w", err)
	}

	return &Service{cfg: cfg, tmpl: tmpl}, nil
}

// ComposeOTP renders the localized subject, plain-text body and HTML body for
// a one-time code email.
func (s *Service) ComposeOTP(ctx context.Context, code string, ttl time.Duration) (subject, text, html string, err error) {
	minutes := int(ttl.Minutes())
	subject = i18n.T(ctx, "email_otp_subject")
	text = i18n.TData(ctx, "email_otp_body", map[string]any{
		"Code":    code,
		"Minutes": minutes,
	})

	var buf strings.Builder
	err = s.tmpl.ExecuteTemplate(&buf, "otp.html", map[string]any{
		"Subject": subject,
		"Code":    code,
		"Minutes": minutes,
	})
	if err != nil {
		return "", "", "", fmt.Errorf("rendering otp template: %w", err)
	}
	return subject, text, buf.String(), nil
}

// SendOTP emails a one-time code valid for ttl.
func (s *Service) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	subject, text, html, err := s.ComposeOTP(ctx, code, ttl)
	if err != nil {
		return err
	}
	return s.send(to, subject, text, html)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(to, subject, text, html string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Implicit TLS (SSL) for port 465, STARTTLS for others.
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
