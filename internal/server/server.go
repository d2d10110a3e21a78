// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

// Package server wires configuration, database, services and routes together
// and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"github.com/lqhuy/langcenter/internal/config"
	"github.com/lqhuy/langcenter/internal/credcache"
	"github.com/lqhuy/langcenter/internal/database"
	"github.com/lqhuy/langcenter/internal/handlers"
	"github.com/lqhuy/langcenter/internal/i18n"
	"github.com/lqhuy/langcenter/internal/repository"
	"github.com/lqhuy/langcenter/internal/services/auth"
	"github.com/lqhuy/langcenter/internal/services/email"
	"github.com/lqhuy/langcenter/internal/userconn"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"password_mode", cfg.Auth.PasswordMode,
	)

	// Database
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// Migrations
	if migrateErr := database.RunMigrations(db.DB); migrateErr != nil {
		return fmt.Errorf("failed to migrate database: %w", migrateErr)
	}

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Per-user connections share the admin DSN's server and database.
	connector, err := database.NewConnector(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to build connector: %w", err)
	}

	repo := repository.New(db)
	cache := credcache.New()
	resolver := userconn.New(cache, repo, connector)

	var verifier auth.CredentialVerifier
	if cfg.Auth.PasswordMode == config.PasswordModeProbe {
		verifier = auth.ProbeVerifier{Connector: connector}
	} else {
		verifier = auth.StoredVerifier{}
	}

	mailer, err := newMailer(&cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to init mailer: %w", err)
	}

	authSvc := auth.New(repo, cache, verifier, mailer, &cfg.Auth)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	setupRoutes(e, repo, authSvc, resolver)

	return startWithGracefulShutdown(ctx, e, cfg)
}

func setupRoutes(e *echo.Echo, repo *repository.Repository, authSvc *auth.Service, resolver *userconn.Resolver) {
	h := handlers.New(repo, authSvc, resolver)

	e.GET("/health", h.Health)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Login)
	authGroup.POST("/register", h.Register)
	authGroup.POST("/verify-otp", h.VerifyOTP)
	authGroup.POST("/resend-otp", h.ResendOTP)
	authGroup.POST("/logout", h.Logout)
	authGroup.POST("/forgot-password", h.ForgotPassword)
	authGroup.POST("/reset-password", h.ResetPassword)
	authGroup.GET("/check-session", h.CheckSession)

	api.GET("/courses", h.ListCourses)
	api.POST("/courses", h.CreateCourse)
	api.GET("/courses/:id", h.GetCourse)
	api.PUT("/courses/:id", h.UpdateCourse)
	api.DELETE("/courses/:id", h.DeleteCourse)

	api.GET("/students", h.ListStudents)

	api.GET("/profile", h.Profile)
	api.PUT("/profile", h.UpdateProfile)
}

// newMailer returns the SMTP sender, or a log-only fallback when no SMTP host
// is configured so development setups can run without a relay.
func newMailer(cfg *config.SMTPConfig) (auth.Mailer, error) {
	if cfg.Host == "" {
		slog.Warn("no SMTP host configured, OTP codes are logged instead of emailed")
		return logMailer{}, nil
	}
	return email.NewService(cfg)
}

type logMailer struct{}

func (logMailer) SendOTP(_ context.Context, to, code string, ttl time.Duration) error {
	slog.Info("otp_code", "to", to, "code", code, "valid_for", ttl)
	return nil
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
