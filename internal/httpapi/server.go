// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

// Package httpapi exposes the account and session operations over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/samber/oops"

	"github.com/refugia/authd/internal/accounts"
	"github.com/refugia/authd/internal/auth"
	"github.com/refugia/authd/internal/observability"
)

// accountService is the account flow surface the handlers depend on.
type accountService interface {
	Login(ctx context.Context, email, password string, meta auth.RequestMetadata) (*accounts.AuthResult, error)
	RegisterDonor(ctx context.Context, input accounts.DonorRegistration) (string, error)
	RegisterShelter(ctx context.Context, input accounts.ShelterRegistration) (string, error)
	VerifyEmail(ctx context.Context, email, code string, meta auth.RequestMetadata) (*accounts.AuthResult, error)
	ResendVerificationCode(ctx context.Context, email string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	VerifyResetCode(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (string, error)
	UserHeader(ctx context.Context, userID string) (*accounts.HeaderData, error)
}

// authenticator validates a presented token end to end.
type authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// Config holds HTTP server settings.
type Config struct {
	// AllowedOrigins is the CORS allow-list. Credentialed requests forbid a
	// wildcard, so the list must be explicit.
	AllowedOrigins []string
}

// Server is the public HTTP API.
type Server struct {
	app       *fiber.App
	svc       accountService
	authn     authenticator
	cookieTTL time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewServer builds the fiber app and registers all routes.
// metrics may be nil; recording is skipped.
func NewServer(cfg Config, svc accountService, authn authenticator, cookieTTL time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, oops.Code("HTTP_NIL_DEPENDENCY").Errorf("account service is required")
	}
	if authn == nil {
		return nil, oops.Code("HTTP_NIL_DEPENDENCY").Errorf("authenticator is required")
	}
	if cookieTTL <= 0 {
		cookieTTL = auth.DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		app:       fiber.New(fiber.Config{AppName: "authd"}),
		svc:       svc,
		authn:     authn,
		cookieTTL: cookieTTL,
		metrics:   metrics,
		logger:    logger,
	}

	s.app.Use(requestid.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{fiber.HeaderContentType},
		AllowMethods:     []string{fiber.MethodGet, fiber.MethodPost},
	}))

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", s.handleLogin)
	authGroup.Post("/register/donor", s.handleRegisterDonor)
	authGroup.Post("/register/shelter", s.handleRegisterShelter)
	authGroup.Post("/verify-email", s.handleVerifyEmail)
	authGroup.Post("/resend-code", s.handleResendCode)
	authGroup.Post("/password-reset/request", s.handleResetRequest)
	authGroup.Post("/password-reset/verify", s.handleResetVerify)
	authGroup.Post("/password-reset/confirm", s.handleResetConfirm)

	me := api.Group("/me", s.requireAuth)
	me.Get("/header", s.handleMeHeader)
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	if err := s.app.Listen(addr); err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", addr).Wrap(err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}
