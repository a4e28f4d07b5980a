// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/refugia/authd/internal/accounts"
	"github.com/refugia/authd/internal/auth"
	authpg "github.com/refugia/authd/internal/auth/postgres"
	"github.com/refugia/authd/internal/config"
	"github.com/refugia/authd/internal/httpapi"
	"github.com/refugia/authd/internal/logging"
	"github.com/refugia/authd/internal/notify"
	"github.com/refugia/authd/internal/observability"
	"github.com/refugia/authd/internal/store"
	"github.com/refugia/authd/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the HTTP API and the observability endpoints, connect to
PostgreSQL, and serve until interrupted.`,
		RunE: runServe,
	}

	cmd.Flags().String("server.addr", "", "HTTP listen address")
	cmd.Flags().String("metrics.addr", "", "observability listen address")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("authd", version, cfg.Log.Format)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	codec, err := auth.NewTokenCodec(cfg.Auth.Secret)
	if err != nil {
		return err
	}
	sessions := authpg.NewSessionRepository(pool)
	accountStatus := authpg.NewAccountRepository(pool)

	authenticator, err := auth.NewAuthenticator(codec, sessions, accountStatus)
	if err != nil {
		return err
	}
	issuer, err := auth.NewIssuer(codec, sessions, cfg.Auth.SessionTTL())
	if err != nil {
		return err
	}

	obs := observability.NewServer(cfg.Metrics.Addr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})
	obsErrs, err := obs.Start()
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obs.Stop(stopCtx); err != nil {
			errutil.LogError(logger, "observability shutdown failed", err)
		}
	}()

	dispatcher := notify.NewDispatcher(
		buildEmailSender(cfg.SMTP, logger),
		buildWhatsAppSender(cfg.WhatsApp, logger),
		obs.Metrics(), logger)
	defer dispatcher.Close()

	service, err := accounts.NewService(
		accounts.NewProcs(pool),
		auth.NewArgon2idHasher(),
		issuer,
		dispatcher,
		logger)
	if err != nil {
		return err
	}

	api, err := httpapi.NewServer(
		httpapi.Config{AllowedOrigins: cfg.Server.AllowedOrigins},
		service, authenticator, issuer.TTL(), obs.Metrics(), logger)
	if err != nil {
		return err
	}

	apiErrs := make(chan error, 1)
	go func() {
		apiErrs <- api.Listen(cfg.Server.Addr)
	}()

	logger.Info("authd started",
		"addr", cfg.Server.Addr,
		"metrics_addr", obs.Addr(),
		"session_ttl", issuer.TTL())

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-apiErrs:
		if err != nil {
			return oops.Code("SERVE_FAILED").Wrap(err)
		}
		return nil
	case err := <-obsErrs:
		if err != nil {
			return oops.Code("SERVE_FAILED").With("component", "observability").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		errutil.LogError(logger, "HTTP shutdown failed", err)
	}
	return nil
}

// buildEmailSender returns nil when SMTP is not configured; the dispatcher
// drops email deliveries in that case.
func buildEmailSender(cfg config.SMTPConfig, logger *slog.Logger) notify.EmailSender {
	if cfg.Host == "" {
		logger.Warn("smtp.host not set, email delivery disabled")
		return nil
	}
	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
	if err != nil {
		errutil.LogError(logger, "smtp sender misconfigured, email delivery disabled", err)
		return nil
	}
	return sender
}

// buildWhatsAppSender returns nil when no WhatsApp endpoint is configured.
func buildWhatsAppSender(cfg config.WhatsAppConfig, logger *slog.Logger) notify.MessageSender {
	if cfg.PrimaryURL == "" && cfg.UltraMsgInstance == "" {
		logger.Warn("no whatsapp endpoint set, message delivery disabled")
		return nil
	}
	sender, err := notify.NewWhatsAppSender(notify.WhatsAppConfig{
		PrimaryURL:       cfg.PrimaryURL,
		PrimaryToken:     cfg.PrimaryToken,
		UltraMsgInstance: cfg.UltraMsgInstance,
		UltraMsgToken:    cfg.UltraMsgToken,
	})
	if err != nil {
		errutil.LogError(logger, "whatsapp sender misconfigured, message delivery disabled", err)
		return nil
	}
	return sender
}
