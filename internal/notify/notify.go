// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

// Package notify delivers account codes to users over email and WhatsApp.
// Delivery is fire-and-forget: the account flows never block on, or fail
// because of, a notification channel.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/refugia/authd/internal/observability"
	"github.com/refugia/authd/pkg/errutil"
)

// deliveryTimeout bounds a single delivery attempt per channel.
const deliveryTimeout = 10 * time.Second

// EmailSender delivers a rendered message to one recipient.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MessageSender delivers a short text message to a phone number.
type MessageSender interface {
	Send(ctx context.Context, phoneNumber, body string) error
}

// Dispatcher fans account notifications out to the configured channels in
// background goroutines. Close waits for in-flight deliveries, each bounded
// by the per-channel timeout.
type Dispatcher struct {
	email    EmailSender
	whatsapp MessageSender
	metrics  *observability.Metrics
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Either sender may be nil; deliveries
// for an unconfigured channel are logged and dropped, which keeps local
// development working without an SMTP relay or messaging account. metrics
// may be nil.
func NewDispatcher(email EmailSender, whatsapp MessageSender, metrics *observability.Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{email: email, whatsapp: whatsapp, metrics: metrics, logger: logger}
}

// VerificationCode sends the email verification code over every channel the
// user can be reached on.
func (d *Dispatcher) VerificationCode(email, phoneNumber, name, code string) {
	subject := "Verify your email"
	body := fmt.Sprintf("Hi %s,\n\nYour verification code is %s.\nIt expires in 24 hours.\n", name, code)
	d.deliverEmail("verification_email", email, subject, body)

	if phoneNumber != "" {
		text := fmt.Sprintf("Hi %s! Your Refugia verification code is %s.", name, code)
		d.deliverMessage("verification_whatsapp", phoneNumber, text)
	}
}

// PasswordResetCode sends the password reset code by email only; reset codes
// grant account takeover, so they go to the verified address.
func (d *Dispatcher) PasswordResetCode(email, name, code string) {
	subject := "Reset your password"
	body := fmt.Sprintf("Hi %s,\n\nYour password reset code is %s.\nIt expires in 15 minutes.\n", name, code)
	d.deliverEmail("password_reset_email", email, subject, body)
}

func (d *Dispatcher) deliverEmail(kind, to, subject, body string) {
	if d.email == nil {
		d.logger.Info("no email sender configured, dropping notification",
			"kind", kind, "to", to)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		if err := d.email.Send(ctx, to, subject, body); err != nil {
			errutil.LogError(d.logger, "email delivery failed", err)
			return
		}
		d.metrics.RecordNotification(kind)
		d.logger.Debug("email delivered", "kind", kind, "to", to)
	}()
}

func (d *Dispatcher) deliverMessage(kind, phoneNumber, body string) {
	if d.whatsapp == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		if err := d.whatsapp.Send(ctx, phoneNumber, body); err != nil {
			errutil.LogError(d.logger, "whatsapp delivery failed", err)
			return
		}
		d.metrics.RecordNotification(kind)
		d.logger.Debug("whatsapp message delivered", "kind", kind)
	}()
}

// Close waits for in-flight deliveries to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}
