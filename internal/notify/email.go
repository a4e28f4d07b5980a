// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/samber/oops"
)

// SMTPConfig holds relay settings for the email sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers email through an authenticated SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, oops.Code("SMTP_CONFIG_INVALID").Errorf("smtp host and port are required")
	}
	if cfg.From == "" {
		return nil, oops.Code("SMTP_CONFIG_INVALID").Errorf("smtp from address is required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send delivers one plain-text message. The ctx deadline is honored only up
// to connection setup; smtp.SendMail itself is not cancellable, which is
// acceptable here because the dispatcher already runs sends off the request
// path.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("EMAIL_SEND_CANCELLED").Wrap(err)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var a smtp.Auth
	if s.cfg.Username != "" {
		a = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, a, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return oops.Code("EMAIL_SEND_FAILED").
			With("to", to).
			With("relay", addr).
			Wrap(err)
	}
	return nil
}
