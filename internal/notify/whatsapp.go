// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
)

// WhatsAppConfig holds settings for the WhatsApp sender. PrimaryURL points at
// the in-house messaging service; the UltraMsg fields configure the hosted
// fallback used when the primary is down.
type WhatsAppConfig struct {
	PrimaryURL       string
	PrimaryToken     string
	UltraMsgInstance string
	UltraMsgToken    string
}

// WhatsAppSender posts messages to the primary messaging service and falls
// back to UltraMsg when the primary fails.
type WhatsAppSender struct {
	cfg    WhatsAppConfig
	client *http.Client
}

// NewWhatsAppSender creates a WhatsAppSender.
func NewWhatsAppSender(cfg WhatsAppConfig) (*WhatsAppSender, error) {
	if cfg.PrimaryURL == "" && cfg.UltraMsgInstance == "" {
		return nil, oops.Code("WHATSAPP_CONFIG_INVALID").
			Errorf("at least one whatsapp delivery endpoint is required")
	}
	return &WhatsAppSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 8 * time.Second},
	}, nil
}

// Send delivers one message, trying the primary service first.
func (s *WhatsAppSender) Send(ctx context.Context, phoneNumber, body string) error {
	if s.cfg.PrimaryURL != "" {
		err := s.sendPrimary(ctx, phoneNumber, body)
		if err == nil {
			return nil
		}
		if s.cfg.UltraMsgInstance == "" {
			return err
		}
	}
	return s.sendUltraMsg(ctx, phoneNumber, body)
}

func (s *WhatsAppSender) sendPrimary(ctx context.Context, phoneNumber, body string) error {
	payload, err := json.Marshal(map[string]string{
		"phone":   phoneNumber,
		"message": body,
	})
	if err != nil {
		return oops.Code("WHATSAPP_PAYLOAD_INVALID").Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.PrimaryURL, bytes.NewReader(payload))
	if err != nil {
		return oops.Code("WHATSAPP_REQUEST_INVALID").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.PrimaryToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.PrimaryToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return oops.Code("WHATSAPP_PRIMARY_FAILED").Wrap(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= 300 {
		return oops.Code("WHATSAPP_PRIMARY_FAILED").
			With("status", resp.StatusCode).
			Errorf("primary messaging service answered %d", resp.StatusCode)
	}
	return nil
}

func (s *WhatsAppSender) sendUltraMsg(ctx context.Context, phoneNumber, body string) error {
	endpoint := fmt.Sprintf("https://api.ultramsg.com/%s/messages/chat", s.cfg.UltraMsgInstance)
	form := url.Values{
		"token": {s.cfg.UltraMsgToken},
		"to":    {phoneNumber},
		"body":  {body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return oops.Code("WHATSAPP_REQUEST_INVALID").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return oops.Code("WHATSAPP_FALLBACK_FAILED").Wrap(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= 300 {
		return oops.Code("WHATSAPP_FALLBACK_FAILED").
			With("status", resp.StatusCode).
			Errorf("ultramsg answered %d", resp.StatusCode)
	}
	return nil
}

// drainAndClose lets the transport reuse the connection.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body) //nolint:errcheck // best-effort drain
	_ = body.Close()                 //nolint:errcheck
}
