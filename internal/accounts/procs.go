// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

// Package accounts implements the account lifecycle: registration, login,
// email verification and password reset. The business rules live in database
// stored functions; this package bridges them and layers on password hashing,
// session issuance and notification dispatch.
package accounts

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// Envelope statuses returned by the stored functions.
const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusInfo  = "info"
)

// ProcResult is the JSONB envelope every account stored function returns.
type ProcResult struct {
	Status   string          `json:"status"`
	Code     int             `json:"code"`
	Message  string          `json:"message"`
	UserData json.RawMessage `json:"user_data,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// LoginUserData is the user_data payload of api_user_login_local.
type LoginUserData struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	PasswordHash  string `json:"password_hash"`
	EmailVerified bool   `json:"email_verified"`
	Active        bool   `json:"active"`
}

// VerifiedUserData is the user_data payload of api_user_verify_email_code.
type VerifiedUserData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// CodeData carries a freshly minted verification or reset code alongside the
// recipient, so the caller can dispatch the notification.
type CodeData struct {
	UserID           string `json:"user_id,omitempty"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	PhoneNumber      string `json:"phone_number,omitempty"`
	VerificationCode string `json:"verification_code,omitempty"`
	ResetCode        string `json:"reset_code,omitempty"`
}

// HeaderData is the profile summary behind api_get_user_header_data.
type HeaderData struct {
	ID                    string  `json:"id"`
	Email                 string  `json:"email"`
	Name                  string  `json:"name"`
	Lastname              *string `json:"lastname"`
	ShelterName           *string `json:"shelter_name"`
	Role                  string  `json:"role"`
	PhoneNumber           *string `json:"phone_number"`
	PreferencesCompleted  bool    `json:"preferences_completed"`
	ShowPhoneQuestionStep bool    `json:"show_phone_question_step"`
}

// queryRower is the subset of pgxpool.Pool the proc bridge uses. Satisfied by
// *pgxpool.Pool and pgxmock.PgxPoolIface.
type queryRower interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Procs invokes the account stored functions over a connection pool.
type Procs struct {
	pool queryRower
}

// NewProcs creates a new Procs bridge.
func NewProcs(pool queryRower) *Procs {
	return &Procs{pool: pool}
}

// call invokes a stored function with a JSONB payload and decodes the
// returned envelope. The function name is always one of the compile-time
// constants below, never caller input.
func (p *Procs) call(ctx context.Context, fn string, payload any) (*ProcResult, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, oops.Code("PROC_PAYLOAD_INVALID").
			With("function", fn).
			Wrap(err)
	}

	var raw []byte
	err = p.pool.QueryRow(ctx, `SELECT `+fn+`($1::jsonb)`, encoded).Scan(&raw)
	if err != nil {
		return nil, oops.Code("PROC_CALL_FAILED").
			With("function", fn).
			Wrap(err)
	}

	var result ProcResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, oops.Code("PROC_ENVELOPE_INVALID").
			With("function", fn).
			Wrap(err)
	}
	if result.Status == "" {
		return nil, oops.Code("PROC_ENVELOPE_INVALID").
			With("function", fn).
			Errorf("envelope missing status field")
	}
	return &result, nil
}

type emailPayload struct {
	Email string `json:"email"`
}

type emailCodePayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordPayload struct {
	Email        string `json:"email"`
	Code         string `json:"code"`
	PasswordHash string `json:"password_hash"`
}

// RegistrationPayload is the input to the register stored functions. The
// password arrives already hashed; plaintext never crosses into SQL.
type RegistrationPayload struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Name         string `json:"name"`
	Lastname     string `json:"lastname,omitempty"`
	ShelterName  string `json:"shelter_name,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Location     string `json:"location,omitempty"`
}

type userIDPayload struct {
	UserID string `json:"user_id"`
}

// LoginLocal looks up local credentials for an email.
func (p *Procs) LoginLocal(ctx context.Context, email string) (*ProcResult, error) {
	return p.call(ctx, "api_user_login_local", emailPayload{Email: email})
}

// RegisterDonor creates a donor account with a pending verification code.
func (p *Procs) RegisterDonor(ctx context.Context, payload RegistrationPayload) (*ProcResult, error) {
	return p.call(ctx, "api_user_register_donor", payload)
}

// RegisterShelter creates a shelter account with a pending verification code.
func (p *Procs) RegisterShelter(ctx context.Context, payload RegistrationPayload) (*ProcResult, error) {
	return p.call(ctx, "api_user_register_shelter", payload)
}

// VerifyEmailCode checks a verification code and marks the email verified.
func (p *Procs) VerifyEmailCode(ctx context.Context, email, code string) (*ProcResult, error) {
	return p.call(ctx, "api_user_verify_email_code", emailCodePayload{Email: email, Code: code})
}

// ResendVerificationCode rotates the pending verification code.
func (p *Procs) ResendVerificationCode(ctx context.Context, email string) (*ProcResult, error) {
	return p.call(ctx, "api_user_resend_verification_code", emailPayload{Email: email})
}

// RequestPasswordReset mints a short-lived password reset code.
func (p *Procs) RequestPasswordReset(ctx context.Context, email string) (*ProcResult, error) {
	return p.call(ctx, "api_user_request_password_reset", emailPayload{Email: email})
}

// VerifyPasswordResetCode checks a reset code without consuming it.
func (p *Procs) VerifyPasswordResetCode(ctx context.Context, email, code string) (*ProcResult, error) {
	return p.call(ctx, "api_user_verify_password_reset_code", emailCodePayload{Email: email, Code: code})
}

// ResetPasswordWithCode consumes a reset code and installs a new password hash.
func (p *Procs) ResetPasswordWithCode(ctx context.Context, email, code, passwordHash string) (*ProcResult, error) {
	return p.call(ctx, "api_user_reset_password_with_code", resetPasswordPayload{
		Email:        email,
		Code:         code,
		PasswordHash: passwordHash,
	})
}

// GetUserHeaderData fetches the profile summary for an authenticated user.
func (p *Procs) GetUserHeaderData(ctx context.Context, userID string) (*ProcResult, error) {
	return p.call(ctx, "api_get_user_header_data", userIDPayload{UserID: userID})
}
