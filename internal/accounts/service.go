// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package accounts

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/refugia/authd/internal/auth"
)

// MinPasswordLength is the minimum accepted password length in bytes.
const MinPasswordLength = 8

// Denial is an expected, user-attributable outcome of an account operation.
// Code is the HTTP status the API layer should answer with; Data optionally
// carries structured context for the client (e.g. the email awaiting
// verification). Anything that is not a Denial is an infrastructure fault.
type Denial struct {
	Code    int
	Message string
	Data    json.RawMessage
}

func (d *Denial) Error() string {
	return d.Message
}

// procCaller is the stored-function surface the service depends on.
type procCaller interface {
	LoginLocal(ctx context.Context, email string) (*ProcResult, error)
	RegisterDonor(ctx context.Context, payload RegistrationPayload) (*ProcResult, error)
	RegisterShelter(ctx context.Context, payload RegistrationPayload) (*ProcResult, error)
	VerifyEmailCode(ctx context.Context, email, code string) (*ProcResult, error)
	ResendVerificationCode(ctx context.Context, email string) (*ProcResult, error)
	RequestPasswordReset(ctx context.Context, email string) (*ProcResult, error)
	VerifyPasswordResetCode(ctx context.Context, email, code string) (*ProcResult, error)
	ResetPasswordWithCode(ctx context.Context, email, code, passwordHash string) (*ProcResult, error)
	GetUserHeaderData(ctx context.Context, userID string) (*ProcResult, error)
}

// sessionIssuer mints a signed token backed by a persisted session.
type sessionIssuer interface {
	Issue(ctx context.Context, userID string, meta auth.RequestMetadata) (string, *auth.Session, error)
}

// Notifier delivers account codes out of band. Implementations must not
// block; delivery failures are logged, never surfaced to the caller.
type Notifier interface {
	VerificationCode(email, phoneNumber, name, code string)
	PasswordResetCode(email, name, code string)
}

// Service orchestrates the account flows on top of the stored functions.
type Service struct {
	procs    procCaller
	hasher   auth.PasswordHasher
	issuer   sessionIssuer
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates an account Service.
func NewService(procs procCaller, hasher auth.PasswordHasher, issuer sessionIssuer, notifier Notifier, logger *slog.Logger) (*Service, error) {
	if procs == nil {
		return nil, oops.Code("ACCOUNTS_NIL_DEPENDENCY").Errorf("proc bridge is required")
	}
	if hasher == nil {
		return nil, oops.Code("ACCOUNTS_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if issuer == nil {
		return nil, oops.Code("ACCOUNTS_NIL_DEPENDENCY").Errorf("session issuer is required")
	}
	if notifier == nil {
		return nil, oops.Code("ACCOUNTS_NIL_DEPENDENCY").Errorf("notifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		procs:    procs,
		hasher:   hasher,
		issuer:   issuer,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// AuthResult is a successful sign-in: a minted token, its backing session and
// the signed-in user.
type AuthResult struct {
	Token   string
	Session *auth.Session
	User    VerifiedUserData
	Message string
}

// DonorRegistration is the input for a donor account.
type DonorRegistration struct {
	Email       string
	Password    string
	Name        string
	Lastname    string
	PhoneNumber string
	Location    string
}

// ShelterRegistration is the input for a shelter account.
type ShelterRegistration struct {
	Email       string
	Password    string
	Name        string
	ShelterName string
	PhoneNumber string
	Location    string
}

// denialFrom converts an error envelope into a Denial.
func denialFrom(res *ProcResult) *Denial {
	return &Denial{Code: res.Code, Message: res.Message, Data: res.Data}
}

// Login authenticates local credentials and mints a session on success.
// The password comparison happens here rather than in SQL so the hash
// algorithm can evolve without a schema migration.
func (s *Service) Login(ctx context.Context, email, password string, meta auth.RequestMetadata) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, &Denial{Code: 400, Message: "Email and password are required"}
	}

	res, err := s.procs.LoginLocal(ctx, email)
	if err != nil {
		return nil, oops.Code("LOGIN_LOOKUP_FAILED").Wrap(err)
	}
	if res.Status == StatusError {
		return nil, denialFrom(res)
	}

	var user LoginUserData
	if err := json.Unmarshal(res.UserData, &user); err != nil {
		return nil, oops.Code("LOGIN_ENVELOPE_INVALID").Wrap(err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("LOGIN_VERIFY_FAILED").Wrap(err)
	}
	// 400, matching the unknown-email envelope, so the two cases are
	// indistinguishable to a caller probing for registered addresses.
	if !ok {
		return nil, &Denial{Code: 400, Message: "Invalid email or password"}
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.logger.Info("password hash uses outdated parameters", "user_id", user.ID)
	}

	if !user.EmailVerified {
		data, _ := json.Marshal(map[string]string{"email": user.Email}) //nolint:errcheck // static shape
		return nil, &Denial{Code: 403, Message: "Email is not verified", Data: data}
	}

	token, session, err := s.issuer.Issue(ctx, user.ID, meta)
	if err != nil {
		return nil, oops.Code("LOGIN_ISSUE_FAILED").Wrap(err)
	}

	return &AuthResult{
		Token:   token,
		Session: session,
		User: VerifiedUserData{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
		Message: "Signed in",
	}, nil
}

// RegisterDonor creates a donor account and dispatches the verification code.
func (s *Service) RegisterDonor(ctx context.Context, input DonorRegistration) (string, error) {
	if err := validateRegistration(input.Email, input.Password, input.Name); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return "", oops.Code("REGISTER_HASH_FAILED").Wrap(err)
	}

	res, err := s.procs.RegisterDonor(ctx, RegistrationPayload{
		ID:           ulid.Make().String(),
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Lastname:     input.Lastname,
		PhoneNumber:  input.PhoneNumber,
		Location:     input.Location,
	})
	if err != nil {
		return "", oops.Code("REGISTER_FAILED").Wrap(err)
	}
	if res.Status == StatusError {
		return "", denialFrom(res)
	}

	s.dispatchVerificationCode(res)
	return res.Message, nil
}

// RegisterShelter creates a shelter account and dispatches the verification code.
func (s *Service) RegisterShelter(ctx context.Context, input ShelterRegistration) (string, error) {
	if err := validateRegistration(input.Email, input.Password, input.Name); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return "", oops.Code("REGISTER_HASH_FAILED").Wrap(err)
	}

	res, err := s.procs.RegisterShelter(ctx, RegistrationPayload{
		ID:           ulid.Make().String(),
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		ShelterName:  input.ShelterName,
		PhoneNumber:  input.PhoneNumber,
		Location:     input.Location,
	})
	if err != nil {
		return "", oops.Code("REGISTER_FAILED").Wrap(err)
	}
	if res.Status == StatusError {
		return "", denialFrom(res)
	}

	s.dispatchVerificationCode(res)
	return res.Message, nil
}

// VerifyEmail checks a verification code and signs the user in. An already
// verified account is informational, not an error: the user still gets a
// session so a double-submitted code lands them signed in, not stranded.
func (s *Service) VerifyEmail(ctx context.Context, email, code string, meta auth.RequestMetadata) (*AuthResult, error) {
	if email == "" || code == "" {
		return nil, &Denial{Code: 400, Message: "Email and verification code are required"}
	}

	res, err := s.procs.VerifyEmailCode(ctx, email, code)
	if err != nil {
		return nil, oops.Code("VERIFY_EMAIL_FAILED").Wrap(err)
	}
	if res.Status == StatusError {
		return nil, denialFrom(res)
	}

	var user VerifiedUserData
	if err := json.Unmarshal(res.UserData, &user); err != nil {
		return nil, oops.Code("VERIFY_EMAIL_ENVELOPE_INVALID").Wrap(err)
	}

	token, session, err := s.issuer.Issue(ctx, user.ID, meta)
	if err != nil {
		return nil, oops.Code("VERIFY_EMAIL_ISSUE_FAILED").Wrap(err)
	}

	return &AuthResult{
		Token:   token,
		Session: session,
		User:    user,
		Message: res.Message,
	}, nil
}

// ResendVerificationCode rotates and re-sends the verification code. If the
// account is already verified the stored function answers with an info
// envelope and no notification goes out.
func (s *Service) ResendVerificationCode(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", &Denial{Code: 400, Message: "Email is required"}
	}

	res, err := s.procs.ResendVerificationCode(ctx, email)
	if err != nil {
		return "", oops.Code("RESEND_CODE_FAILED").Wrap(err)
	}
	if res.Status == StatusError {
		return "", denialFrom(res)
	}
	if res.Status == StatusOK {
		s.dispatchVerificationCode(res)
	}
	return res.Message, nil
}

// RequestPasswordReset mints a reset code and dispatches it.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", &Denial{Code: 400, Message: "Email is required"}
	}

	res, err := s.procs.RequestPasswordReset(ctx, email)
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").Wrap(err)
	}
	if res.Status == StatusError {
		return "", denialFrom(res)
	}

	var data CodeData
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return "", oops.Code("RESET_ENVELOPE_INVALID").Wrap(err)
	}
	s.notifier.PasswordResetCode(data.Email, data.Name, data.ResetCode)
	return res.Message, nil
}

// VerifyResetCode checks a reset code without consuming it, so the client can
// gate the new-password form.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	if email == "" || code == "" {
		return "", &Denial{Code: 400, Message: "Email and reset code are required"}
	}

	res, err := s.procs.VerifyPasswordResetCode(ctx, email, code)
	if err != nil {
		return "", oops.Code("RESET_VERIFY_FAILED").Wrap(err)
	}
	if res.Status == StatusError {
		return "", denialFrom(res)
	}
	return res.Message, nil
}

// ResetPassword consumes a reset code and installs a new password.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	if email == "" || code == "" {
		return "", &Denial{Code: 400, Message: "Email and reset code are required"}
	}
	if len(newPassword) < MinPasswordLength {
		return "", &Denial{Code: 400, Message: "Password must be at least 8 characters"}
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", oops.Code("RESET_HASH_FAILED").Wrap(err)
	}

	res, err := s.procs.ResetPasswordWithCode(ctx, email, code, hash)
	if err != nil {
		return "", oops.Code("RESET_PASSWORD_FAILED").Wrap(err)
	}
	if res.Status == StatusError {
		return "", denialFrom(res)
	}
	return res.Message, nil
}

// UserHeader fetches the profile summary for an authenticated user.
func (s *Service) UserHeader(ctx context.Context, userID string) (*HeaderData, error) {
	res, err := s.procs.GetUserHeaderData(ctx, userID)
	if err != nil {
		return nil, oops.Code("HEADER_FETCH_FAILED").Wrap(err)
	}
	if res.Status == StatusError {
		return nil, denialFrom(res)
	}

	var header HeaderData
	if err := json.Unmarshal(res.Data, &header); err != nil {
		return nil, oops.Code("HEADER_ENVELOPE_INVALID").Wrap(err)
	}
	return &header, nil
}

// dispatchVerificationCode decodes the envelope data and hands the code to
// the notifier. A malformed envelope is logged, not surfaced: the account
// exists either way and the user can ask for a resend.
func (s *Service) dispatchVerificationCode(res *ProcResult) {
	var data CodeData
	if err := json.Unmarshal(res.Data, &data); err != nil {
		s.logger.Error("verification code envelope is malformed", "error", err)
		return
	}
	s.notifier.VerificationCode(data.Email, data.PhoneNumber, data.Name, data.VerificationCode)
}

func validateRegistration(email, password, name string) error {
	if email == "" || name == "" {
		return &Denial{Code: 400, Message: "Email and name are required"}
	}
	if len(password) < MinPasswordLength {
		return &Denial{Code: 400, Message: "Password must be at least 8 characters"}
	}
	return nil
}
