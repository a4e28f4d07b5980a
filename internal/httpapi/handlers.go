// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package httpapi

import (
	"github.com/gofiber/fiber/v3"

	"github.com/refugia/authd/internal/accounts"
	"github.com/refugia/authd/internal/auth"
)

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func requestMetadata(c fiber.Ctx) auth.RequestMetadata {
	return auth.RequestMetadata{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IPAddress: c.IP(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c fiber.Ctx) error {
	var input loginRequest
	if err := c.Bind().Body(&input); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := s.svc.Login(c.Context(), input.Email, input.Password, requestMetadata(c))
	if err != nil {
		s.metrics.RecordLogin("failure")
		return s.respondServiceError(c, err)
	}

	s.metrics.RecordLogin("success")
	s.metrics.RecordSessionIssued()
	setAuthCookie(c, result.Token, s.cookieTTL)
	return c.JSON(fiber.Map{
		"status":    "ok",
		"message":   result.Message,
		"user_data": result.User,
	})
}

type donorRegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Lastname    string `json:"lastname"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
}

func (s *Server) handleRegisterDonor(c fiber.Ctx) error {
	var input donorRegisterRequest
	if err := c.Bind().Body(&input); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	message, err := s.svc.RegisterDonor(c.Context(), accounts.DonorRegistration{
		Email:       input.Email,
		Password:    input.Password,
		Name:        input.Name,
		Lastname:    input.Lastname,
		PhoneNumber: input.PhoneNumber,
		Location:    input.Location,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "ok",
		"message": message,
		"data":    fiber.Map{"email": input.Email},
	})
}

type shelterRegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	ShelterName string `json:"shelter_name"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
}

func (s *Server) handleRegisterShelter(c fiber.Ctx) error {
	var input shelterRegisterRequest
	if err := c.Bind().Body(&input); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	message, err := s.svc.RegisterShelter(c.Context(), accounts.ShelterRegistration{
		Email:       input.Email,
		Password:    input.Password,
		Name:        input.Name,
		ShelterName: input.ShelterName,
		PhoneNumber: input.PhoneNumber,
		Location:    input.Location,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "ok",
		"message": message,
		"data":    fiber.Map{"email": input.Email},
	})
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// handleVerifyEmail confirms the code and signs the user in directly; the
// verification email is the second factor of the registration, so a separate
// login right after it would be pure friction.
func (s *Server) handleVerifyEmail(c fiber.Ctx) error {
	var input verifyEmailRequest
	if err := c.Bind().Body(&input); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := s.svc.VerifyEmail(c.Context(), input.Email, input.Code, requestMetadata(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}

	s.metrics.RecordSessionIssued()
	setAuthCookie(c, result.Token, s.cookieTTL)
	return c.JSON(fiber.Map{
		"status":    "ok",
		"message":   result.Message,
		"user_data": result.User,
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleResendCode(c fiber.Ctx) error {
	var input emailRequest
	if err := c.Bind().Body(&input); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	message, err := s.svc.ResendVerificationCode(c.Context(), input.Email)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok", "message": message})
}

func (s *Server) handleResetRequest(c fiber.Ctx) error {
	var input emailRequest
	if err := c.Bind().Body(&input); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	message, err := s.svc.RequestPasswordReset(c.Context(), input.Email)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok", "message": message})
}

type resetVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (s *Server) handleResetVerify(c fiber.Ctx) error {
	var input resetVerifyRequest
	if err := c.Bind().Body(&input); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	message, err := s.svc.VerifyResetCode(c.Context(), input.Email, input.Code)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok", "message": message})
}

type resetConfirmRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleResetConfirm(c fiber.Ctx) error {
	var input resetConfirmRequest
	if err := c.Bind().Body(&input); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	message, err := s.svc.ResetPassword(c.Context(), input.Email, input.Code, input.NewPassword)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok", "message": message})
}

func (s *Server) handleMeHeader(c fiber.Ctx) error {
	identity := identityFrom(c)
	if identity == nil {
		return respondError(c, fiber.StatusUnauthorized, "Authentication required")
	}

	header, err := s.svc.UserHeader(c.Context(), identity.UserID)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok", "data": header})
}
