// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package httpapi

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/refugia/authd/internal/accounts"
	"github.com/refugia/authd/pkg/errutil"
)

// errorBody is the JSON envelope for every non-2xx response.
func errorBody(code int, message string, data json.RawMessage) fiber.Map {
	body := fiber.Map{
		"status":  "error",
		"code":    code,
		"message": message,
	}
	if len(data) > 0 {
		body["data"] = data
	}
	return body
}

func respondError(c fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(errorBody(code, message, nil))
}

// respondServiceError maps an account flow error: denials keep their status
// and message; anything else is an infrastructure fault answered as an opaque
// 500 after logging the details server-side.
func (s *Server) respondServiceError(c fiber.Ctx, err error) error {
	var denial *accounts.Denial
	if errors.As(err, &denial) {
		return c.Status(denial.Code).JSON(errorBody(denial.Code, denial.Message, denial.Data))
	}

	errutil.LogError(s.logger, "request failed", err)
	return respondError(c, fiber.StatusInternalServerError, "Internal server error")
}
