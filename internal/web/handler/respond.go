package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rosterbase/rosterbase/internal/db/models"
)

// API error codes. Every error response carries exactly one of these so
// clients can branch on the code instead of parsing messages.
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodePermissionDenied    = "PERMISSION_DENIED"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeOperationInProgress = "OPERATION_IN_PROGRESS"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Envelope is the uniform JSON response wrapper: {success, data?, error?}.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError is the error half of the envelope.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// OK writes a 200 success envelope around data.
func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Envelope{Success: true, Data: data})
}

// Created writes a 201 success envelope around data.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data})
}

// Fail writes an error envelope with the given HTTP status and API code.
func Fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(Envelope{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// FailWithDetails writes an error envelope carrying structured details
// (e.g. per-field validation errors or per-item bulk failures).
func FailWithDetails(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	return c.Status(status).JSON(Envelope{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
	})
}

// ValidationError writes a 400 VALIDATION_ERROR envelope.
func ValidationError(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusBadRequest, CodeValidationError, message)
}

// NotFound writes a 404 NOT_FOUND envelope.
func NotFound(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusNotFound, CodeNotFound, message)
}

// InternalError writes a 500 INTERNAL_ERROR envelope with a generic message;
// the underlying error belongs in the log, not the response.
func InternalError(c *fiber.Ctx) error {
	return Fail(c, fiber.StatusInternalServerError, CodeInternalError, "internal server error")
}

// CurrentUser returns the authenticated user placed in the request locals by
// the auth middleware. The boolean is false on routes that skipped the
// middleware.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals("CurrentUser").(models.User)

	return user, ok
}
