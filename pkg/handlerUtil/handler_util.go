package handlerUtil

import (
	"errors"
	"fmt"
	"strings"

	"FaceRegistry/pkg/log"
	"FaceRegistry/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

const unexpectedErrorMessage = "An unexpected error occurred"

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

// FailureResponse is the envelope used by the write endpoints.
type FailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	TraceID string `json:"traceId,omitempty"`
}

// Problem is an error resolved to what the client is told about it.
type Problem struct {
	Status  int
	Message string
	Details string
	TraceID string
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Resolve maps err to a status and client message. Server side failures are
// logged with a trace id and never expose their cause.
func (h *ErrorHandler) Resolve(requestID string, err error, path string, operation string) Problem {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		if respErr.Code >= fiber.StatusInternalServerError {
			return h.serverProblem(requestID, err, path, operation, respErr.Code, respErr.Error())
		}

		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Operation failed with error response")
		return Problem{Status: respErr.Code, Message: respErr.Error(), Details: respErr.Details}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       fiberErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Request rejected")
		return Problem{Status: fiberErr.Code, Message: fiberErr.Message}
	}

	return h.serverProblem(requestID, err, path, operation, fiber.StatusInternalServerError, unexpectedErrorMessage)
}

func (h *ErrorHandler) serverProblem(requestID string, err error, path, operation string, status int, message string) Problem {
	traceID := log.ErrorWithTraceID(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}, "Operation failed")

	return Problem{Status: status, Message: message, TraceID: traceID}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	p := h.Resolve(requestID, err, path, operation)
	return c.Status(p.Status).JSON(ErrorResponse{
		Error:   p.Message,
		Details: p.Details,
		TraceID: p.TraceID,
	})
}

// HandleFailure renders err in the {success, message, error} envelope.
func (h *ErrorHandler) HandleFailure(c *fiber.Ctx, requestID string, err error, message string, path string, operation string) error {
	p := h.Resolve(requestID, err, path, operation)

	errText := p.Message
	if p.Details != "" {
		errText = p.Message + ": " + p.Details
	}

	return c.Status(p.Status).JSON(FailureResponse{
		Success: false,
		Message: message,
		Error:   errText,
		TraceID: p.TraceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "Validation failed",
		Details: ValidationDetails(err),
	})
}

// ValidationDetails renders validator errors as "field: rule" pairs.
func ValidationDetails(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", rule, fe.Param())
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), rule))
	}
	return strings.Join(parts, "; ")
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(ErrorResponse{
		Error: utils.StatusMessage(fiber.StatusRequestTimeout),
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
