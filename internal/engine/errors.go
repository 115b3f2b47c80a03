package engine

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"transit-backend/internal/store"
)

// Error codes.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnknownTable = "UNKNOWN_TABLE"
	CodeInvalidInput = "INVALID_INPUT"
	CodeStore        = "STORE_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Details []ErrorDetail `json:"details,omitempty"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError() *AppError {
	return NewAppError(CodeNotFound, fiber.StatusNotFound, "Nije pronađeno.")
}

func UnknownTableError() *AppError {
	return NewAppError(CodeUnknownTable, fiber.StatusNotFound, "Nepoznata tablica.")
}

func InvalidInputError(msg string) *AppError {
	return NewAppError(CodeInvalidInput, fiber.StatusBadRequest, msg)
}

func RateLimitedError() *AppError {
	return NewAppError(CodeRateLimited, fiber.StatusTooManyRequests, "Previše zahtjeva.")
}

// ValidationError reports failed write rules. The first message doubles as
// the top-level error so simple clients can show it as is.
func ValidationError(details []ErrorDetail) *AppError {
	msg := "Neispravni podaci."
	if len(details) > 0 && details[0].Message != "" {
		msg = details[0].Message
	}
	return &AppError{Code: CodeInvalidInput, Status: fiber.StatusBadRequest, Message: msg, Details: details}
}

// ErrorHandler is the app-wide fiber error handler. AppErrors keep their
// status and message; store failures are logged and reported as a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return respondError(c, appErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: fiberErr.Message})
	}

	slog.ErrorContext(c.UserContext(), "request failed",
		"method", c.Method(),
		"path", c.Path(),
		"class", classify(err),
		"error", err,
	)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Server error"})
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr.Message, Details: appErr.Details})
}

func classify(err error) string {
	switch {
	case errors.Is(err, store.ErrUniqueViolation):
		return "unique_violation"
	case errors.Is(err, store.ErrForeignKeyViolation):
		return "foreign_key_violation"
	default:
		return "store"
	}
}
