package gerr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeBadPayload     = "BAD_PAYLOAD"
	CodeBadFormat      = "BAD_FORMAT"
	CodeCloudError     = "CLOUD_ERROR"
	CodeInternalError  = "INTERNAL_ERROR"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = New(fiber.StatusNotFound, CodeNotFound, "resource not found with given parameters")

	// ErrInvalidReq is returned when a request is invalid.
	ErrInvalidReq = New(fiber.StatusBadRequest, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")

	// ErrBadPayload is returned when an import payload is not a JSON object at all.
	ErrBadPayload = New(fiber.StatusBadRequest, CodeBadPayload, "history payload must be a JSON object")

	// ErrBadFormat is returned when an import payload carries neither a sessions nor an items list.
	ErrBadFormat = New(fiber.StatusBadRequest, CodeBadFormat, "history payload has no recognizable sessions or items")

	// ErrCloud is returned when a cloud sync or OAuth operation fails.
	ErrCloud = New(fiber.StatusBadRequest, CodeCloudError, "cloud operation failed")

	// ErrInternalError is returned when an internal error occurs.
	ErrInternalError = New(fiber.StatusInternalServerError, CodeInternalError, "internal server error occurred")
)

type Extras map[string]any

type Error struct {
	StatusCode int    `example:"400"`
	ErrorCode  string `example:"INVALID_REQUEST"`
	Message    string `example:"invalid request: some or all request parameters are invalid"`
	Extras     *Extras
}

func New(statusCode int, errorCode string, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// Msg returns a copy of the error with a reworded message. The receiver is a
// value so predefined errors stay immutable.
func (e Error) Msg(format string, parts ...any) *Error {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e Error) WithExtras(extras Extras) *Error {
	e.Extras = &extras
	return &e
}

func NewInvalidViolations(violations any) *Error {
	e := *ErrInvalidReq
	e.Extras = &Extras{
		"violations": violations,
	}
	return &e
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}
