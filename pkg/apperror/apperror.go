package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/folio/pkg/schema"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrPermission   = errors.New("permission denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream service failure")
	ErrTooLarge     = errors.New("payload too large")
)

const MsgUnexpected = "An unexpected error occurred"

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
	Issues    schema.Issues
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

// Cause returns the lower-level error that triggered e, if any.
func (e *AppError) Cause() error {
	return e.Err
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

// NewInvalidArgument reports a missing key argument such as an empty owner id.
func NewInvalidArgument(argument string) *AppError {
	return NewAppError(ErrInvalidInput, fmt.Sprintf("%s is required", argument), "empty key argument", nil)
}

// NewValidation carries the structured issues of a failed schema pass. The
// message is the first issue's message.
func NewValidation(issues schema.Issues) *AppError {
	msg := "Invalid input provided"
	if first, ok := issues.First(); ok {
		msg = first.Message
	}
	e := NewAppError(ErrInvalidInput, msg, issues.Error(), nil)
	e.Issues = issues
	return e
}

func NewConflict(resource, field, value string) *AppError {
	msg := fmt.Sprintf("%s conflict", resource)
	details := fmt.Sprintf("%s with %s '%s' already exists", resource, field, value)
	return NewAppError(ErrConflict, msg, details, nil)
}

// NewUpstream reports a failing collaborator. A message supplied by the
// upstream is shown verbatim; otherwise the generic message is used.
func NewUpstream(upstreamMsg string, err error) *AppError {
	msg := upstreamMsg
	if msg == "" {
		msg = MsgUnexpected
	}
	return NewAppError(ErrUpstream, msg, "upstream service call failed", err)
}

func NewTooLarge(limit int64, err error) *AppError {
	msg := fmt.Sprintf("Request body is too large. The maximum size is %d bytes", limit)
	return NewAppError(ErrTooLarge, msg, "request body exceeds limit", err)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Invalid credentials", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

func ToHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrPermission) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrUpstream) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func (e *AppError) ToJSON() gin.H {
	body := gin.H{
		"error":   e.BaseError.Error(),
		"message": e.Message,
	}
	if len(e.Issues) > 0 {
		body["issues"] = e.Issues
	}
	return body
}
