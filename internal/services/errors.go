// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/adspoint/adspoint-backend/internal/i18n"
)

type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeInvalidState        ErrorCode = "INVALID_STATE"
	ErrCodeDuplicateResponse   ErrorCode = "DUPLICATE_RESPONSE"
	ErrCodeDeadlineExpired     ErrorCode = "DEADLINE_EXPIRED"
	ErrCodeInvalidURLFormat    ErrorCode = "INVALID_URL_FORMAT"
	ErrCodeExternalService     ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeResponseNotAccepted ErrorCode = "RESPONSE_NOT_ACCEPTED"
	ErrCodeContractExists      ErrorCode = "CONTRACT_EXISTS"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// ServiceError separates the machine-readable code from the display
// string: MessageKey is an i18n key resolved at the HTTP boundary, Err
// carries the underlying cause for logs.
type ServiceError struct {
	Code       ErrorCode
	MessageKey string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Message resolves the user-facing text for the given language.
func (e *ServiceError) Message(lang string) string {
	return i18n.T(lang, e.MessageKey)
}

func newError(code ErrorCode, messageKey string) *ServiceError {
	return &ServiceError{Code: code, MessageKey: messageKey}
}

func wrapError(code ErrorCode, messageKey string, err error) *ServiceError {
	return &ServiceError{Code: code, MessageKey: messageKey, Err: err}
}

func internalError(err error) *ServiceError {
	return &ServiceError{Code: ErrCodeInternal, MessageKey: i18n.KeyError, Err: err}
}

// AsServiceError unwraps err into a *ServiceError if possible.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ErrorCodeOf returns the code of err, or INTERNAL_ERROR for plain
// errors.
func ErrorCodeOf(err error) ErrorCode {
	if se, ok := AsServiceError(err); ok {
		return se.Code
	}
	return ErrCodeInternal
}
