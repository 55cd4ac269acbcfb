// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services return these errors; handlers translate them to HTTP status codes.
// Anything that is not an *AppError is treated as an opaque transport/storage
// failure and surfaces as a 500.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrDomainRule = errors.New("domain rule violation")
)

// AppError carries a category sentinel plus a message safe to show a client.
type AppError struct {
	Err     error  // one of the Err* sentinels
	Message string
	Field   string // request field at fault, validation only
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound is returned when an entity is absent OR not owned by the caller.
// The two cases are deliberately indistinguishable to the caller.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed rejects malformed input on field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DomainRule reports a request that is well-formed but breaks a business rule,
// e.g. publishing a task that is not completed. HTTP handlers map this to 422.
func DomainRule(message string) *AppError {
	return &AppError{
		Err:     ErrDomainRule,
		Message: message,
	}
}
