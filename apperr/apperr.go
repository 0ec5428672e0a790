// Package apperr defines the error taxonomy shared by the core services.
// Validation failures and missing entities are client-facing; link
// exhaustion and anything else are server-side.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError means caller-supplied data violates an invariant.
// It is never retried automatically.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func Validationf(format string, args ...any) error {
	return &ValidationError{fmt.Sprintf(format, args...)}
}

// Validation wraps err as a ValidationError, or passes nil through.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{err.Error()}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError means the referenced entity does not exist.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (%v)", e.Entity, e.Key)
}

func NotFound(entity string, key any) error {
	return &NotFoundError{entity, key}
}

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// ErrLinkExhausted means link generation collided beyond the retry
// budget. Server-side; safe for the caller to retry the whole operation.
var ErrLinkExhausted = errors.New("could not generate a unique link")
