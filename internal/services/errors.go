package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when an operation needs a user row that does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrValidation marks input the caller can correct and retry
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedField is returned for lookups on a column that is not matchable
	ErrUnsupportedField = errors.New("unsupported match field")
	// ErrSelfFollow is returned when a user tries to follow themselves
	ErrSelfFollow = errors.New("you cannot follow yourself")
	// ErrForeignSession is returned when a session id is not one of the caller's sessions
	ErrForeignSession = errors.New("session does not belong to user")
)

// ValidationError describes a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) match every ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
