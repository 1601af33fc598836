package coffee

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no entry exists for a given key.
var ErrNotFound = errors.New("entry not found")

// ValidationError marks a caller-correctable failure: the request itself is
// wrong and retrying without changes will not help.
type ValidationError struct {
	Message string
}

// NewValidationError creates a ValidationError with a human-readable message.
// The message is propagated verbatim to API error payloads and user notices.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StorageError marks an environment failure in the store or its driver.
// It is not caller-correctable and is surfaced without automatic retry.
type StorageError struct {
	Err error
}

// NewStorageError wraps a store-level failure.
func NewStorageError(err error) *StorageError {
	return &StorageError{Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// TransportError marks a network-level failure between client and server.
type TransportError struct {
	Err error
}

// NewTransportError wraps a transport failure.
func NewTransportError(err error) *TransportError {
	return &TransportError{Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
