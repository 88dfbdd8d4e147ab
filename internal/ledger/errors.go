package ledger

import (
	"errors"
	"fmt"
)

// ErrLoanNotFound is returned when a loan reference does not identify an existing loan
var ErrLoanNotFound = errors.New("loan not found")

// ValidationError reports a missing or malformed loan field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
