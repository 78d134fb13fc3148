package sale

import (
	"errors"
	"fmt"
)

// ErrDustAmount marks a deposit that quantizes to zero in its
// currency's minor unit; such transactions never become purchases.
var ErrDustAmount = errors.New("deposit amount below minimum representable unit")

// ValidationError reports a rejected quote request, naming the field
// that failed the check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
