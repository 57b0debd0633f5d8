package storage

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// LogicalError reports a broken internal invariant of a compiled condition,
// such as an RPN that does not reduce to exactly one value. It never results
// from user input.
type LogicalError struct {
	Reason string
}

func (e *LogicalError) Error() string {
	return "logical error: " + e.Reason
}

// newLogicalError returns a LogicalError marked as an assertion failure.
func newLogicalError(format string, args ...interface{}) error {
	return errors.WithAssertionFailure(&LogicalError{Reason: fmt.Sprintf(format, args...)})
}

// IsLogicalError reports whether err wraps a LogicalError.
func IsLogicalError(err error) bool {
	var le *LogicalError
	return errors.As(err, &le)
}
