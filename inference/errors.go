package inference

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is returned for every request when the artifacts
// failed to load at startup.
var ErrModelUnavailable = errors.New("model or preprocessor not loaded, check server logs")

// InputError wraps a record that could not be decoded, transformed or
// scored. Its message is safe to return to the caller.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputErrorf(format string, args ...any) error {
	return &InputError{Err: fmt.Errorf(format, args...)}
}

// IsInputError reports whether err is a client input failure.
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}
