package clierr

import (
	"errors"
	"fmt"
)

const (
	// ExitFailure covers failed checks and repository lookup failures.
	ExitFailure = 1
	// ExitUsage covers bad flags and invalid policy files.
	ExitUsage = 2
)

type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error that carries an explicit process exit code.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// ExitCodeOf extracts an exit code from any error, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitFailure
}

func normalize(code int) int {
	// Exit code 0 means success; errors should never be 0.
	if code <= 0 {
		return ExitFailure
	}
	return code
}
