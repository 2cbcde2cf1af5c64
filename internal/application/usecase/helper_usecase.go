package usecase

import "errors"

// notSupportedError reports an operation the wired adapter cannot perform.
type notSupportedError struct{ op string }

func (e notSupportedError) Error() string {
	return "usecase: operation not supported: " + e.op
}

func (notSupportedError) Is(target error) bool { return target == errNotSupported }

var errNotSupported = errors.New("usecase: operation not supported")

// ErrNotSupported returns the error for an unsupported operation op.
func ErrNotSupported(op string) error { return notSupportedError{op: op} }

// IsNotSupported reports whether err came from ErrNotSupported.
func IsNotSupported(err error) bool { return errors.Is(err, errNotSupported) }
