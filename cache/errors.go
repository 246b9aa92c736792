package cache

import "errors"

var (
	// ErrClosed is returned by Retrieve after Close has been called.
	ErrClosed = errors.New("cache: closed")

	// ErrWaitCanceled reports that the calling context was canceled or timed
	// out while Retrieve was blocked waiting for another goroutine's
	// in-flight load. It is distinct from a Loader failure: the load the
	// caller was waiting on may well have succeeded, so retrying is
	// reasonable.
	ErrWaitCanceled = errors.New("cache: canceled while waiting for in-flight load")
)

// waitError is the concrete error returned for a canceled lock wait.
// It matches ErrWaitCanceled via Is and unwraps to the context error, so
// errors.Is(err, context.Canceled) and errors.Is(err, ErrWaitCanceled)
// both hold.
type waitError struct {
	cause error
}

func (e *waitError) Error() string {
	return ErrWaitCanceled.Error() + ": " + e.cause.Error()
}

func (e *waitError) Is(target error) bool { return target == ErrWaitCanceled }

func (e *waitError) Unwrap() error { return e.cause }
