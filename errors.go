package main

import (
	"fmt"

	"github.com/pkg/errors"
)

// Request and startup failures. Handlers classify with errors.Is, so callers
// wrap these rather than returning new values.
var (
	ErrMalformedAddress = errors.New("malformed tile address")
	ErrUnknownStore     = errors.New("unknown tile store")
	ErrTileNotFound     = errors.New("tile not found")
	ErrStoreUnavailable = errors.New("tile store unavailable")
	ErrStoreRead        = errors.New("tile store read error")
)

// readError keeps the driver error as its cause while still matching
// ErrStoreRead.
type readError struct {
	msg   string
	cause error
}

func storeReadError(cause error, format string, args ...interface{}) error {
	return errors.WithStack(&readError{msg: fmt.Sprintf(format, args...), cause: cause})
}

func (e *readError) Error() string { return e.msg + ": " + e.cause.Error() }

func (e *readError) Cause() error { return e.cause }

func (e *readError) Unwrap() error { return e.cause }

func (e *readError) Is(target error) bool { return target == ErrStoreRead }
