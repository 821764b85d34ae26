package usecase

import (
	"errors"
	"fmt"

	"health-companion/internal/integrations/analyzer"
)

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorUpstream     ErrorCode = "UPSTREAM_ERROR"
	ErrorRemote       ErrorCode = "REMOTE_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// roundTripError classifies a failed round trip as remote-reported or transport/parse.
func roundTripError(reason string, err error) *Error {
	if _, ok := remoteMessage(err); ok {
		return newError(ErrorRemote, reason, err)
	}
	return newError(ErrorUpstream, reason, err)
}

func remoteMessage(err error) (string, bool) {
	var remote *analyzer.RemoteError
	if !errors.As(err, &remote) {
		return "", false
	}
	return remote.Message, true
}

// CodeOf returns the usecase error code carried by err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var ue *Error
	if !errors.As(err, &ue) {
		return "", false
	}
	return ue.Code, true
}
