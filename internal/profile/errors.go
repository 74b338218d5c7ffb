package profile

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by SignUp and SignIn, before any remote call,
// when no identity provider or document store is configured.
var ErrNotConfigured = errors.New("profile sync: remote backend not configured")

// RemoteError reports a failed identity provider or document store call.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("profile sync: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func remoteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}
