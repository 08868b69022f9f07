// Package erruser provides errors whose Error() returns only a short
// user-facing message; the technical cause is available via Unwrap() for
// "Details:" output or logs.
package erruser

import "errors"

// Err pairs a user-facing message with an optional cause. Error() returns
// only Msg so the primary line never leaks command lines, agent stderr, or
// exit codes; the cause is reachable via Unwrap().
type Err struct {
	Msg string
	Err error
}

// Error returns the user-facing message only.
func (e *Err) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

// Unwrap returns the underlying cause for Details output or errors.Is.
// Safe on a nil receiver.
func (e *Err) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New returns an error with the given user-facing message. A non-nil err is
// wrapped and reachable via Unwrap() so callers can print "Details: %v";
// a nil err yields a plain error with just msg.
func New(msg string, err error) error {
	if err == nil {
		return errors.New(msg)
	}
	return &Err{Msg: msg, Err: err}
}
