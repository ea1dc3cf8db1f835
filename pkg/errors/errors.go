// Package errors contains the error helpers used throughout reverso. Errors
// are wrapped with short context strings as they bubble up, so that the final
// message reads like a trace of what was being attempted, e.g.
// `run task "docs": collect source: stat "/src/a": permission denied`.
package errors

import (
	"fmt"
)

// New creates a new error with the given message. The message is formatted
// with the given arguments.
func New(format string, a ...interface{}) error {
	if len(a) == 0 {
		return plainError{format}
	}
	return plainError{fmt.Sprintf(format, a...)}
}

type plainError struct {
	msg string
}

func (err plainError) Error() string {
	return err.msg
}

// WithContext wraps `err` with a string describing what was happening when the
// error occurred. It returns nil if `err` is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{context: context, cause: err}
}

type contextError struct {
	context string
	cause   error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.cause)
}

func (err contextError) Unwrap() error {
	return err.cause
}

// RootCause returns the innermost error wrapped by WithContext.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(contextError)
		if !ok {
			return err
		}
		err = ctxErr.cause
	}
}

// FriendlyError is an error whose message is meant to be shown to users
// without any of the internal context that was accumulated.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

// NewFriendlyError creates an error with a user friendly message.
func NewFriendlyError(format string, a ...interface{}) error {
	return friendlyError{msg: fmt.Sprintf(format, a...)}
}

type friendlyError struct {
	msg string
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

// GetPrintableMessage returns the message that should be shown to the user
// for `err`. If any error in the chain is a FriendlyError, its message is
// used. Otherwise, the full error string is returned.
func GetPrintableMessage(err error) string {
	for curr := err; curr != nil; {
		if friendly, ok := curr.(FriendlyError); ok {
			return friendly.FriendlyMessage()
		}

		ctxErr, ok := curr.(contextError)
		if !ok {
			break
		}
		curr = ctxErr.cause
	}
	return err.Error()
}
