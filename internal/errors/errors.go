package errors

import "github.com/juju/errors"

// New is equivalent to New from the github.com/juju/errors package.
func New(message string) error {
	return errors.New(message)
}

// Annotate is equivalent to Annotate from the github.com/juju/errors package.
func Annotate(other error, message string) error {
	return errors.Annotate(other, message)
}

// Annotatef is equivalent to Annotatef from the github.com/juju/errors package.
func Annotatef(other error, format string, args ...interface{}) error {
	return errors.Annotatef(other, format, args...)
}

// Errorf is equivalent to Errorf from the github.com/juju/errors package.
func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Cause is equivalent to Cause from the github.com/juju/errors package.
func Cause(err error) error {
	return errors.Cause(err)
}

type unresponsive struct {
	errors.Err
}

// Timeout reports true; an unresponsive chip is a timeout from the
// caller's point of view.
func (u *unresponsive) Timeout() bool { return true }

// Unresponsivef constructs a new error indicating that the hardware did not
// clear a busy condition within the configured number of polls.
func Unresponsivef(format string, args ...interface{}) error {
	err := errors.NewErr(format, args...)
	err.SetLocation(1)
	return &unresponsive{err}
}

// IsUnresponsive returns true if err is an unresponsive hardware error as
// constructed using Unresponsivef.
func IsUnresponsive(err error) bool {
	_, ok := errors.Cause(err).(*unresponsive)
	return ok
}

// IsTimeout returns true if err has a Timeout() bool method that returns true.
func IsTimeout(err error) bool {
	type timeouter interface {
		Timeout() bool
	}
	to, ok := errors.Cause(err).(timeouter)
	return ok && to.Timeout()
}

type short struct {
	errors.Err
}

// Shortf constructs a new error indicating that a buffer was too short to
// hold the field being decoded or encoded.
func Shortf(format string, args ...interface{}) error {
	err := errors.NewErr(format, args...)
	err.SetLocation(1)
	return &short{err}
}

// IsShort returns true if err is a short buffer error as constructed using
// Shortf.
func IsShort(err error) bool {
	_, ok := errors.Cause(err).(*short)
	return ok
}

type config struct {
	errors.Err
}

// Configf constructs a new error describing an invalid configuration value.
func Configf(format string, args ...interface{}) error {
	err := errors.NewErr(format, args...)
	err.SetLocation(1)
	return &config{err}
}

// IsConfig returns true if err is a configuration error as constructed using
// Configf.
func IsConfig(err error) bool {
	_, ok := errors.Cause(err).(*config)
	return ok
}
