package cli

import "errors"

// ErrUsage marks errors whose message is meant for the person running the CLI.
var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg   string
	cause error
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

// wrapUsageError keeps cause reachable through errors.As while showing msg.
func wrapUsageError(msg string, cause error) error {
	return usageError{msg: msg, cause: cause}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Unwrap() error {
	return e.cause
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}
