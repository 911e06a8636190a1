package supervisor

import "fmt"

// AbortReason says why the supervisor gave up on the run.
type AbortReason int8

const (
	// AbortWaitTooLong: a rate limit asked for a wait past the threshold.
	AbortWaitTooLong AbortReason = iota
	// AbortResetLimitExceeded: context overflows exhausted the reset budget.
	AbortResetLimitExceeded
	// AbortFatal: a non-retryable failure.
	AbortFatal
)

func (r AbortReason) String() string {
	switch r {
	case AbortWaitTooLong:
		return "wait-too-long"
	case AbortResetLimitExceeded:
		return "reset-limit-exceeded"
	case AbortFatal:
		return "fatal"
	default:
		return "invalid"
	}
}

// AbortError is the terminal failure of a supervised run.
type AbortError struct {
	Reason AbortReason
	Err    error
}

func (e *AbortError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("run aborted (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("run aborted (%s)", e.Reason)
}

func (e *AbortError) Unwrap() error { return e.Err }
