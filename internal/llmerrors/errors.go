// Package llmerrors classifies generation failures for the supervisor's
// retry policy. Classification happens only at the generation boundary;
// the selector and the engine never produce these.
package llmerrors

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type is the failure taxonomy the supervisor decides on.
type Type int8

const (
	// TypeRateLimit: upstream asked us to wait before retrying (429, quota).
	TypeRateLimit Type = iota
	// TypeContextOverflow: the conversation no longer fits the model window.
	TypeContextOverflow
	// TypeFatal: anything else; never retried.
	TypeFatal
)

func (t Type) String() string {
	switch t {
	case TypeRateLimit:
		return "rate_limit"
	case TypeContextOverflow:
		return "context_overflow"
	case TypeFatal:
		return "fatal"
	default:
		return "invalid"
	}
}

// DefaultRetryAfter is assumed when a rate-limit response carries no usable
// delay hint. Below the supervisor's abort threshold, so an unannotated 429
// is retried rather than aborted.
const DefaultRetryAfter = 30 * time.Second

// Error is a classified generation failure.
type Error struct {
	Type       Type
	RetryAfter time.Duration // only meaningful for TypeRateLimit
	Err        error
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation error (%s): %s", e.Type, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("generation error (%s): %v", e.Type, e.Err)
	}
	return fmt.Sprintf("generation error (%s)", e.Type)
}

func (e *Error) Unwrap() error { return e.Err }

func New(t Type, message string) *Error {
	return &Error{Type: t, Message: message}
}

func Wrap(t Type, cause error, message string) *Error {
	return &Error{Type: t, Err: cause, Message: message}
}

// RateLimited builds a classified rate-limit failure with an explicit wait.
func RateLimited(retryAfter time.Duration, cause error) *Error {
	return &Error{Type: TypeRateLimit, RetryAfter: retryAfter, Err: cause}
}

// TypeOf returns the classified type, or TypeFatal for unclassified errors.
func TypeOf(err error) Type {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type
	}
	return TypeFatal
}

func Is(err error, t Type) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Type == t
}

// Matches delay hints like `"retryDelay": "34s"` and "please retry in 26.7s".
var retryDelayPattern = regexp.MustCompile(`(?i)retry(?:Delay)?[^0-9]{0,12}(\d+(?:\.\d+)?)\s*s`)

// Classify maps an arbitrary upstream error onto the taxonomy. Errors that
// are already classified pass through untouched.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "429") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "ratelimit") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "quota"):
		return &Error{Type: TypeRateLimit, RetryAfter: parseRetryAfter(err.Error()), Err: err}

	case strings.Contains(lower, "context length") ||
		strings.Contains(lower, "context window") ||
		strings.Contains(lower, "maximum context") ||
		strings.Contains(lower, "token count") ||
		strings.Contains(lower, "too many tokens") ||
		strings.Contains(lower, "input is too long") ||
		strings.Contains(lower, "prompt is too long"):
		return &Error{Type: TypeContextOverflow, Err: err}

	default:
		return &Error{Type: TypeFatal, Err: err}
	}
}

func parseRetryAfter(msg string) time.Duration {
	m := retryDelayPattern.FindStringSubmatch(msg)
	if len(m) != 2 {
		return DefaultRetryAfter
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil || secs <= 0 {
		return DefaultRetryAfter
	}
	return time.Duration(secs * float64(time.Second))
}
