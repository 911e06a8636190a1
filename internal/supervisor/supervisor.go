// Package supervisor runs conversation cycles to a terminal outcome across
// upstream failures. It is the sole recovery boundary: every attempt gets a
// completely fresh engine, roster agents and sandbox, and the retry/reset
// bounds are invariants of an explicit state machine.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"squad/internal/engine"
	"squad/internal/llmerrors"
	"squad/internal/logger"
	"squad/internal/metrics"
)

const (
	DefaultMaxResets    = 3
	DefaultMaxRetryWait = 60 * time.Second
)

// CycleFactory builds a fresh engine for one attempt. The returned teardown
// releases the attempt's cycle-scoped resources (the sandbox workdir) and
// runs whether the cycle succeeds or fails.
type CycleFactory func(cycle int) (*engine.Engine, func(), error)

// phase is the supervisor's position in its state machine.
type phase int8

const (
	phaseRunning phase = iota
	phaseRetryPending
	phaseCompleted
	phaseAborted
)

type Supervisor struct {
	factory      CycleFactory
	usage        *metrics.UsageTracker
	maxResets    int
	maxRetryWait time.Duration

	runID  string
	resets int
	cycles []*metrics.CycleMetrics
	last   *engine.Engine

	// Indirections for tests.
	sleep  func(time.Duration)
	status func(string)
}

// New builds a supervisor. status carries the concise operator-facing lines
// (wait durations, reset counts, abort reasons); nil discards them. Zero
// maxResets / maxRetryWait select the defaults.
func New(factory CycleFactory, usage *metrics.UsageTracker, maxResets int, maxRetryWait time.Duration, status func(string)) *Supervisor {
	if maxResets <= 0 {
		maxResets = DefaultMaxResets
	}
	if maxRetryWait <= 0 {
		maxRetryWait = DefaultMaxRetryWait
	}
	if status == nil {
		status = func(string) {}
	}
	return &Supervisor{
		factory:      factory,
		usage:        usage,
		maxResets:    maxResets,
		maxRetryWait: maxRetryWait,
		runID:        uuid.New().String()[:8],
		sleep:        time.Sleep,
		status:       status,
	}
}

func (s *Supervisor) RunID() string { return s.runID }

// Resets reports how many context-overflow resets have been consumed. The
// bound is global to the run, not per cycle.
func (s *Supervisor) Resets() int { return s.resets }

// LastEngine is the engine of the most recent attempt, for transcripts.
func (s *Supervisor) LastEngine() *engine.Engine { return s.last }

// CycleMetrics covers every attempt, including failed ones.
func (s *Supervisor) CycleMetrics() []*metrics.CycleMetrics { return s.cycles }

// Usage is the run-wide usage tracker shared with the dispatch boundary.
func (s *Supervisor) Usage() *metrics.UsageTracker { return s.usage }

// Run drives the state machine until a cycle completes or the run aborts.
// A non-nil error is always an *AbortError.
func (s *Supervisor) Run(ctx context.Context, task string) (engine.Outcome, error) {
	var (
		st      = phaseRunning
		outcome engine.Outcome
		abort   *AbortError
		wait    time.Duration
		cycle   int
	)

	for {
		switch st {
		case phaseRunning:
			out, err := s.runOnce(ctx, cycle, task)
			if err == nil {
				outcome = out
				st = phaseCompleted
				break
			}
			st, wait, abort = s.onFailure(err)

		case phaseRetryPending:
			s.sleep(wait)
			cycle++
			st = phaseRunning

		case phaseCompleted:
			logger.Printf("[Supervisor %s] run completed: %s", s.runID, outcome)
			return outcome, nil

		case phaseAborted:
			logger.Printf("[Supervisor %s] run aborted: %v", s.runID, abort)
			s.status("Aborted: " + abort.Reason.String())
			return 0, abort
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context, cycle int, task string) (engine.Outcome, error) {
	eng, teardown, err := s.factory(cycle)
	if err != nil {
		return 0, err
	}
	if teardown != nil {
		defer teardown()
	}
	s.last = eng

	logger.Printf("[Supervisor %s] starting cycle %d", s.runID, cycle)
	out, err := eng.RunCycle(ctx, task)
	s.cycles = append(s.cycles, eng.Metrics())
	return out, err
}

// onFailure applies the retry policy to a classified failure and returns
// the next phase. Rate limits below the wait threshold restart without
// consuming the reset budget; context overflows consume it; everything
// else aborts.
func (s *Supervisor) onFailure(err error) (phase, time.Duration, *AbortError) {
	ce := llmerrors.Classify(err)
	switch ce.Type {
	case llmerrors.TypeRateLimit:
		if ce.RetryAfter < s.maxRetryWait {
			wait := ce.RetryAfter + time.Second
			s.status("Rate limited; retrying in " + wait.String())
			logger.Printf("[Supervisor %s] rate limited, waiting %s", s.runID, wait)
			return phaseRetryPending, wait, nil
		}
		return phaseAborted, 0, &AbortError{Reason: AbortWaitTooLong, Err: err}

	case llmerrors.TypeContextOverflow:
		s.resets++
		if s.resets > s.maxResets {
			return phaseAborted, 0, &AbortError{Reason: AbortResetLimitExceeded, Err: err}
		}
		s.status(fmt.Sprintf("Context overflow; restarting with fresh state (reset %d/%d)", s.resets, s.maxResets))
		logger.Printf("[Supervisor %s] context overflow, reset %d/%d", s.runID, s.resets, s.maxResets)
		return phaseRetryPending, 0, nil

	default:
		return phaseAborted, 0, &AbortError{Reason: AbortFatal, Err: err}
	}
}
