package supervisor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squad/internal/agent"
	"squad/internal/conversation"
	"squad/internal/engine"
	"squad/internal/llmerrors"
	"squad/internal/metrics"
	"squad/internal/roster"
)

type scriptedAgent struct {
	id  roster.ID
	err error // nil means terminate successfully
}

func (a *scriptedAgent) Role() roster.ID { return a.id }

func (a *scriptedAgent) Respond(context.Context, []conversation.Message) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return "done. TERMINATE", nil
}

type plannerArbiter struct{}

func (plannerArbiter) Pick(_ context.Context, _ []conversation.Message, r *roster.Roster) roster.ID {
	return r.Planner()
}

func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r, err := roster.New([]roster.Role{
		{ID: "Manager", Tag: roster.TagPlanner},
		{ID: "Backend_Dev", Tag: roster.TagProducer},
		{ID: "QA_Engineer", Tag: roster.TagReviewer},
		{ID: "Executor", Tag: roster.TagExecutor},
	}, "", "")
	require.NoError(t, err)
	return r
}

// scriptedFactory builds a fresh engine per attempt whose first dispatch
// fails with script[attempt], or succeeds when the entry is nil.
func scriptedFactory(t *testing.T, r *roster.Roster, script []error, attempts, teardowns *int) CycleFactory {
	t.Helper()
	return func(cycle int) (*engine.Engine, func(), error) {
		var stepErr error
		if *attempts < len(script) {
			stepErr = script[*attempts]
		}
		*attempts++

		agents := make([]agent.Agent, 0, len(r.Roles))
		for _, role := range r.Roles {
			a := &scriptedAgent{id: role.ID}
			if role.Tag == roster.TagPlanner {
				a.err = stepErr
			}
			agents = append(agents, a)
		}
		eng, err := engine.New(r, agents, plannerArbiter{}, cycle, engine.Config{})
		if err != nil {
			return nil, nil, err
		}
		return eng, func() { *teardowns++ }, nil
	}
}

func newTestSupervisor(factory CycleFactory, maxResets int) (*Supervisor, *[]time.Duration) {
	sleeps := &[]time.Duration{}
	s := New(factory, &metrics.UsageTracker{}, maxResets, 0, nil)
	s.sleep = func(d time.Duration) { *sleeps = append(*sleeps, d) }
	return s, sleeps
}

func TestRunSuccessPassesThrough(t *testing.T) {
	r := testRoster(t)
	attempts, teardowns := 0, 0
	s, sleeps := newTestSupervisor(scriptedFactory(t, r, []error{nil}, &attempts, &teardowns), 0)

	outcome, err := s.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeTerminated, outcome)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, teardowns)
	assert.Empty(t, *sleeps)
	assert.Zero(t, s.Resets())
}

func TestRateLimitSleepsThenRestartsFresh(t *testing.T) {
	r := testRoster(t)
	attempts, teardowns := 0, 0
	script := []error{llmerrors.RateLimited(10*time.Second, errors.New("429")), nil}
	s, sleeps := newTestSupervisor(scriptedFactory(t, r, script, &attempts, &teardowns), 0)

	outcome, err := s.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeTerminated, outcome)
	assert.Equal(t, []time.Duration{11 * time.Second}, *sleeps, "waits retryAfter + 1s")
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, teardowns, "sandbox torn down on every attempt")
	assert.Zero(t, s.Resets(), "rate limits never consume the reset budget")

	// Fresh state per attempt: the final transcript belongs to cycle 1 only.
	for _, m := range s.LastEngine().Messages() {
		assert.Equal(t, 1, m.Cycle)
	}
}

func TestRateLimitWaitTooLongAborts(t *testing.T) {
	r := testRoster(t)
	attempts, teardowns := 0, 0
	script := []error{llmerrors.RateLimited(7200*time.Second, errors.New("429"))}
	s, sleeps := newTestSupervisor(scriptedFactory(t, r, script, &attempts, &teardowns), 0)

	_, err := s.Run(context.Background(), "task")
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, AbortWaitTooLong, abort.Reason)
	assert.Empty(t, *sleeps, "no retry at all")
	assert.Equal(t, 1, attempts)
}

func TestContextOverflowResetBudget(t *testing.T) {
	r := testRoster(t)
	attempts, teardowns := 0, 0
	overflow := llmerrors.New(llmerrors.TypeContextOverflow, "context window exceeded")
	script := []error{overflow, overflow, overflow, overflow}
	s, _ := newTestSupervisor(scriptedFactory(t, r, script, &attempts, &teardowns), 3)

	_, err := s.Run(context.Background(), "task")
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, AbortResetLimitExceeded, abort.Reason)
	assert.Equal(t, 4, attempts, "exactly three restarts before the abort")
	assert.Equal(t, 4, s.Resets())
}

func TestContextOverflowRecoversWithinBudget(t *testing.T) {
	r := testRoster(t)
	attempts, teardowns := 0, 0
	overflow := llmerrors.New(llmerrors.TypeContextOverflow, "context window exceeded")
	script := []error{overflow, overflow, nil}
	s, _ := newTestSupervisor(scriptedFactory(t, r, script, &attempts, &teardowns), 3)

	outcome, err := s.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeTerminated, outcome)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, s.Resets())
}

func TestFatalAbortsImmediately(t *testing.T) {
	r := testRoster(t)
	attempts, teardowns := 0, 0
	cause := errors.New("invalid api key")
	s, _ := newTestSupervisor(scriptedFactory(t, r, []error{cause}, &attempts, &teardowns), 3)

	_, err := s.Run(context.Background(), "task")
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, AbortFatal, abort.Reason)
	assert.ErrorIs(t, err, cause, "original detail surfaces through the abort")
	assert.Equal(t, 1, attempts)
}

func TestFactoryErrorIsFatal(t *testing.T) {
	factory := func(int) (*engine.Engine, func(), error) {
		return nil, nil, fmt.Errorf("malformed roster")
	}
	s, _ := newTestSupervisor(factory, 3)

	_, err := s.Run(context.Background(), "task")
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, AbortFatal, abort.Reason)
}

func TestTurnCapPassesThrough(t *testing.T) {
	r := testRoster(t)
	factory := func(cycle int) (*engine.Engine, func(), error) {
		agents := make([]agent.Agent, 0, len(r.Roles))
		for _, role := range r.Roles {
			agents = append(agents, &scriptedAgent{id: role.ID, err: nil})
		}
		// Sentinel that never appears, so the cycle runs into the cap.
		eng, err := engine.New(r, agents, plannerArbiter{}, cycle, engine.Config{MaxTurns: 2, Sentinel: "NEVER_SAID"})
		if err != nil {
			return nil, nil, err
		}
		return eng, nil, nil
	}
	s, _ := newTestSupervisor(factory, 3)

	outcome, err := s.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeTurnCapExhausted, outcome)
}
