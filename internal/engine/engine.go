// Package engine drives one conversation cycle: select, dispatch, append,
// check termination, until a terminal outcome or the turn cap. Exactly one
// turn is ever in flight; the engine never catches or classifies dispatch
// failures, they propagate to the supervisor.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"squad/internal/agent"
	"squad/internal/conversation"
	"squad/internal/metrics"
	"squad/internal/roster"
	"squad/internal/selector"
)

const DefaultMaxTurns = 20

// Outcome is the terminal result of a cycle that did not fail. A failed
// cycle is reported as a non-nil error instead.
type Outcome int8

const (
	OutcomeTerminated Outcome = iota
	OutcomeTurnCapExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTerminated:
		return "terminated"
	case OutcomeTurnCapExhausted:
		return "turn_cap_exhausted"
	default:
		return "invalid"
	}
}

type Config struct {
	MaxTurns int
	Sentinel string
}

// Engine owns the conversation state of one cycle. Build a fresh one per
// cycle; nothing survives into the next.
type Engine struct {
	roster  *roster.Roster
	agents  map[roster.ID]agent.Agent
	arbiter selector.Arbiter
	log     *conversation.Log
	cfg     Config
	cycle   metrics.CycleMetrics
}

func New(r *roster.Roster, agents []agent.Agent, arb selector.Arbiter, cycleNum int, cfg Config) (*Engine, error) {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.Sentinel == "" {
		cfg.Sentinel = r.Sentinel()
	}
	if arb == nil {
		arb = selector.RoundRobin{}
	}

	byRole := make(map[roster.ID]agent.Agent, len(agents))
	for _, a := range agents {
		byRole[a.Role()] = a
	}
	for _, role := range r.Roles {
		if _, ok := byRole[role.ID]; !ok {
			return nil, fmt.Errorf("no agent for role %q", role.ID)
		}
	}

	return &Engine{
		roster:  r,
		agents:  byRole,
		arbiter: arb,
		log:     conversation.NewLog(cycleNum),
		cfg:     cfg,
		cycle:   metrics.CycleMetrics{Cycle: cycleNum},
	}, nil
}

// Messages exposes the cycle's history for transcripts. Read-only.
func (e *Engine) Messages() []conversation.Message { return e.log.Messages() }

func (e *Engine) Metrics() *metrics.CycleMetrics { return &e.cycle }

// RunCycle seeds the log with the task and loops turns until the sentinel
// phrase appears, the turn cap is reached, or a dispatch fails. Selection at
// every step observes only already-appended messages; past messages are
// never mutated or reordered.
func (e *Engine) RunCycle(ctx context.Context, task string) (outcome Outcome, err error) {
	e.cycle.Start = time.Now()
	defer func() {
		e.cycle.End = time.Now()
		e.cycle.Finalize()
		if err != nil {
			e.cycle.Outcome = "failed"
		} else {
			e.cycle.Outcome = outcome.String()
		}
	}()

	e.log.Append(conversation.TaskSource, task)

	for turns := 0; ; {
		if cerr := ctx.Err(); cerr != nil {
			return 0, cerr
		}

		next, ok := selector.Select(e.log.Messages(), e.roster)
		if !ok {
			next = e.arbiter.Pick(ctx, e.log.Messages(), e.roster)
		}
		ag, ok := e.agents[next]
		if !ok {
			return 0, fmt.Errorf("selected role %q has no agent", next)
		}

		tm := metrics.TurnMetrics{Seq: e.log.Len(), Role: string(next), Start: time.Now()}
		content, derr := ag.Respond(ctx, e.log.Messages())
		tm.End = time.Now()
		tm.DurationMs = tm.End.Sub(tm.Start).Milliseconds()
		if derr != nil {
			tm.Err = derr.Error()
			e.cycle.Turns = append(e.cycle.Turns, tm)
			// No retry here: the supervisor is the sole recovery boundary.
			return 0, derr
		}
		e.cycle.Turns = append(e.cycle.Turns, tm)
		msg := e.log.Append(next, content)

		if strings.Contains(msg.Content, e.cfg.Sentinel) {
			return OutcomeTerminated, nil
		}
		turns++
		if turns >= e.cfg.MaxTurns {
			return OutcomeTurnCapExhausted, nil
		}
	}
}
