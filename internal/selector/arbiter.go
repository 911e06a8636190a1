package selector

import (
	"context"
	"fmt"
	"strings"

	"squad/internal/conversation"
	"squad/internal/llm_client"
	"squad/internal/metrics"
	"squad/internal/roster"
)

// Arbiter breaks the tie when Select defers. Arbitration never fails; a
// policy that cannot decide must still name a role.
type Arbiter interface {
	Pick(ctx context.Context, history []conversation.Message, r *roster.Roster) roster.ID
}

// RoundRobin walks roster order starting after the last speaker, skipping
// the executor (the executor only ever speaks when forced by the fence
// rule). Deterministic, the default tie-break policy.
type RoundRobin struct{}

func (RoundRobin) Pick(_ context.Context, history []conversation.Message, r *roster.Roster) roster.ID {
	start := 0
	if len(history) > 0 {
		last := history[len(history)-1].Author
		for i, role := range r.Roles {
			if role.ID == last {
				start = i + 1
				break
			}
		}
	}
	for i := 0; i < len(r.Roles); i++ {
		role := r.Roles[(start+i)%len(r.Roles)]
		if role.Tag == roster.TagExecutor {
			continue
		}
		return role.ID
	}
	return r.Planner()
}

const arbiterHistoryTail = 6

// LLMArbiter asks the generation capability to name the next speaker. Any
// failure or invalid pick falls back to round-robin, so arbitration never
// surfaces an error of its own.
type LLMArbiter struct {
	Model    string
	Usage    *metrics.UsageTracker
	fallback RoundRobin
}

func (a *LLMArbiter) Pick(ctx context.Context, history []conversation.Message, r *roster.Roster) roster.ID {
	content, u, err := llm_client.Generate(ctx, buildArbiterPrompt(history, r), a.Model)
	if err != nil {
		return a.fallback.Pick(ctx, history, r)
	}
	if a.Usage != nil {
		a.Usage.Add(u)
	}

	name := strings.Trim(strings.TrimSpace(firstLine(content)), "`\"' ")
	if role, ok := r.Lookup(roster.ID(name)); ok && role.Tag != roster.TagExecutor {
		return role.ID
	}
	return a.fallback.Pick(ctx, history, r)
}

func buildArbiterPrompt(history []conversation.Message, r *roster.Roster) string {
	var sb strings.Builder
	sb.WriteString("Select the next speaker for a team conversation.\n")
	sb.WriteString("Available roles:\n")
	for _, role := range r.Roles {
		if role.Tag == roster.TagExecutor {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", role.ID, role.Tag))
	}

	tail := history
	if len(tail) > arbiterHistoryTail {
		tail = tail[len(tail)-arbiterHistoryTail:]
	}
	sb.WriteString("\nRecent conversation:\n")
	for _, m := range tail {
		sb.WriteString(fmt.Sprintf("%s: %s\n", m.Author, truncate(m.Content, 400)))
	}

	sb.WriteString("\nOutput only the role name.\n")
	return sb.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
