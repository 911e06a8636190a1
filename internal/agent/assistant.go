package agent

import (
	"context"
	"fmt"
	"strings"

	"squad/internal/conversation"
	"squad/internal/llm_client"
	"squad/internal/memory"
	"squad/internal/metrics"
	"squad/internal/roster"
)

const plannerSnippetCount = 3

// Assistant is an LLM-backed role. The planner additionally gets snippets
// from the document store folded into its prompt.
type Assistant struct {
	role  roster.Role
	model string
	usage *metrics.UsageTracker
	store *memory.Store // nil for every role but the planner
}

func NewAssistant(role roster.Role, model string, usage *metrics.UsageTracker, store *memory.Store) *Assistant {
	return &Assistant{role: role, model: model, usage: usage, store: store}
}

func (a *Assistant) Role() roster.ID { return a.role.ID }

func (a *Assistant) Respond(ctx context.Context, history []conversation.Message) (string, error) {
	prompt := a.buildPrompt(history)
	content, u, err := llm_client.Generate(ctx, prompt, a.model)
	if err != nil {
		// Already classified at the generation boundary; pass through.
		return "", err
	}
	if a.usage != nil {
		a.usage.Add(u)
	}
	return content, nil
}

func (a *Assistant) buildPrompt(history []conversation.Message) string {
	var sb strings.Builder
	sb.WriteString(a.role.Instructions)
	sb.WriteString("\n\n")

	if a.store != nil && len(history) > 0 {
		// The seeded task is always the first message of the cycle.
		snippets := a.store.Query(history[0].Content, plannerSnippetCount)
		if len(snippets) > 0 {
			sb.WriteString("RELEVANT CONTEXT:\n")
			for _, sn := range snippets {
				sb.WriteString(fmt.Sprintf("- [%s] %s\n", sn.Source, sn.Content))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("CONVERSATION SO FAR:\n")
	for _, m := range history {
		sb.WriteString(fmt.Sprintf("%s: %s\n", m.Author, m.Content))
	}

	sb.WriteString(fmt.Sprintf("\nRespond now as %s.\n", a.role.ID))
	return sb.String()
}
