package agent

import (
	"context"

	"squad/internal/conversation"
	"squad/internal/parser"
	"squad/internal/roster"
	"squad/internal/sandbox"
)

// Executor runs the fenced code blocks of the most recent message in the
// cycle's sandbox and reports the output as its turn.
type Executor struct {
	role roster.ID
	box  *sandbox.Sandbox
}

func NewExecutor(role roster.ID, box *sandbox.Sandbox) *Executor {
	return &Executor{role: role, box: box}
}

func (e *Executor) Role() roster.ID { return e.role }

func (e *Executor) Respond(ctx context.Context, history []conversation.Message) (string, error) {
	if len(history) == 0 {
		return "Nothing to execute.", nil
	}
	last := history[len(history)-1]
	return e.box.Execute(ctx, parser.ExtractCodeBlocks(last.Content))
}
