// Package agent turns roster roles into dispatchable participants. Agents
// are built fresh for every cycle and hold no state across restarts.
package agent

import (
	"context"

	"squad/internal/conversation"
	"squad/internal/roster"
)

// Agent produces exactly one turn of the conversation for its role. Respond
// never mutates the history it observes.
type Agent interface {
	Role() roster.ID
	Respond(ctx context.Context, history []conversation.Message) (string, error)
}
