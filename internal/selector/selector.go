// Package selector decides who speaks next from the message history alone.
// Select is pure and deterministic; when no rule matches, the caller falls
// back to an Arbiter.
package selector

import (
	"strings"

	"squad/internal/conversation"
	"squad/internal/parser"
	"squad/internal/roster"
)

// Select applies the routing rules in strict priority order and returns the
// next speaker. The second return is false when no rule matches (defer to
// the arbiter). No I/O, no side effects.
func Select(history []conversation.Message, r *roster.Roster) (roster.ID, bool) {
	if len(history) == 0 {
		return "", false
	}
	last := history[len(history)-1]
	lastRole, ok := r.Lookup(last.Author)
	if !ok {
		// Task seed or unknown author: nothing to route on.
		return "", false
	}

	// Rule 1: an execution result always returns to the role that triggered
	// it. Scan strictly earlier messages for the most recent producer or
	// reviewer; if none (the executor spoke first), the planner takes over.
	if lastRole.Tag == roster.TagExecutor {
		for i := len(history) - 2; i >= 0; i-- {
			if role, ok := r.Lookup(history[i].Author); ok {
				if role.Tag == roster.TagProducer || role.Tag == roster.TagReviewer {
					return role.ID, true
				}
			}
		}
		return r.Planner(), true
	}

	// A reviewer pass outranks any code fence in the same message.
	if lastRole.Tag == roster.TagReviewer && strings.Contains(last.Content, r.PassMarker()) {
		return r.Planner(), true
	}

	// Rule 2: fenced code forces the executor, except that a backend-style
	// producer emitting a full HTML document hands off to the frontend-style
	// producer instead.
	if (lastRole.Tag == roster.TagProducer || lastRole.Tag == roster.TagReviewer) &&
		parser.HasCodeFence(last.Content) {
		if lastRole.Style == roster.StyleBackend && parser.HasHTMLDocument(last.Content) {
			if fe, ok := r.FrontendProducer(); ok {
				return fe, true
			}
		}
		return r.Executor(), true
	}

	return "", false
}
