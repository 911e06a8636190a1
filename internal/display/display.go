package display

import (
	"fmt"
	"strings"

	"squad/internal/conversation"
)

const divider = "--------------------"

// FormatTranscript renders the final conversation as role -> content pairs.
func FormatTranscript(msgs []conversation.Message) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s Transcript %s\n", divider, divider))
	for _, m := range msgs {
		sb.WriteString(fmt.Sprintf("\n%s %s %s\n", divider, m.Author, divider))
		sb.WriteString(m.Content)
		if !strings.HasSuffix(m.Content, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
