package display

import (
	"fmt"
	"strings"

	"squad/internal/metrics"
)

func FormatCycleMetrics(cycles []*metrics.CycleMetrics) string {
	if len(cycles) == 0 {
		return "No cycle metrics available."
	}
	var sb strings.Builder
	sb.WriteString("Cycle metrics:\n")
	for _, c := range cycles {
		sb.WriteString(fmt.Sprintf("- Cycle %d: %d ms, %d turns  (%s)\n",
			c.Cycle, c.DurationMs, len(c.Turns), c.Outcome))
		for _, t := range c.Turns {
			status := "ok"
			if t.Err != "" {
				status = "err"
			}
			sb.WriteString(fmt.Sprintf("    #%-3d %-16s %6d ms  [%s]\n",
				t.Seq, t.Role, t.DurationMs, status))
		}
	}
	return sb.String()
}

func FormatUsage(t *metrics.UsageTracker) string {
	if t == nil {
		return "No usage recorded."
	}
	var sb strings.Builder
	sb.WriteString("Token usage:\n")
	sb.WriteString(fmt.Sprintf("- Prompt:     %d\n", t.PromptUnits()))
	sb.WriteString(fmt.Sprintf("- Completion: %d\n", t.CompletionUnits()))
	sb.WriteString(fmt.Sprintf("- Total:      %d", t.Total()))
	return sb.String()
}
