package metrics

import "time"

type TurnMetrics struct {
	Seq        int       `json:"seq"`
	Role       string    `json:"role"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMs int64     `json:"duration_ms"`
	Err        string    `json:"err,omitempty"`
}

type CycleMetrics struct {
	Cycle      int           `json:"cycle"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	DurationMs int64         `json:"duration_ms"`
	Outcome    string        `json:"outcome"`
	Turns      []TurnMetrics `json:"turns"`
}

// Compute derived fields for a cycle.
func (c *CycleMetrics) Finalize() {
	c.DurationMs = c.End.Sub(c.Start).Milliseconds()
}
