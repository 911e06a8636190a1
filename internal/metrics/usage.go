package metrics

import "sync/atomic"

// Usage is the per-call resource consumption reported by a provider.
type Usage struct {
	PromptUnits     int `json:"prompt_units"`
	CompletionUnits int `json:"completion_units"`
}

// UsageTracker accumulates usage across every cycle of a run, including
// failed ones. The dispatch boundary adds returned Usage values directly;
// nothing in routing ever reads it. Reset only by process restart.
type UsageTracker struct {
	prompt     atomic.Int64
	completion atomic.Int64
}

func (t *UsageTracker) Add(u Usage) {
	t.prompt.Add(int64(u.PromptUnits))
	t.completion.Add(int64(u.CompletionUnits))
}

func (t *UsageTracker) PromptUnits() int64     { return t.prompt.Load() }
func (t *UsageTracker) CompletionUnits() int64 { return t.completion.Load() }

func (t *UsageTracker) Total() int64 {
	return t.prompt.Load() + t.completion.Load()
}
