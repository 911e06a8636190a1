package metrics

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// CountTokens approximates the token count of text with a GPT-4 codec,
// falling back to the 4-chars-per-token heuristic if the codec is missing.
func CountTokens(text string) int {
	codecOnce.Do(func() {
		c, err := tokenizer.ForModel(tokenizer.GPT4)
		if err == nil {
			codec = c
		}
	})
	if codec == nil {
		return len(text) / 4
	}
	n, err := codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return n
}

// EstimateUsage fills in usage for providers that report no counts.
func EstimateUsage(prompt, completion string) Usage {
	return Usage{
		PromptUnits:     CountTokens(prompt),
		CompletionUnits: CountTokens(completion),
	}
}
