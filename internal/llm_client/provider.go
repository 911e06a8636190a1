package llm_client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"squad/internal/llmerrors"
	"squad/internal/metrics"
)

var ErrNotInitialized = errors.New("llm provider not initialized")

type Config struct {
	Backend    string
	Model      string
	OllamaHost string
}

// Provider is the generation capability. Implementations classify their
// failures via llmerrors before returning; this is the only place in the
// program where failures are classified.
type Provider interface {
	Init(cfg Config) error
	DefaultModel() string
	AllowedModelOrDefault(model string) string
	Generate(ctx context.Context, prompt, model string) (string, metrics.Usage, error)
}

var (
	active   Provider
	activeID string
)

func Init(cfg Config) error {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "gemini"
	}
	var p Provider
	switch backend {
	case "ollama":
		p = &ollamaProvider{}
		activeID = "ollama"
	case "gemini":
		p = &geminiProvider{}
		activeID = "gemini"
	default:
		return fmt.Errorf("unsupported LLM backend: %s", backend)
	}
	if err := p.Init(cfg); err != nil {
		return err
	}
	active = p
	return nil
}

func ActiveBackend() string {
	if active == nil {
		return ""
	}
	return activeID
}

func AllowedModelOrDefault(m string) string {
	return active.AllowedModelOrDefault(m)
}

func Generate(ctx context.Context, prompt, model string) (string, metrics.Usage, error) {
	if active == nil {
		return "", metrics.Usage{}, llmerrors.Wrap(llmerrors.TypeFatal, ErrNotInitialized, "generate")
	}
	return active.Generate(ctx, prompt, model)
}
