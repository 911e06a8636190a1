package llm_client

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ollama/ollama/api"

	"squad/internal/llmerrors"
	"squad/internal/metrics"
)

type ollamaProvider struct {
	client *api.Client
	model  string
}

const ollamaDefault = "phi4:latest"

func (p *ollamaProvider) Init(cfg Config) error {
	c, err := api.ClientFromEnvironment()
	if err != nil {
		host := cfg.OllamaHost
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		u, uerr := url.Parse(host)
		if uerr != nil {
			return fmt.Errorf("ollama: bad host %q: %w", host, uerr)
		}
		c = api.NewClient(u, nil)
	}
	p.client = c
	if strings.TrimSpace(cfg.Model) != "" {
		p.model = cfg.Model
	} else {
		p.model = ollamaDefault
	}
	return nil
}

func (p *ollamaProvider) DefaultModel() string { return ollamaDefault }

func (p *ollamaProvider) AllowedModelOrDefault(model string) string {
	m := strings.TrimSpace(model)
	if m == "" {
		return p.model
	}
	return m
}

func (p *ollamaProvider) Generate(ctx context.Context, prompt, model string) (string, metrics.Usage, error) {
	if p.client == nil {
		return "", metrics.Usage{}, llmerrors.Wrap(llmerrors.TypeFatal, ErrNotInitialized, "ollama")
	}
	stream := false
	req := &api.GenerateRequest{
		Model:  p.AllowedModelOrDefault(model),
		Prompt: prompt,
		Stream: &stream,
	}

	var out strings.Builder
	var usage metrics.Usage
	err := p.client.Generate(ctx, req, func(gr api.GenerateResponse) error {
		out.WriteString(gr.Response)
		usage.PromptUnits += gr.PromptEvalCount
		usage.CompletionUnits += gr.EvalCount
		return nil
	})
	if err != nil {
		return "", metrics.Usage{}, llmerrors.Classify(fmt.Errorf("ollama generate: %w", err))
	}

	content := out.String()
	if usage.PromptUnits == 0 && usage.CompletionUnits == 0 {
		usage = metrics.EstimateUsage(prompt, content)
	}
	return content, usage, nil
}
