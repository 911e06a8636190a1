package llm_client

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"squad/internal/llmerrors"
	"squad/internal/metrics"
)

type geminiProvider struct {
	client *genai.Client
	model  string
}

const geminiDefault = "gemini-2.0-flash"

func (p *geminiProvider) Init(cfg Config) error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	c, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("gemini client init: %w", err)
	}
	p.client = c
	if strings.TrimSpace(cfg.Model) != "" {
		p.model = cfg.Model
	} else {
		p.model = geminiDefault
	}
	return nil
}

func (p *geminiProvider) DefaultModel() string { return geminiDefault }

func (p *geminiProvider) AllowedModelOrDefault(model string) string {
	m := strings.TrimSpace(model)
	if m == "" {
		return p.model
	}
	if !strings.HasPrefix(strings.ToLower(model), "gemini-") {
		return geminiDefault
	}
	return m
}

func (p *geminiProvider) Generate(ctx context.Context, prompt, model string) (string, metrics.Usage, error) {
	if p.client == nil {
		return "", metrics.Usage{}, llmerrors.Wrap(llmerrors.TypeFatal, ErrNotInitialized, "gemini")
	}
	m := p.AllowedModelOrDefault(model)
	resp, err := p.client.Models.GenerateContent(ctx, m, genai.Text(prompt), nil)
	if err != nil {
		return "", metrics.Usage{}, llmerrors.Classify(fmt.Errorf("gemini generate: %w", err))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", metrics.Usage{}, llmerrors.New(llmerrors.TypeFatal, "gemini: empty response")
	}
	content := resp.Candidates[0].Content.Parts[0].Text

	usage := metrics.EstimateUsage(prompt, content)
	if md := resp.UsageMetadata; md != nil && md.PromptTokenCount > 0 {
		usage = metrics.Usage{
			PromptUnits:     int(md.PromptTokenCount),
			CompletionUnits: int(md.CandidatesTokenCount),
		}
	}
	return content, usage, nil
}
