package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/iterator"
	"google.golang.org/genai"

	"github.com/yanqian/weatherlens/internal/domain/prompt"
	"github.com/yanqian/weatherlens/pkg/metrics"
)

const defaultModel = "gemini-2.5-pro"

// Client generates text with the Gemini API.
type Client struct {
	genai  *genai.Client
	model  string
	logger *slog.Logger
}

// ModelInfo describes a model visible to the API key.
type ModelInfo struct {
	Name             string
	DisplayName      string
	SupportedActions []string
}

// NewClient constructs a Gemini client.
func NewClient(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{genai: client, model: model, logger: logger.With("component", "llm.gemini")}, nil
}

// GenerateText runs a single prompt. An empty model uses the client default.
func (c *Client) GenerateText(ctx context.Context, model, text string, temperature float32) (prompt.Generation, error) {
	if strings.TrimSpace(model) == "" {
		model = c.model
	}
	cfg := &genai.GenerateContentConfig{}
	if temperature > 0 {
		cfg.Temperature = &temperature
	}

	resp, err := c.genai.Models.GenerateContent(ctx, model, genai.Text(text), cfg)
	if err != nil {
		return prompt.Generation{}, fmt.Errorf("generate content: %w", err)
	}
	out, err := responseText(resp)
	if err != nil {
		return prompt.Generation{}, err
	}
	return prompt.Generation{Text: out, Usage: usageOf(resp)}, nil
}

// ListModels returns every model visible to the API key.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	page, err := c.genai.Models.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	var out []ModelInfo
	for {
		for _, m := range page.Items {
			out = append(out, ModelInfo{Name: m.Name, DisplayName: m.DisplayName, SupportedActions: m.SupportedActions})
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		page, err = page.Next(ctx)
		if errors.Is(err, genai.ErrPageDone) || errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
	}
}

// SupportsGeneration reports whether the model can serve generateContent.
func (m ModelInfo) SupportsGeneration() bool {
	for _, action := range m.SupportedActions {
		if action == "generateContent" {
			return true
		}
	}
	return false
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func usageOf(resp *genai.GenerateContentResponse) metrics.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return metrics.TokenUsage{}
	}
	u := resp.UsageMetadata
	return metrics.TokenUsage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
	}
}

var _ prompt.TextGenerator = (*Client)(nil)
