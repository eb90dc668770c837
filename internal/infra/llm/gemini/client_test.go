package gemini

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/yanqian/weatherlens/pkg/metrics"
)

func TestResponseTextJoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Add soft drizzle. "}, nil, {Text: "Cool the tones."}}},
		}},
	}
	text, err := responseText(resp)
	require.NoError(t, err)
	require.Equal(t, "Add soft drizzle. Cool the tones.", text)
}

func TestResponseTextWithoutCandidates(t *testing.T) {
	_, err := responseText(&genai.GenerateContentResponse{})
	require.Error(t, err)
	_, err = responseText(nil)
	require.Error(t, err)
}

func TestUsageOf(t *testing.T) {
	resp := &genai.GenerateContentResponse{UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount: 120, CandidatesTokenCount: 40, TotalTokenCount: 160,
	}}
	require.Equal(t, metrics.TokenUsage{PromptTokens: 120, CompletionTokens: 40, TotalTokens: 160}, usageOf(resp))
	require.True(t, usageOf(&genai.GenerateContentResponse{}).IsZero())
}

func TestModelInfoSupportsGeneration(t *testing.T) {
	require.True(t, ModelInfo{SupportedActions: []string{"countTokens", "generateContent"}}.SupportsGeneration())
	require.False(t, ModelInfo{SupportedActions: []string{"embedContent"}}.SupportsGeneration())
}
