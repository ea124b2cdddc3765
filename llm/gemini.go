package llm

import (
	"context"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client. It asks
// for application/json output and applies the same retry policy as the
// OpenAI client.
type GeminiClient struct {
	cli   *genai.Client
	model string
	retry RetryConfig
}

// NewGeminiClient creates a Gemini-backed client. The genai SDK reads its
// API key from the environment when the config leaves it unset.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model, retry: DefaultRetryConfig()}, nil
}

func (g *GeminiClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, error) {
	var result map[string]any

	err := withRetry(ctx, g.retry, func() error {
		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: userPrompt}}}},
			&genai.GenerateContentConfig{
				ResponseMIMEType:  "application/json",
				SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
			},
		)
		if err != nil {
			return err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
			len(resp.Candidates[0].Content.Parts) == 0 {
			return ErrInvalidJSON
		}
		result, err = parseObject([]byte(resp.Candidates[0].Content.Parts[0].Text))
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
