package providers

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tripweaver/internal/models/domain_models"
)

// GeminiClient wraps the Gemini API in JSON-only mode.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

func (c *GeminiClient) generateJSON(ctx context.Context, prompt string) (string, error) {
	m := c.client.GenerativeModel(c.model)
	m.ResponseMIMEType = "application/json"
	m.SetTopP(0.5)
	m.SetTopK(20)
	m.SetTemperature(0.1)

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no content")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

func (c *GeminiClient) ParseTrip(ctx context.Context, message string) (*TripParse, error) {
	raw, err := c.generateJSON(ctx, buildParsePrompt(message))
	if err != nil {
		return nil, err
	}
	parsed, err := parseTripJSON(raw)
	if err == nil {
		return parsed, nil
	}
	// One retry with a stricter prompt before giving up on LLM parse.
	raw, err = c.generateJSON(ctx, buildStrictParsePrompt(message))
	if err != nil {
		return nil, err
	}
	return parseTripJSON(raw)
}

func (c *GeminiClient) PhraseQuestions(ctx context.Context, missingFields []string) ([]string, error) {
	raw, err := c.generateJSON(ctx, buildQuestionPrompt(missingFields))
	if err != nil {
		return nil, err
	}
	return parseQuestionJSON(raw)
}

func (c *GeminiClient) GeneratePOIs(ctx context.Context, city string, themes []string, count int) ([]domain_models.POI, error) {
	if count < 1 || count > 40 {
		return nil, fmt.Errorf("bad poi count %d", count)
	}
	raw, err := c.generateJSON(ctx, buildPOIPrompt(city, themes, count))
	if err != nil {
		return nil, err
	}
	return parseGeneratedPOIs(raw, city)
}
