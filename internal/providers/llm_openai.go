package providers

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"tripweaver/internal/models/domain_models"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) generateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You return only valid JSON. Never use markdown."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) ParseTrip(ctx context.Context, message string) (*TripParse, error) {
	raw, err := c.generateJSON(ctx, buildParsePrompt(message))
	if err != nil {
		return nil, err
	}
	parsed, err := parseTripJSON(raw)
	if err == nil {
		return parsed, nil
	}
	raw, err = c.generateJSON(ctx, buildStrictParsePrompt(message))
	if err != nil {
		return nil, err
	}
	return parseTripJSON(raw)
}

func (c *OpenAIClient) PhraseQuestions(ctx context.Context, missingFields []string) ([]string, error) {
	raw, err := c.generateJSON(ctx, buildQuestionPrompt(missingFields))
	if err != nil {
		return nil, err
	}
	return parseQuestionJSON(raw)
}

func (c *OpenAIClient) GeneratePOIs(ctx context.Context, city string, themes []string, count int) ([]domain_models.POI, error) {
	if count < 1 || count > 40 {
		return nil, fmt.Errorf("bad poi count %d", count)
	}
	raw, err := c.generateJSON(ctx, buildPOIPrompt(city, themes, count))
	if err != nil {
		return nil, err
	}
	return parseGeneratedPOIs(raw, city)
}
