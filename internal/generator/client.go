package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// =============================================================================
// COLLABORATOR CLIENT
// =============================================================================

// Client is the collaborator surface the generator depends on. Implementations
// take a system instruction and a user prompt and return the raw completion
// text, which may still carry markdown fences.
type Client interface {
	CompleteWithSystem(ctx context.Context, system, user string) (string, error)
}

// defaultModel is used when no model is configured.
const defaultModel = "gemini-2.0-flash"

// codeGenTemperature is kept low for structured code output.
const codeGenTemperature float32 = 0.3

// GenAIClient talks to the Gemini API.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a collaborator client. An empty model selects the
// default code-generation model.
func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIClient{client: client, model: model}, nil
}

// CompleteWithSystem sends one system+user exchange and returns the text.
func (c *GenAIClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(codeGenTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	text := result.Text()
	if text == "" {
		return "", ErrEmptyRoutine
	}
	return text, nil
}
