package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Completion is the uniform upstream result shape. Token counts feed the
// cost ledger.
type Completion struct {
	Text         string
	InputTokens  int32
	OutputTokens int32
}

// LLMClient is the single upstream call surface. Any network, HTTP or
// timeout error is treated uniformly as an upstream failure by the
// orchestrator; this client does not retry.
type LLMClient interface {
	Complete(ctx context.Context, prompt string, maxOutputTokens int32) (*Completion, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type geminiClient struct {
	client     *genai.Client
	modelName  string
	embedModel string
}

func NewGeminiClient(ctx context.Context, apiKey, model, embedModel string) (LLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiClient{
		client:     client,
		modelName:  model,
		embedModel: embedModel,
	}, nil
}

// Complete implements LLMClient.
func (g *geminiClient) Complete(ctx context.Context, prompt string, maxOutputTokens int32) (*Completion, error) {
	temperature := float32(0.3)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxOutputTokens,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response generated (nil response)")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	completion := &Completion{Text: text}
	if resp.UsageMetadata != nil {
		completion.InputTokens = resp.UsageMetadata.PromptTokenCount
		completion.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}

	return completion, nil
}

// GenerateEmbedding implements LLMClient.
func (g *geminiClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate overly long input; the embedding model has its own limit.
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}
