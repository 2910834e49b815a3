// Package embedding declares the embed() contract from spec §6.3 and an
// OpenAI-compatible implementation, following the teacher's
// internal/models/embedding/embedder.go shape (a narrow interface, a
// provider-specific struct satisfying it via an HTTP-backed SDK client).
package embedding

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Tencent/kgsearch/internal/apperr"
)

// Embedder is the embed() contract (spec §6.3): deterministic for identical
// input, implementations may cache.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder wraps an OpenAI-compatible client (baseURL may point at
// any compatible provider, matching the teacher's routing in embedder.go).
func NewOpenAIEmbedder(client *openai.Client, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: client, model: openai.EmbeddingModel(model)}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, apperr.LLMTransport("embed", err)
	}
	if len(resp.Data) == 0 {
		return nil, apperr.LLMTransport("embed returned no data", nil)
	}
	return resp.Data[0].Embedding, nil
}
