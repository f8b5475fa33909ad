package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewOpenAIEmbedder returns an embedder backed by the OpenAI embeddings API.
// The returned value satisfies langchaingo's embeddings.Embedder, which is
// what the vector store consumes.
func NewOpenAIEmbedder(apiKey, model string) (embeddings.Embedder, error) {
	client, err := openai.New(openai.WithToken(apiKey), openai.WithEmbeddingModel(model))
	if err != nil {
		return nil, fmt.Errorf("could not create OpenAI embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("could not create embedder: %w", err)
	}
	return embedder, nil
}
