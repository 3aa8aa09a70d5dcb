// Package embedding converts text into fixed-dimension vectors through
// a remote API-backed provider or a locally hosted model.
package embedding

import (
	"context"
	"fmt"

	"gostrag/internal/config"
	"gostrag/internal/domain"
)

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	// Dimension is the output vector length, or 0 when the provider
	// only learns it from its first response.
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New selects the embedder implementation from configuration.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	switch cfg.Type {
	case "openai":
		return NewOpenAI(cfg.OpenAI)
	case "ollama":
		return NewOllama(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedder type %q", domain.ErrConfig, cfg.Type)
	}
}
