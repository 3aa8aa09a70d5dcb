package embedding

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"gostrag/internal/config"
	"gostrag/internal/domain"
)

// OpenAIEmbedder is the remote provider, speaking the OpenAI embeddings
// API against a configurable base URL.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dim       int
	batchSize int
}

// NewOpenAI creates the remote embedder. The API key is resolved from
// the environment variable named in the config.
func NewOpenAI(cfg *config.OpenAIEmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: openai embedder config missing", domain.ErrConfig)
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: %s is not set", domain.ErrConfig, cfg.APIKeyEnv)
	}

	cc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	cc.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}

	dim := 1536 // text-embedding-3-small
	if cfg.Model == "text-embedding-3-large" {
		dim = 3072
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 32
	}
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cc),
		model:     cfg.Model,
		dim:       dim,
		batchSize: batch,
	}, nil
}

func (e *OpenAIEmbedder) Name() string { return "openai/" + e.model }

func (e *OpenAIEmbedder) Dimension() int { return e.dim }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds the texts in API batches of the configured size,
// returning one vector per input in order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: texts[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("%w: openai embeddings: %v", domain.ErrConnection, err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("%w: openai embeddings returned %d vectors for %d inputs", domain.ErrConnection, len(resp.Data), end-start)
		}
		for _, d := range resp.Data {
			vec := d.Embedding
			e.dim = len(vec)
			out = append(out, vec)
		}
	}
	return out, nil
}
