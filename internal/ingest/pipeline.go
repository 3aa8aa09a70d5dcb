package ingest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"gostrag/internal/chunker"
	"gostrag/internal/domain"
	"gostrag/internal/embedding"
	"gostrag/internal/vectorstore"
)

// Pipeline chunks documents, embeds the chunks and inserts the
// resulting records into a collection store.
type Pipeline struct {
	chunker  *chunker.SentenceChunker
	embedder embedding.Embedder
	log      *logrus.Logger
}

// NewPipeline wires the chunker and embedder.
func NewPipeline(ch *chunker.SentenceChunker, emb embedding.Embedder, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{chunker: ch, embedder: emb, log: logger}
}

// Index processes the documents into store and returns the number of
// chunks written. Chunk IDs are stable per document, so re-indexing the
// same files overwrites rather than duplicates.
func (p *Pipeline) Index(ctx context.Context, docs []domain.Document, store vectorstore.Store) (int, error) {
	var chunks []domain.Chunk
	for _, doc := range docs {
		cs, err := p.chunker.Chunk(doc)
		if err != nil {
			return 0, fmt.Errorf("chunk %s: %w", doc.Path, err)
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: documents contain no text", domain.ErrValidation)
	}
	p.log.WithFields(logrus.Fields{
		"documents": len(docs),
		"chunks":    len(chunks),
		"embedder":  p.embedder.Name(),
	}).Info("embedding chunks")

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: embedder returned %d vectors for %d chunks", domain.ErrValidation, len(vectors), len(chunks))
	}

	records := make([]domain.Record, len(chunks))
	for i, c := range chunks {
		records[i] = domain.Record{
			ID:       c.ID,
			Vector:   vectors[i],
			Text:     c.Text,
			Metadata: c.Metadata,
		}
	}
	if err := store.Insert(ctx, records); err != nil {
		return 0, fmt.Errorf("insert records: %w", err)
	}
	return len(records), nil
}
