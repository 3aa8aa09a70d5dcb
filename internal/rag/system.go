// Package rag composes the collection store, the ingestion pipeline
// and the query pipeline into the two user-facing operations: index
// and query.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"gostrag/internal/chunker"
	"gostrag/internal/completion"
	"gostrag/internal/config"
	"gostrag/internal/domain"
	"gostrag/internal/embedding"
	"gostrag/internal/ingest"
	"gostrag/internal/retry"
	"gostrag/internal/vectorstore"
)

// System is the orchestrator. It owns one collection store and wraps
// the terminal query call in the retry executor.
type System struct {
	cfg       *config.Config
	log       *logrus.Logger
	store     vectorstore.Store
	embedder  embedding.Embedder
	completer completion.Completer
	pipeline  *ingest.Pipeline
	retrier   *retry.Executor
	ready     bool
}

// New wires a system from explicit components. Tests inject fakes
// here; the binaries use NewFromConfig.
func New(cfg *config.Config, store vectorstore.Store, emb embedding.Embedder, comp completion.Completer, logger *logrus.Logger) (*System, error) {
	if logger == nil {
		logger = logrus.New()
	}
	ch, err := chunker.NewSentenceChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	switch cfg.RAG.OnExisting {
	case "", "append", "overwrite", "error":
	default:
		return nil, fmt.Errorf("%w: rag.on_existing must be append, overwrite or error, got %q", domain.ErrValidation, cfg.RAG.OnExisting)
	}
	return &System{
		cfg:       cfg,
		log:       logger,
		store:     store,
		embedder:  emb,
		completer: comp,
		pipeline:  ingest.NewPipeline(ch, emb, logger),
		retrier:   retry.New(cfg.Retry.MaxRetries, time.Duration(cfg.Retry.DelayMs)*time.Millisecond, cfg.Retry.Backoff, logger),
	}, nil
}

// NewFromConfig builds every component from configuration.
func NewFromConfig(cfg *config.Config, logger *logrus.Logger) (*System, error) {
	if logger == nil {
		logger = logrus.New()
	}
	store, err := vectorstore.New(cfg.VectorStore, logger)
	if err != nil {
		return nil, err
	}
	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	comp, err := completion.NewOpenAI(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return New(cfg, store, emb, comp, logger)
}

// Initialize connects the store, ensures the collection exists and
// attaches it. With createNew the existing collection is destroyed and
// recreated. The embedder's output dimension, when known up front, must
// match the collection's.
func (s *System) Initialize(ctx context.Context, createNew bool) error {
	if dim := s.embedder.Dimension(); dim != 0 && dim != s.cfg.VectorStore.Dimension {
		return fmt.Errorf("%w: embedder %s produces %d-dimensional vectors but collection %s is configured for %d",
			domain.ErrValidation, s.embedder.Name(), dim, s.cfg.VectorStore.Collection, s.cfg.VectorStore.Dimension)
	}
	if err := s.store.Connect(ctx); err != nil {
		return err
	}
	if err := s.store.CreateCollection(ctx, createNew); err != nil {
		return err
	}
	loaded, err := s.store.LoadCollection(ctx)
	if err != nil {
		return err
	}
	if !loaded {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, s.cfg.VectorStore.Collection)
	}
	s.ready = true
	s.log.WithField("collection", s.cfg.VectorStore.Collection).Info("rag system initialized")
	return nil
}

// Ready reports whether Initialize has completed.
func (s *System) Ready() bool { return s.ready }

// Index loads documents from path and writes their embedded chunks
// into the collection. When the collection already holds data and
// Initialize was not asked to overwrite, the configured on_existing
// policy decides between appending, recreating and refusing.
func (s *System) Index(ctx context.Context, path string) (int, error) {
	if !s.ready {
		return 0, fmt.Errorf("%w: call Initialize before Index", domain.ErrNotReady)
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return 0, err
	}
	if stats.NumEntities > 0 {
		switch s.cfg.RAG.OnExisting {
		case "error":
			return 0, fmt.Errorf("%w: collection %s already holds %d entities", domain.ErrValidation, stats.Name, stats.NumEntities)
		case "overwrite":
			s.log.WithField("collection", stats.Name).Info("recreating populated collection per on_existing policy")
			if err := s.store.CreateCollection(ctx, true); err != nil {
				return 0, err
			}
		}
	}

	docs, err := ingest.Load(path)
	if err != nil {
		return 0, err
	}
	n, err := s.pipeline.Index(ctx, docs, s.store)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{
		"path":   path,
		"chunks": n,
	}).Info("indexing complete")
	return n, nil
}

// Answer runs the retry-wrapped query pipeline: embed the question,
// retrieve the top-K chunks, assemble the grounded prompt, generate a
// completion and return it with the cited sources.
func (s *System) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	if !s.ready {
		return nil, fmt.Errorf("%w: no collection attached", domain.ErrNotReady)
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrValidation)
	}
	var answer *domain.Answer
	err := s.retrier.Do(ctx, "rag.answer", func() error {
		a, err := s.answerOnce(ctx, question)
		if err != nil {
			return err
		}
		answer = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

func (s *System) answerOnce(ctx context.Context, question string) (*domain.Answer, error) {
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	hits, err := s.store.Search(ctx, vec, s.cfg.RAG.TopK)
	if err != nil {
		return nil, fmt.Errorf("search collection: %w", err)
	}
	prompt := buildPrompt(s.cfg.RAG.PromptTemplate, question, hits)
	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]domain.Source, len(hits))
	for i, h := range hits {
		sources[i] = domain.Source{Text: h.Text, Score: h.Score, Metadata: h.Metadata}
	}
	return &domain.Answer{Text: text, Sources: sources}, nil
}

// Extract answers the fixed structured-extraction question for a steel
// strength class. Same pipeline as Answer, different prompt.
func (s *System) Extract(ctx context.Context, className string) (*domain.Answer, error) {
	if strings.TrimSpace(className) == "" {
		return nil, fmt.Errorf("%w: class name is empty", domain.ErrValidation)
	}
	return s.Answer(ctx, extractQuestion(className))
}

// Stats reports collection stats plus the effective configuration.
func (s *System) Stats(ctx context.Context) (domain.SystemStats, error) {
	cs, err := s.store.Stats(ctx)
	if err != nil {
		return domain.SystemStats{}, err
	}
	return domain.SystemStats{
		Collection:     cs,
		Model:          s.completer.Model(),
		EmbeddingModel: s.embedder.Name(),
		ChunkSize:      s.cfg.RAG.ChunkSize,
		ChunkOverlap:   s.cfg.RAG.ChunkOverlap,
		TopK:           s.cfg.RAG.TopK,
	}, nil
}

// Close releases the store connection.
func (s *System) Close() error {
	s.ready = false
	return s.store.Disconnect()
}
