// Package vectorstore owns the lifecycle of one named vector collection
// and its raw insert/search primitives.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"gostrag/internal/config"
	"gostrag/internal/domain"
	"gostrag/internal/vectorstore/memory"
	"gostrag/internal/vectorstore/qdrant"
	"gostrag/internal/vectorstore/sqlite"
)

// Store is the collection store contract. One Store instance manages
// one named collection and holds at most one live connection,
// reestablished lazily when absent.
//
// Lifecycle calls are idempotent: Connect when already connected,
// CreateCollection without overwrite when the collection exists, and
// Disconnect when never connected are all no-op successes. Search
// against a missing or empty collection returns an empty slice, never
// an error, and Stats always returns a structured value.
type Store interface {
	Connect(ctx context.Context) error
	CreateCollection(ctx context.Context, overwrite bool) error
	// LoadCollection reports whether the collection is present and
	// usable. Backends without a separate load step treat it as a
	// presence check.
	LoadCollection(ctx context.Context) (bool, error)
	// Insert writes the batch atomically: a single vector of the wrong
	// dimension rejects the whole batch.
	Insert(ctx context.Context, records []domain.Record) error
	Search(ctx context.Context, vector []float32, limit int) ([]domain.SearchHit, error)
	Stats(ctx context.Context) (domain.CollectionStats, error)
	Disconnect() error
}

// New selects the backend from configuration.
func New(cfg config.VectorStoreConfig, logger *logrus.Logger) (Store, error) {
	metric, err := domain.ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}
	switch cfg.Type {
	case "sqlite":
		if cfg.SQLite == nil {
			return nil, fmt.Errorf("%w: sqlite store config missing", domain.ErrConfig)
		}
		return sqlite.New(sqlite.Config{
			Path:       cfg.SQLite.Path,
			Collection: cfg.Collection,
			Dimension:  cfg.Dimension,
			Metric:     metric,
		}, logger), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("%w: qdrant store config missing", domain.ErrConfig)
		}
		return qdrant.New(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKeyEnv:  cfg.Qdrant.APIKeyEnv,
			Collection: cfg.Collection,
			Dimension:  cfg.Dimension,
			Metric:     metric,
			Timeout:    cfg.Qdrant.TimeoutSecs,
		}, logger), nil
	case "memory":
		return memory.New(cfg.Collection, cfg.Dimension, metric, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector store type %q", domain.ErrConfig, cfg.Type)
	}
}
