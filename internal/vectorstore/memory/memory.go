// Package memory is an in-process collection store used for tests and
// small corpora.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"gostrag/internal/domain"
	"gostrag/internal/vectorstore/similarity"
)

// Store keeps records in memory and searches them by brute force.
type Store struct {
	mu        sync.RWMutex
	name      string
	dimension int
	metric    domain.Metric
	created   bool
	records   []domain.Record
	log       *logrus.Logger
}

// New returns a store for the named collection.
func New(collection string, dimension int, metric domain.Metric, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{name: collection, dimension: dimension, metric: metric, log: logger}
}

// Connect is a no-op success; there is no remote backend.
func (s *Store) Connect(_ context.Context) error { return nil }

func (s *Store) CreateCollection(_ context.Context, overwrite bool) error {
	if s.dimension <= 0 {
		return fmt.Errorf("%w: collection dimension must be positive, got %d", domain.ErrValidation, s.dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created && !overwrite {
		s.log.WithField("collection", s.name).Info("collection already exists")
		return nil
	}
	if s.created && overwrite {
		s.log.WithField("collection", s.name).Info("dropping existing collection")
	}
	s.records = nil
	s.created = true
	return nil
}

func (s *Store) LoadCollection(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created, nil
}

func (s *Store) Insert(_ context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return fmt.Errorf("%w: collection %s does not exist", domain.ErrNotFound, s.name)
	}
	for i, r := range records {
		if len(r.Vector) != s.dimension {
			return fmt.Errorf("%w: record %d has dimension %d, collection %s expects %d",
				domain.ErrValidation, i, len(r.Vector), s.name, s.dimension)
		}
	}
	// Same-ID records replace rather than duplicate, matching the
	// upsert semantics of the networked backends.
	for _, r := range records {
		replaced := false
		for i := range s.records {
			if s.records[i].ID == r.ID {
				s.records[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			s.records = append(s.records, r)
		}
	}
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, limit int) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created || len(s.records) == 0 {
		return []domain.SearchHit{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	hits := make([]domain.SearchHit, 0, len(s.records))
	for _, r := range s.records {
		if len(r.Vector) != len(vector) {
			continue
		}
		hits = append(hits, domain.SearchHit{Record: r, Score: similarity.Score(s.metric, r.Vector, vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Store) Stats(_ context.Context) (domain.CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created {
		return domain.CollectionStats{Name: s.name, Exists: false}, nil
	}
	return domain.CollectionStats{
		Name:        s.name,
		Exists:      true,
		NumEntities: int64(len(s.records)),
		Dimension:   s.dimension,
		Metric:      s.metric,
	}, nil
}

// Disconnect is safe to call any number of times.
func (s *Store) Disconnect() error { return nil }
