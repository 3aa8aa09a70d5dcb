// Package qdrant is the networked collection store, a minimal REST
// client for a Qdrant server.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gostrag/internal/domain"
)

// Config fixes the server address and collection identity. The API key
// is resolved from the environment variable named in APIKeyEnv.
type Config struct {
	URL        string
	APIKeyEnv  string
	Collection string
	Dimension  int
	Metric     domain.Metric
	Timeout    int
}

// Store implements the collection store against a Qdrant server.
type Store struct {
	cfg       Config
	apiKey    string
	client    *http.Client
	connected bool
	log       *logrus.Logger
}

// New creates the store without contacting the server; Connect does.
func New(cfg Config, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		cfg:    cfg,
		apiKey: os.Getenv(cfg.APIKeyEnv),
		client: &http.Client{Timeout: timeout},
		log:    logger,
	}
}

// Connect verifies the server is reachable. Idempotent.
func (s *Store) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}
	if _, status, err := s.do(ctx, http.MethodGet, "", nil); err != nil {
		return err
	} else if status != http.StatusOK {
		return fmt.Errorf("%w: qdrant unhealthy: status %d", domain.ErrConnection, status)
	}
	s.connected = true
	s.log.WithField("url", s.cfg.URL).Info("connected to qdrant")
	return nil
}

func (s *Store) ensure(ctx context.Context) error {
	if s.connected {
		return nil
	}
	s.log.Warn("qdrant store not connected, reconnecting")
	return s.Connect(ctx)
}

func (s *Store) CreateCollection(ctx context.Context, overwrite bool) error {
	if s.cfg.Dimension <= 0 {
		return fmt.Errorf("%w: collection dimension must be positive, got %d", domain.ErrValidation, s.cfg.Dimension)
	}
	if err := s.ensure(ctx); err != nil {
		return err
	}
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if !overwrite {
			s.log.WithField("collection", s.cfg.Collection).Info("collection already exists")
			return nil
		}
		if _, status, err := s.do(ctx, http.MethodDelete, "/collections/"+s.cfg.Collection, nil); err != nil {
			return err
		} else if status >= 300 {
			return fmt.Errorf("%w: delete collection: status %d", domain.ErrConnection, status)
		}
		s.log.WithField("collection", s.cfg.Collection).Info("dropped existing collection")
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.cfg.Dimension,
			"distance": distanceName(s.cfg.Metric),
		},
	}
	if _, status, err := s.do(ctx, http.MethodPut, "/collections/"+s.cfg.Collection, body); err != nil {
		return err
	} else if status >= 300 {
		return fmt.Errorf("%w: create collection: status %d", domain.ErrConnection, status)
	}
	s.log.WithFields(logrus.Fields{
		"collection": s.cfg.Collection,
		"dimension":  s.cfg.Dimension,
		"metric":     s.cfg.Metric,
	}).Info("collection created")
	return nil
}

func (s *Store) LoadCollection(ctx context.Context) (bool, error) {
	if err := s.ensure(ctx); err != nil {
		return false, err
	}
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return false, err
	}
	if !exists {
		s.log.WithField("collection", s.cfg.Collection).Warn("collection not found")
	}
	return exists, nil
}

func (s *Store) Insert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensure(ctx); err != nil {
		return err
	}
	for i, r := range records {
		if len(r.Vector) != s.cfg.Dimension {
			return fmt.Errorf("%w: record %d has dimension %d, collection %s expects %d",
				domain.ErrValidation, i, len(r.Vector), s.cfg.Collection, s.cfg.Dimension)
		}
	}

	points := make([]map[string]any, len(records))
	for i, r := range records {
		payload := map[string]any{
			"id":   r.ID,
			"text": r.Text,
		}
		for k, v := range r.Metadata {
			payload["meta_"+k] = v
		}
		points[i] = map[string]any{
			// Qdrant point IDs must be UUIDs; derive one
			// deterministically so re-inserting a chunk overwrites it.
			"id":      uuid.NewSHA1(uuid.NameSpaceOID, []byte(r.ID)).String(),
			"vector":  r.Vector,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	if _, status, err := s.do(ctx, http.MethodPut, "/collections/"+s.cfg.Collection+"/points?wait=true", body); err != nil {
		return err
	} else if status == http.StatusNotFound {
		return fmt.Errorf("%w: collection %s does not exist", domain.ErrNotFound, s.cfg.Collection)
	} else if status >= 300 {
		return fmt.Errorf("%w: upsert points: status %d", domain.ErrConnection, status)
	}
	s.log.WithFields(logrus.Fields{
		"collection": s.cfg.Collection,
		"count":      len(records),
	}).Info("records inserted")
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]domain.SearchHit, error) {
	if err := s.ensure(ctx); err != nil {
		s.log.WithError(err).Warn("search without connection")
		return []domain.SearchHit{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	data, status, err := s.do(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points/search", body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []domain.SearchHit{}, nil
	}
	if status >= 300 {
		return nil, fmt.Errorf("%w: search: status %d", domain.ErrConnection, status)
	}

	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", domain.ErrConnection, err)
	}

	hits := make([]domain.SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		rec := domain.Record{Metadata: map[string]string{}}
		for k, v := range r.Payload {
			sv, ok := v.(string)
			if !ok {
				continue
			}
			switch {
			case k == "id":
				rec.ID = sv
			case k == "text":
				rec.Text = sv
			case len(k) > 5 && k[:5] == "meta_":
				rec.Metadata[k[5:]] = sv
			}
		}
		hits = append(hits, domain.SearchHit{Record: rec, Score: r.Score})
	}
	// Qdrant already returns results ordered, but L2 scores come back
	// as distances; keep the contract of descending similarity.
	if s.cfg.Metric == domain.MetricL2 {
		for i := range hits {
			hits[i].Score = -hits[i].Score
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	}
	return hits, nil
}

func (s *Store) Stats(ctx context.Context) (domain.CollectionStats, error) {
	stats := domain.CollectionStats{Name: s.cfg.Collection}
	if err := s.ensure(ctx); err != nil {
		s.log.WithError(err).Warn("stats without connection")
		return stats, nil
	}
	data, status, err := s.do(ctx, http.MethodGet, "/collections/"+s.cfg.Collection, nil)
	if err != nil || status != http.StatusOK {
		return stats, nil
	}
	var resp struct {
		Result struct {
			PointsCount int64 `json:"points_count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return stats, nil
	}
	stats.Exists = true
	stats.NumEntities = resp.Result.PointsCount
	stats.Dimension = s.cfg.Dimension
	stats.Metric = s.cfg.Metric
	return stats, nil
}

// Disconnect drops the connection flag; the HTTP client has no
// persistent state to release.
func (s *Store) Disconnect() error {
	s.connected = false
	return nil
}

func (s *Store) collectionExists(ctx context.Context) (bool, error) {
	_, status, err := s.do(ctx, http.MethodGet, "/collections/"+s.cfg.Collection, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK, nil
}

func (s *Store) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: encode request: %v", domain.ErrValidation, err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.cfg.URL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", domain.ErrConnection, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: qdrant %s %s: %v", domain.ErrConnection, method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response: %v", domain.ErrConnection, err)
	}
	return data, resp.StatusCode, nil
}

func distanceName(m domain.Metric) string {
	switch m {
	case domain.MetricL2:
		return "Euclid"
	case domain.MetricDot:
		return "Dot"
	default:
		return "Cosine"
	}
}
