// Package sqlite is the embedded collection store. It keeps vectors in
// a local SQLite file, the analogue of an embedded vector database:
// no server, one file, brute-force similarity search.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"gostrag/internal/domain"
	"gostrag/internal/vectorstore/similarity"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
    name      TEXT PRIMARY KEY,
    dimension INTEGER NOT NULL,
    metric    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    text       TEXT,
    metadata   TEXT,
    embedding  BLOB NOT NULL,
    PRIMARY KEY (collection, id)
);
`

// Config fixes the store's file path and collection identity.
type Config struct {
	Path       string
	Collection string
	Dimension  int
	Metric     domain.Metric
}

// Store implements the collection store over one SQLite database file.
type Store struct {
	cfg Config
	db  *sql.DB
	log *logrus.Logger
}

// New creates the store without touching the file; Connect opens it.
func New(cfg Config, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{cfg: cfg, log: logger}
}

// Connect opens the database file and ensures the schema. Calling it
// when already connected is a no-op success.
func (s *Store) Connect(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.cfg.Path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrConnection, s.cfg.Path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: ping %s: %v", domain.ErrConnection, s.cfg.Path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: ensure schema: %v", domain.ErrConnection, err)
	}
	s.db = db
	s.log.WithField("path", s.cfg.Path).Info("connected to sqlite vector store")
	return nil
}

// ensure reestablishes the connection lazily when it is absent.
func (s *Store) ensure(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	s.log.Warn("sqlite store not connected, reconnecting")
	return s.Connect(ctx)
}

func (s *Store) CreateCollection(ctx context.Context, overwrite bool) error {
	if s.cfg.Dimension <= 0 {
		return fmt.Errorf("%w: collection dimension must be positive, got %d", domain.ErrValidation, s.cfg.Dimension)
	}
	if err := s.ensure(ctx); err != nil {
		return err
	}
	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if exists && !overwrite {
		s.log.WithField("collection", s.cfg.Collection).Info("collection already exists")
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrConnection, err)
	}
	defer func() { _ = tx.Rollback() }()

	if exists {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, s.cfg.Collection); err != nil {
			return fmt.Errorf("%w: drop collection data: %v", domain.ErrConnection, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, s.cfg.Collection); err != nil {
			return fmt.Errorf("%w: drop collection: %v", domain.ErrConnection, err)
		}
		s.log.WithField("collection", s.cfg.Collection).Info("dropped existing collection")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collections(name, dimension, metric) VALUES(?, ?, ?)`,
		s.cfg.Collection, s.cfg.Dimension, string(s.cfg.Metric)); err != nil {
		return fmt.Errorf("%w: create collection: %v", domain.ErrConnection, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrConnection, err)
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
	exists, err := s.exists(ctx)
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
	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: collection %s does not exist", domain.ErrNotFound, s.cfg.Collection)
	}
	for i, r := range records {
		if len(r.Vector) != s.cfg.Dimension {
			return fmt.Errorf("%w: record %d has dimension %d, collection %s expects %d",
				domain.ErrValidation, i, len(r.Vector), s.cfg.Collection, s.cfg.Dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrConnection, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks(collection, id, text, metadata, embedding) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", domain.ErrConnection, err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("%w: encode metadata for %s: %v", domain.ErrValidation, r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.cfg.Collection, r.ID, r.Text, string(meta), encodeVector(r.Vector)); err != nil {
			return fmt.Errorf("%w: insert %s: %v", domain.ErrConnection, r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrConnection, err)
	}
	s.log.WithFields(logrus.Fields{
		"collection": s.cfg.Collection,
		"count":      len(records),
	}).Info("records inserted")
	return nil
}

// Search scans the collection and ranks every stored vector against the
// query. Missing collection and absent connection both yield an empty
// result, not an error.
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]domain.SearchHit, error) {
	if err := s.ensure(ctx); err != nil {
		s.log.WithError(err).Warn("search without connection")
		return []domain.SearchHit{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, metadata, embedding FROM chunks WHERE collection = ?`, s.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("%w: query chunks: %v", domain.ErrConnection, err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var (
			id, text, meta string
			blob           []byte
		)
		if err := rows.Scan(&id, &text, &meta, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan chunk: %v", domain.ErrConnection, err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		if len(vec) != len(vector) {
			continue
		}
		var metadata map[string]string
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &metadata)
		}
		hits = append(hits, domain.SearchHit{
			Record: domain.Record{ID: id, Vector: vec, Text: text, Metadata: metadata},
			Score:  similarity.Score(s.cfg.Metric, vec, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate chunks: %v", domain.ErrConnection, err)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit < len(hits) {
		hits = hits[:limit]
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}
	return hits, nil
}

func (s *Store) Stats(ctx context.Context) (domain.CollectionStats, error) {
	stats := domain.CollectionStats{Name: s.cfg.Collection}
	if err := s.ensure(ctx); err != nil {
		s.log.WithError(err).Warn("stats without connection")
		return stats, nil
	}
	exists, err := s.exists(ctx)
	if err != nil || !exists {
		return stats, nil
	}
	stats.Exists = true
	stats.Dimension = s.cfg.Dimension
	stats.Metric = s.cfg.Metric
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, s.cfg.Collection).Scan(&stats.NumEntities); err != nil {
		s.log.WithError(err).Warn("failed to count entities")
	}
	return stats, nil
}

// Disconnect closes the database file. Safe to call repeatedly and
// before Connect.
func (s *Store) Disconnect() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("%w: close: %v", domain.ErrConnection, err)
	}
	s.log.Info("disconnected from sqlite vector store")
	return nil
}

func (s *Store) exists(ctx context.Context) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM collections WHERE name = ?`, s.cfg.Collection).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: lookup collection: %v", domain.ErrConnection, err)
	}
	return true, nil
}
