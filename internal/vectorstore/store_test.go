package vectorstore

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostrag/internal/config"
	"gostrag/internal/domain"
	"gostrag/internal/vectorstore/memory"
	"gostrag/internal/vectorstore/qdrant"
	"gostrag/internal/vectorstore/sqlite"
)

func TestNewSelectsBackend(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	s, err := New(config.VectorStoreConfig{
		Type:       "sqlite",
		Collection: "c",
		Dimension:  3,
		SQLite:     &config.SQLiteConfig{Path: "x.db"},
	}, l)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, s)

	s, err = New(config.VectorStoreConfig{
		Type:       "qdrant",
		Collection: "c",
		Dimension:  3,
		Qdrant:     &config.QdrantConfig{URL: "http://localhost:6333"},
	}, l)
	require.NoError(t, err)
	assert.IsType(t, &qdrant.Store{}, s)

	s, err = New(config.VectorStoreConfig{Type: "memory", Collection: "c", Dimension: 3}, l)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	_, err = New(config.VectorStoreConfig{Type: "milvus"}, l)
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestNewRejectsBadMetric(t *testing.T) {
	_, err := New(config.VectorStoreConfig{Type: "memory", Metric: "HAMMING"}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNewRequiresBackendConfig(t *testing.T) {
	_, err := New(config.VectorStoreConfig{Type: "sqlite"}, nil)
	assert.ErrorIs(t, err, domain.ErrConfig)

	_, err = New(config.VectorStoreConfig{Type: "qdrant"}, nil)
	assert.ErrorIs(t, err, domain.ErrConfig)
}
