package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostrag/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	s := New(Config{
		Path:       filepath.Join(t.TempDir(), "test.db"),
		Collection: "gost_documents",
		Dimension:  3,
		Metric:     domain.MetricCosine,
	}, l)
	t.Cleanup(func() { _ = s.Disconnect() })
	return s
}

func TestConnectIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Disconnect())
	require.NoError(t, s.Disconnect())
}

func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Connect(ctx))

	loaded, err := s.LoadCollection(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)

	require.NoError(t, s.CreateCollection(ctx, false))
	loaded, err = s.LoadCollection(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)

	require.NoError(t, s.Insert(ctx, []domain.Record{
		{ID: "d:0", Vector: []float32{1, 0, 0}, Text: "first", Metadata: map[string]string{"source": "a.txt"}},
	}))

	// Idempotent create keeps the data.
	require.NoError(t, s.CreateCollection(ctx, false))
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Exists)
	assert.Equal(t, int64(1), stats.NumEntities)

	// Overwrite drops it.
	require.NoError(t, s.CreateCollection(ctx, true))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.NumEntities)
}

func TestInsertValidatesDimensions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.CreateCollection(ctx, false))

	err := s.Insert(ctx, []domain.Record{
		{ID: "ok", Vector: []float32{1, 0, 0}},
		{ID: "bad", Vector: []float32{1, 0, 0, 0}},
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.NumEntities)
}

func TestInsertIntoMissingCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Connect(ctx))
	err := s.Insert(ctx, []domain.Record{{ID: "a", Vector: []float32{1, 0, 0}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.CreateCollection(ctx, false))
	require.NoError(t, s.Insert(ctx, []domain.Record{
		{ID: "d:0", Vector: []float32{1, 0, 0}, Text: "steel C235", Metadata: map[string]string{"source": "gost.txt"}},
		{ID: "d:1", Vector: []float32{0, 1, 0}, Text: "bolts"},
		{ID: "d:2", Vector: []float32{0.8, 0.2, 0}, Text: "steel C245"},
	}))

	hits, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "d:0", hits[0].ID)
	assert.Equal(t, "steel C235", hits[0].Text)
	assert.Equal(t, "gost.txt", hits[0].Metadata["source"])
	assert.Equal(t, "d:2", hits[1].ID)
}

func TestSearchEmptyCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.CreateCollection(ctx, false))

	hits, err := s.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestInsertUpserts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.CreateCollection(ctx, false))

	require.NoError(t, s.Insert(ctx, []domain.Record{{ID: "d:0", Vector: []float32{1, 0, 0}, Text: "old"}}))
	require.NoError(t, s.Insert(ctx, []domain.Record{{ID: "d:0", Vector: []float32{1, 0, 0}, Text: "new"}}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.NumEntities)

	hits, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Text)
}

func TestDataSurvivesReconnect(t *testing.T) {
	ctx := context.Background()
	l := logrus.New()
	l.SetOutput(io.Discard)
	cfg := Config{
		Path:       filepath.Join(t.TempDir(), "persist.db"),
		Collection: "gost_documents",
		Dimension:  3,
		Metric:     domain.MetricCosine,
	}

	s := New(cfg, l)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.CreateCollection(ctx, false))
	require.NoError(t, s.Insert(ctx, []domain.Record{{ID: "d:0", Vector: []float32{1, 0, 0}, Text: "kept"}}))
	require.NoError(t, s.Disconnect())

	s2 := New(cfg, l)
	require.NoError(t, s2.Connect(ctx))
	defer s2.Disconnect()
	loaded, err := s2.LoadCollection(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	stats, err := s2.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.NumEntities)
}

func TestVectorEncodingRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75}
	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
