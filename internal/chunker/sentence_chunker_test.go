package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostrag/internal/domain"
)

func TestNewSentenceChunkerValidation(t *testing.T) {
	_, err := NewSentenceChunker(0, 0)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = NewSentenceChunker(100, 100)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = NewSentenceChunker(100, 150)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = NewSentenceChunker(100, 99)
	assert.NoError(t, err)
}

func TestChunkShortDocument(t *testing.T) {
	c, err := NewSentenceChunker(1000, 200)
	require.NoError(t, err)

	chunks, err := c.Chunk(domain.Document{ID: "doc1", Path: "a.txt", Content: "Hello world."})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world.", chunks[0].Text)
	assert.Equal(t, "doc1:0", chunks[0].ID)
	assert.Equal(t, "doc1", chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "a.txt", chunks[0].Metadata["source"])
	assert.Equal(t, "0", chunks[0].Metadata["chunk_index"])
}

func TestChunkEmptyDocument(t *testing.T) {
	c, err := NewSentenceChunker(100, 20)
	require.NoError(t, err)

	chunks, err := c.Chunk(domain.Document{ID: "doc1", Content: "   \n  "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkRespectsBudget(t *testing.T) {
	c, err := NewSentenceChunker(80, 20)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The quick brown fox jumps. ")
	}
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: b.String()})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 80, "chunk %d exceeds the budget", ch.Index)
	}
}

func TestChunkSentenceOverlap(t *testing.T) {
	c, err := NewSentenceChunker(60, 25)
	require.NoError(t, err)

	content := "Alpha alpha alpha alpha. Bravo bravo bravo bravo. Charlie charlie charlie. Delta delta delta delta. Echo echo echo echo."
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: content})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Each chunk after the first starts with a sentence the previous
	// chunk ends with.
	for i := 1; i < len(chunks); i++ {
		first := strings.SplitN(chunks[i].Text, ". ", 2)[0]
		assert.Contains(t, chunks[i-1].Text, first, "chunk %d should repeat the carried sentence", i)
	}
}

func TestChunkLongSentenceWindows(t *testing.T) {
	c, err := NewSentenceChunker(100, 20)
	require.NoError(t, err)

	// 250 chars with no sentence boundary: fixed-size windows stepping
	// size minus overlap, so 3 chunks.
	content := strings.Repeat("a", 250)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: content})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Len(t, chunks[0].Text, 100)
	assert.Len(t, chunks[1].Text, 100)
	assert.Len(t, chunks[2].Text, 90)

	// The trailing overlap of one window is the leading overlap of the
	// next.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		assert.Equal(t, prev[len(prev)-20:], chunks[i].Text[:20])
	}
}

func TestChunkIDsAreStable(t *testing.T) {
	c, err := NewSentenceChunker(100, 20)
	require.NoError(t, err)

	doc := domain.Document{ID: "gost27772", Content: strings.Repeat("Steel grade data. ", 30)}
	first, err := c.Chunk(doc)
	require.NoError(t, err)
	second, err := c.Chunk(doc)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}
