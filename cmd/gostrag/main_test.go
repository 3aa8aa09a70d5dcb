package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostrag/internal/domain"
)

func TestExtractOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data_processed", "C235_info.json"), extractOutputPath("C235"))
	assert.Equal(t, filepath.Join("data_processed", "C345_info.json"), extractOutputPath("C345"))
}

func TestEmitWritesFileCreatingDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_processed", "C235_info.json")
	answer := domain.Answer{
		Text:    "yield strength 235 MPa",
		Sources: []domain.Source{{Text: "passage", Score: 0.9}},
	}
	require.NoError(t, emit(answer, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got domain.Answer
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, answer, got)
}
