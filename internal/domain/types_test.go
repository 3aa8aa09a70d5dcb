package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("COSINE")
	assert.NoError(t, err)
	assert.Equal(t, MetricCosine, m)

	m, err = ParseMetric("")
	assert.NoError(t, err)
	assert.Equal(t, MetricCosine, m)

	_, err = ParseMetric("cosine")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseMetric("HAMMING")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("context: %w", fmt.Errorf("%w: inner detail", ErrNotReady))
	assert.True(t, errors.Is(err, ErrNotReady))
	assert.False(t, errors.Is(err, ErrValidation))
}
