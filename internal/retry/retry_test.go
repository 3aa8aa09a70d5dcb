package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostrag/internal/domain"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	e := New(3, 10*time.Millisecond, 2.0, quietLogger())
	calls := 0
	err := e.Do(context.Background(), "op", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientFailures(t *testing.T) {
	e := New(3, 10*time.Millisecond, 2.0, quietLogger())
	calls := 0
	start := time.Now()
	err := e.Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// Two sleeps: delay, then delay*backoff.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestDoExhaustsBudget(t *testing.T) {
	e := New(3, time.Millisecond, 2.0, quietLogger())
	calls := 0
	boom := errors.New("boom")
	err := e.Do(context.Background(), "op", func() error {
		calls++
		return boom
	})
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, boom)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	e := New(5, time.Millisecond, 2.0, quietLogger())
	calls := 0
	err := e.Do(context.Background(), "op", func() error {
		calls++
		return fmt.Errorf("%w: bad question", domain.ErrValidation)
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDoHonorsContextDuringBackoff(t *testing.T) {
	e := New(3, time.Second, 2.0, quietLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	calls := 0
	err := e.Do(ctx, "op", func() error {
		calls++
		return errors.New("flaky")
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransientClassifier(t *testing.T) {
	assert.False(t, Transient(fmt.Errorf("%w: no api key", domain.ErrConfig)))
	assert.False(t, Transient(fmt.Errorf("%w: not initialized", domain.ErrNotReady)))
	assert.False(t, Transient(fmt.Errorf("%w: empty input", domain.ErrValidation)))
	assert.False(t, Transient(fmt.Errorf("%w: no such collection", domain.ErrNotFound)))
	assert.True(t, Transient(fmt.Errorf("%w: timeout", domain.ErrConnection)))
	assert.True(t, Transient(errors.New("anything else")))
}

func TestNewClampsBudget(t *testing.T) {
	e := New(0, 0, 0, nil)
	assert.Equal(t, 1, e.MaxRetries)
	assert.Equal(t, 2.0, e.Backoff)
}
