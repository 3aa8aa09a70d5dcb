// Package retry wraps fallible remote calls with bounded
// exponential-backoff retry.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"gostrag/internal/domain"
)

// Executor retries an operation up to MaxRetries total attempts,
// sleeping Delay before the first retry and multiplying the delay by
// Backoff for each subsequent one. Retryable classifies failures; a nil
// classifier retries everything. A non-retryable failure propagates
// immediately without consuming a delay. After the last attempt the
// final failure propagates verbatim.
type Executor struct {
	MaxRetries int
	Delay      time.Duration
	Backoff    float64
	Retryable  func(error) bool
	Logger     *logrus.Logger
}

// New returns an executor with the given budget and the Transient
// classifier.
func New(maxRetries int, delay time.Duration, backoff float64, logger *logrus.Logger) *Executor {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if backoff <= 0 {
		backoff = 2.0
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{
		MaxRetries: maxRetries,
		Delay:      delay,
		Backoff:    backoff,
		Retryable:  Transient,
		Logger:     logger,
	}
}

// Transient reports whether an error is worth retrying: everything
// except configuration, validation, not-ready and not-found failures,
// none of which can succeed on a second attempt without operator
// intervention.
func Transient(err error) bool {
	switch {
	case errors.Is(err, domain.ErrConfig),
		errors.Is(err, domain.ErrNotReady),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound):
		return false
	}
	return true
}

// Do runs op under the retry budget. The operation name identifies the
// true origin in logs. Context cancellation aborts the backoff sleep
// and returns the context's error.
func (e *Executor) Do(ctx context.Context, name string, op func() error) error {
	delay := e.Delay
	var last error
	for attempt := 1; attempt <= e.MaxRetries; attempt++ {
		last = op()
		if last == nil {
			return nil
		}
		if e.Retryable != nil && !e.Retryable(last) {
			return last
		}
		if attempt == e.MaxRetries {
			e.Logger.WithFields(logrus.Fields{
				"operation": name,
				"attempts":  e.MaxRetries,
			}).WithError(last).Error("all retry attempts failed")
			break
		}
		e.Logger.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt,
			"of":        e.MaxRetries,
			"delay":     delay,
		}).WithError(last).Warn("attempt failed, retrying")
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * e.Backoff)
	}
	return last
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
