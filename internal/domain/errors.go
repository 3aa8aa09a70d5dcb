package domain

import "errors"

// Failure taxonomy shared by every component. Errors are wrapped with
// fmt.Errorf("...: %w", Err...) and matched with errors.Is, so callers
// can branch on the kind without parsing messages.
var (
	// ErrConfig marks missing or invalid required settings. Fatal,
	// surfaced at startup, never retried.
	ErrConfig = errors.New("invalid configuration")

	// ErrConnection marks an unreachable backing store or provider.
	// Eligible for retry when it occurs inside a retry-wrapped call.
	ErrConnection = errors.New("connection failed")

	// ErrNotReady marks an operation invoked before its prerequisite
	// setup, e.g. a query before the collection is attached. Retrying
	// without fixing setup cannot succeed, so it is never retried.
	ErrNotReady = errors.New("system not initialized")

	// ErrValidation marks rejected input: dimension mismatch, empty
	// question, overlap >= chunk size. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an absent path, document or collection.
	// Ingestion treats it as fatal; search and stats against a missing
	// collection deliberately do not produce it.
	ErrNotFound = errors.New("not found")
)
