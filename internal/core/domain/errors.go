package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or relation kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates no embedding provider is configured.
	// The vector tier is skipped without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Retrieval Errors.

	// ErrEmptyText indicates text to embed was empty or whitespace only.
	ErrEmptyText = errors.New("empty text")

	// ErrProviderFailure indicates the embedding provider failed: transport
	// error, non-success status, malformed body or missing vector.
	ErrProviderFailure = errors.New("embedding provider failure")

	// ErrStoreFailure indicates the backing store returned an error.
	ErrStoreFailure = errors.New("store failure")

	// ErrParseFailure indicates a stored vector could not be decoded.
	ErrParseFailure = errors.New("vector parse failure")

	// ErrFullTextUnsupported indicates the store has no native text-search operator.
	ErrFullTextUnsupported = errors.New("full-text search unsupported")

	// ErrRetrievalUnavailable indicates every retrieval tier failed.
	// An empty answer from a working tier is never reported with this error.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// Workspace Errors.

	// ErrTimeout indicates a domain query exceeded its time budget.
	ErrTimeout = errors.New("query timed out")
)
