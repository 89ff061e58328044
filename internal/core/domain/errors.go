package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNilRecord indicates a stage received a nil processing record.
	// Processing of that record is aborted; sibling records are unaffected.
	ErrNilRecord = errors.New("nil processing record")

	// ErrEmptyPipeline indicates a pipeline was constructed without stages.
	ErrEmptyPipeline = errors.New("pipeline must have at least one stage")

	// ErrUnsupportedMethod indicates an unknown deduplication method name.
	ErrUnsupportedMethod = errors.New("unsupported deduplication method")

	// ErrUnsupportedHash indicates an unknown hash function name.
	ErrUnsupportedHash = errors.New("unsupported hash function")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")
)
