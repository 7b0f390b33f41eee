// Package errors defines all exported error sentinels for the linesort library.
//
// This is the single source of truth for error values. Both the top-level
// linesort package and internal packages import from here, ensuring
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Configuration errors
var (
	ErrInvalidChunkSize   = errors.New("linesort: chunk size must be positive")
	ErrInvalidParallelism = errors.New("linesort: parallelism must be positive")
	ErrInvalidBufferSize  = errors.New("linesort: I/O buffer sizes must be positive")
	ErrNilCompare         = errors.New("linesort: comparison function must not be nil")
	ErrUnknownDigest      = errors.New("linesort: unknown digest algorithm")
)

// Run errors
var (
	ErrVerifyMismatch = errors.New("linesort: output content digest does not match input")
	ErrRowCountDrift  = errors.New("linesort: chunk row count changed between phases")
)
