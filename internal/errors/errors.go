// Package errors holds the sentinels and typed errors shared by the split
// writer, the sinks and the ingest pipeline.
package errors

import (
	"errors"
	"fmt"

	"github.com/jittakal/splitstore/pkg/event"
)

// Writer errors.
var (
	ErrMissingBasePath = errors.New("base path is required")
	ErrInvalidConfig   = errors.New("invalid writer configuration")
	ErrWriterClosed    = errors.New("split writer is closed")
	ErrInvalidLabel    = errors.New("invalid label")
)

// Ingest errors.
var (
	ErrBufferFull     = errors.New("buffer is full")
	ErrConsumerClosed = errors.New("consumer is closed")
	ErrInvalidMessage = errors.New("invalid message")
	ErrConnectionLost = errors.New("connection lost")
)

// ProcessingError represents an error while writing a consumed message.
type ProcessingError struct {
	PartitionID event.PartitionID
	Offset      int64
	Err         error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing error: partition=%s offset=%d: %v",
		e.PartitionID, e.Offset, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// ValidationError represents a label or message validation failure. Err
// is ErrInvalidLabel or ErrInvalidMessage.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field=%s value=%q: %s",
		e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StorageError represents a sink operation failure.
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: operation=%s path=%s: %v",
		e.Operation, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PartialWriteError reports a bulk that failed after its first Written
// lines reached the split file.
type PartialWriteError struct {
	Written int
	Total   int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: %d of %d lines written: %v",
		e.Written, e.Total, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// CommitError represents an offset commit failure.
type CommitError struct {
	PartitionID event.PartitionID
	Offset      int64
	Err         error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit error: partition=%s offset=%d: %v",
		e.PartitionID, e.Offset, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Retryable is implemented by errors that know whether a retry can help.
type Retryable interface {
	error
	IsRetryable() bool
}

// IsRetryable reports whether err, or an error it wraps, is transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable Retryable
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	if errors.Is(err, ErrConnectionLost) {
		return true
	}

	return false
}

// IsRetryable reports true for sink open, write and upload failures. Close
// and index failures happen after data is handed off and are not retried.
func (e *StorageError) IsRetryable() bool {
	return e.Operation == "write" || e.Operation == "upload" || e.Operation == "open"
}

// IsRetryable defers to the wrapped error.
func (e *PartialWriteError) IsRetryable() bool {
	return IsRetryable(e.Err)
}

// IsRetryable defers to the wrapped error.
func (e *ProcessingError) IsRetryable() bool {
	return IsRetryable(e.Err)
}
