// Package buffer defines interfaces for accumulating messages into bulks.
//
// A drained buffer is written to the current split file as a single bulk.
package buffer

import (
	"github.com/jittakal/splitstore/pkg/event"
)

// Buffer accumulates messages for one partition.
// All implementations must be thread-safe.
type Buffer interface {
	// Add adds a message to the buffer.
	// Returns an error if the buffer is full or capacity would be exceeded.
	Add(msg *event.Message) error

	// Drain removes and returns all messages from the buffer.
	// The buffer is reset after draining.
	Drain() []*event.Message

	// Stats returns current buffer statistics without modifying the buffer.
	Stats() event.BulkStats

	// IsEmpty returns true if the buffer contains no messages.
	IsEmpty() bool

	// Reset clears the buffer and resets all statistics.
	Reset()
}

// Manager creates and manages buffers for partitions.
type Manager interface {
	// GetOrCreate returns a buffer for the given partition,
	// creating one if it doesn't exist.
	GetOrCreate(partitionID event.PartitionID) Buffer

	// Partitions returns the partitions that currently have a buffer.
	Partitions() []event.PartitionID
}
