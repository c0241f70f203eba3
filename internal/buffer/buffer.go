// Package buffer accumulates Kafka messages per partition into bulks.
package buffer

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jittakal/splitstore/internal/errors"
	"github.com/jittakal/splitstore/pkg/buffer"
	"github.com/jittakal/splitstore/pkg/event"
)

// Ensure implementations satisfy interfaces at compile time.
var (
	_ buffer.Buffer  = (*PartitionBuffer)(nil)
	_ buffer.Manager = (*Manager)(nil)
)

// PartitionBuffer buffers messages for a single Kafka partition until
// they are written as one bulk. Size is measured in split-file bytes.
type PartitionBuffer struct {
	partitionID    event.PartitionID
	messages       []*event.Message
	maxSizeBytes   int64
	maxRecords     int
	currentSize    int64
	firstWriteTime time.Time
	lastWriteTime  time.Time
	mu             sync.RWMutex
}

// New creates a new partition buffer. A maxSizeBytes of 0 disables the
// size limit.
func New(partitionID event.PartitionID, maxSizeBytes int64, maxRecords int) *PartitionBuffer {
	return &PartitionBuffer{
		partitionID:  partitionID,
		messages:     make([]*event.Message, 0, maxRecords),
		maxSizeBytes: maxSizeBytes,
		maxRecords:   maxRecords,
	}
}

// Add adds a message to the buffer.
func (b *PartitionBuffer) Add(msg *event.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.messages) >= b.maxRecords {
		return fmt.Errorf("%w: max records (%d) reached", errors.ErrBufferFull, b.maxRecords)
	}

	size := lineSize(msg)
	if b.maxSizeBytes > 0 && len(b.messages) > 0 && b.currentSize+size > b.maxSizeBytes {
		return fmt.Errorf("%w: max size (%d bytes) would be exceeded", errors.ErrBufferFull, b.maxSizeBytes)
	}

	b.messages = append(b.messages, msg)
	b.currentSize += size

	now := time.Now()
	if b.firstWriteTime.IsZero() {
		b.firstWriteTime = now
	}
	b.lastWriteTime = now

	return nil
}

// Drain removes and returns all messages from the buffer.
// The returned slice is owned by the caller.
func (b *PartitionBuffer) Drain() []*event.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	messages := b.messages
	b.reset()
	return messages
}

// Stats returns current buffer statistics.
func (b *PartitionBuffer) Stats() event.BulkStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return event.BulkStats{
		RecordCount:    len(b.messages),
		SizeBytes:      b.currentSize,
		FirstWriteTime: b.firstWriteTime,
		LastWriteTime:  b.lastWriteTime,
	}
}

// IsEmpty returns true if the buffer is empty.
func (b *PartitionBuffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.messages) == 0
}

// Reset clears the buffer and resets all statistics.
func (b *PartitionBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *PartitionBuffer) reset() {
	b.messages = make([]*event.Message, 0, b.maxRecords)
	b.currentSize = 0
	b.firstWriteTime = time.Time{}
	b.lastWriteTime = time.Time{}
}

// lineSize is the number of bytes msg occupies in a split file.
func lineSize(msg *event.Message) int64 {
	size := int64(len(msg.Value))
	if size == 0 || msg.Value[size-1] != '\n' {
		size++
	}
	return size
}

// Manager manages buffers for multiple Kafka partitions, creating them
// on demand.
type Manager struct {
	buffers      map[event.PartitionID]*PartitionBuffer
	maxSizeBytes int64
	maxRecords   int
	mu           sync.RWMutex
}

// NewManager creates a new buffer manager.
func NewManager(maxSizeBytes int64, maxRecords int) *Manager {
	return &Manager{
		buffers:      make(map[event.PartitionID]*PartitionBuffer),
		maxSizeBytes: maxSizeBytes,
		maxRecords:   maxRecords,
	}
}

// GetOrCreate returns a buffer for the partition, creating if needed.
func (m *Manager) GetOrCreate(partitionID event.PartitionID) buffer.Buffer {
	m.mu.RLock()
	buf, exists := m.buffers[partitionID]
	m.mu.RUnlock()

	if exists {
		return buf
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if buf, exists := m.buffers[partitionID]; exists {
		return buf
	}

	buf = New(partitionID, m.maxSizeBytes, m.maxRecords)
	m.buffers[partitionID] = buf
	return buf
}

// Partitions returns the partitions with a buffer, ordered by topic and
// partition number.
func (m *Manager) Partitions() []event.PartitionID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	partitions := make([]event.PartitionID, 0, len(m.buffers))
	for id := range m.buffers {
		partitions = append(partitions, id)
	}
	slices.SortFunc(partitions, func(a, b event.PartitionID) int {
		if c := cmp.Compare(a.Topic, b.Topic); c != 0 {
			return c
		}
		return cmp.Compare(a.Partition, b.Partition)
	})
	return partitions
}
