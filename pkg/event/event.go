package event

import (
	"fmt"
	"time"
)

// PartitionID uniquely identifies a Kafka partition.
type PartitionID struct {
	Topic     string
	Partition int32
}

// String returns a string representation of the partition ID in the format "topic-partition".
func (p PartitionID) String() string {
	return fmt.Sprintf("%s-%d", p.Topic, p.Partition)
}

// Message is one record consumed from a source, carrying the raw line
// that will be written to a split file.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time

	// CommitFunc marks the message as processed at the source. It is
	// called only after the bulk holding the message has been written.
	CommitFunc func() error
}

// PartitionID returns the partition the message was read from.
func (m *Message) PartitionID() PartitionID {
	return PartitionID{Topic: m.Topic, Partition: m.Partition}
}

// Line returns the message value terminated by exactly one line feed.
func (m *Message) Line() []byte {
	n := len(m.Value)
	if n > 0 && m.Value[n-1] == '\n' {
		return m.Value
	}
	line := make([]byte, n+1)
	copy(line, m.Value)
	line[n] = '\n'
	return line
}

// Commit calls CommitFunc when one is set.
func (m *Message) Commit() error {
	if m.CommitFunc == nil {
		return nil
	}
	return m.CommitFunc()
}

// BulkStats contains statistics about messages buffered for one bulk.
type BulkStats struct {
	RecordCount    int
	SizeBytes      int64
	FirstWriteTime time.Time
	LastWriteTime  time.Time
}
