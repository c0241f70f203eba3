// Package event defines message types for streaming ingestion into split files.
//
// # Messages
//
// Message is a single record read from a source. Its Value becomes one
// line of a split file:
//
//	msg := &event.Message{
//	    Topic:     "orders",
//	    Partition: 3,
//	    Offset:    12345,
//	    Value:     []byte(`{"id": 1}`),
//	}
//	line := msg.Line() // value terminated by '\n'
//
// Offsets are committed through Commit once the bulk holding the message
// has reached its split file.
//
// # Partition Identification
//
// PartitionID uniquely identifies a Kafka topic partition:
//
//	pid := event.PartitionID{
//	    Topic:     "user-events",
//	    Partition: 5,
//	}
//	key := pid.String() // "user-events-5"
//
// # Bulk Statistics
//
// BulkStats describes messages accumulated for a single bulk write.
package event
