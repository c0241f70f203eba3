// Package ingest feeds consumed Kafka messages into a split writer.
//
// Messages are validated, buffered per partition and written as one bulk
// (a single WriteLines call) when the partition buffer fills up or the
// flush interval elapses. Every message value becomes exactly one line.
//
// Labels for a bulk are the static labels, optionally followed by the
// topic and "p<partition>". The writer is relabelled only when those
// labels change, so consecutive bulks of one partition share split files.
//
// Offsets are committed after the bulk holding them is written. Invalid
// messages and bulks that fail to write go to the dead letter queue with
// the reasons "invalid_message" and "write_failed".
package ingest
