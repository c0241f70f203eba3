// Package buffer provides thread-safe per-partition buffering of Kafka
// messages.
//
// Messages are accumulated until a record count or byte limit is reached.
// A drained buffer is written to the split writer as a single bulk, so the
// buffer limits decide how many lines one bulk holds.
//
// # PartitionBuffer
//
//	buf := buffer.New(partitionID, maxSizeBytes, maxRecords)
//
//	if err := buf.Add(msg); errors.Is(err, apperrors.ErrBufferFull) {
//	    bulk := buf.Drain()
//	    // write bulk, then retry Add
//	}
//
// Size is measured as the bytes a message occupies in a split file: its
// value plus the terminating newline. A single message larger than the
// byte limit is still accepted into an empty buffer.
//
// # Buffer Manager
//
// Manager creates buffers on demand and lists the partitions it knows:
//
//	manager := buffer.NewManager(maxSizeBytes, maxRecords)
//	buf := manager.GetOrCreate(partitionID)
//	for _, id := range manager.Partitions() {
//	    // flush each partition
//	}
//
// # Thread Safety
//
// Add, Drain and Reset take write locks; Stats and IsEmpty take read
// locks. Manager.GetOrCreate uses double-checked locking.
package buffer
