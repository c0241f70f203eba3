package buffer_test

import (
	"fmt"

	"github.com/jittakal/splitstore/internal/buffer"
	"github.com/jittakal/splitstore/pkg/event"
)

func Example_partitionBuffer() {
	partitionID := event.PartitionID{Topic: "orders", Partition: 0}
	buf := buffer.New(partitionID, 1024*1024, 1000)

	for i := 0; i < 5; i++ {
		msg := &event.Message{
			Topic:     "orders",
			Partition: 0,
			Offset:    int64(i),
			Value:     []byte(fmt.Sprintf(`{"orderId": %d}`, i)),
		}
		if err := buf.Add(msg); err != nil {
			fmt.Println("Error adding message:", err)
			return
		}
	}

	fmt.Printf("Messages buffered: %d\n", buf.Stats().RecordCount)

	bulk := buf.Drain()
	fmt.Printf("Drained %d messages\n", len(bulk))
	fmt.Printf("Buffer is empty after drain: %v\n", buf.IsEmpty())

	// Output:
	// Messages buffered: 5
	// Drained 5 messages
	// Buffer is empty after drain: true
}

func Example_manager() {
	manager := buffer.NewManager(1024*1024, 100)

	manager.GetOrCreate(event.PartitionID{Topic: "payments", Partition: 1})
	manager.GetOrCreate(event.PartitionID{Topic: "orders", Partition: 2})
	manager.GetOrCreate(event.PartitionID{Topic: "orders", Partition: 0})

	for _, id := range manager.Partitions() {
		fmt.Println(id)
	}

	// Output:
	// orders-0
	// orders-2
	// payments-1
}
