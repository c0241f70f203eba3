package encoder_test

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jittakal/splitstore/internal/encoder"
	pkgencoder "github.com/jittakal/splitstore/pkg/encoder"
	"github.com/jittakal/splitstore/pkg/split"
)

func Example_parquetEncoder() {
	enc := encoder.NewParquetEncoder("snappy")

	records := []split.IndexRecord{
		{FileID: 1, Path: "orders_000001.csv", Labels: []string{"orders"}, CreatedAt: time.Now()},
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, records, 10); err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Printf("File format: %s\n", enc.Format())
	fmt.Printf("File extension: %s\n", enc.FileExtension())
	fmt.Printf("Has content: %v\n", buf.Len() > 0)

	// Output:
	// File format: parquet
	// File extension: .parquet
	// Has content: true
}

func Example_encoderFactory() {
	enc, err := encoder.NewFactory(pkgencoder.FormatAvro, "gzip").CreateEncoder()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Printf("File format: %s\n", enc.Format())
	fmt.Printf("File extension: %s\n", enc.FileExtension())

	// Output:
	// File format: avro
	// File extension: .avro.gz
}
