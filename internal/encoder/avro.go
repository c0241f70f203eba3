package encoder

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/linkedin/goavro/v2"

	"github.com/jittakal/splitstore/pkg/encoder"
	"github.com/jittakal/splitstore/pkg/split"
)

// Ensure implementation satisfies interface at compile time.
var _ encoder.IndexEncoder = (*AvroEncoder)(nil)

// AvroEncoder renders the split index as an Avro Object Container File.
// With gzip compression the whole container is gzipped.
type AvroEncoder struct {
	codec       *goavro.Codec
	compression string
}

// NewAvroEncoder creates a new Avro encoder with specified compression.
func NewAvroEncoder(compression string) (*AvroEncoder, error) {
	codec, err := goavro.NewCodec(avroSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create avro codec: %w", err)
	}

	return &AvroEncoder{
		codec:       codec,
		compression: compression,
	}, nil
}

// avroSchema returns the Avro schema for index rows.
func avroSchema() string {
	return `{
		"type": "record",
		"name": "IndexRecord",
		"namespace": "io.splitstore.index",
		"fields": [
			{"name": "file_id", "type": "long"},
			{"name": "file_name", "type": "string"},
			{"name": "labels", "type": {"type": "array", "items": "string"}},
			{"name": "created_at", "type": "string"}
		]
	}`
}

func (e *AvroEncoder) gzipped() bool {
	return strings.EqualFold(e.compression, "gzip")
}

// Encode writes records to w as a single OCF container.
func (e *AvroEncoder) Encode(w io.Writer, records []split.IndexRecord, maxLabels int) error {
	var gzipWriter *gzip.Writer
	if e.gzipped() {
		gzipWriter = gzip.NewWriter(w)
		w = gzipWriter
	}

	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:     w,
		Codec: e.codec,
	})
	if err != nil {
		return fmt.Errorf("failed to create OCF writer: %w", err)
	}

	if len(records) > 0 {
		rows := make([]interface{}, 0, len(records))
		for _, record := range records {
			rows = append(rows, avroRow(record, maxLabels))
		}
		if err := ocfWriter.Append(rows); err != nil {
			return fmt.Errorf("failed to write index rows: %w", err)
		}
	}

	if gzipWriter != nil {
		if err := gzipWriter.Close(); err != nil {
			return fmt.Errorf("failed to close gzip writer: %w", err)
		}
	}
	return nil
}

func avroRow(record split.IndexRecord, maxLabels int) map[string]interface{} {
	labels := boundLabels(record.Labels, maxLabels)
	values := make([]interface{}, len(labels))
	for i, label := range labels {
		values[i] = label
	}

	return map[string]interface{}{
		"file_id":    record.FileID,
		"file_name":  record.Path,
		"labels":     values,
		"created_at": record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Format returns the file format.
func (e *AvroEncoder) Format() encoder.Format {
	return encoder.FormatAvro
}

// FileExtension returns the file extension.
func (e *AvroEncoder) FileExtension() string {
	if e.gzipped() {
		return ".avro.gz"
	}
	return ".avro"
}

// boundLabels returns at most maxLabels labels.
func boundLabels(labels []string, maxLabels int) []string {
	if maxLabels >= 0 && len(labels) > maxLabels {
		return labels[:maxLabels]
	}
	return labels
}
