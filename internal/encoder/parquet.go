package encoder

import (
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/jittakal/splitstore/pkg/encoder"
	"github.com/jittakal/splitstore/pkg/split"
)

// Ensure implementation satisfies interface at compile time.
var _ encoder.IndexEncoder = (*ParquetEncoder)(nil)

// IndexRowParquet is the Parquet schema of one index row.
type IndexRowParquet struct {
	FileID    int64     `parquet:"file_id"`
	FileName  string    `parquet:"file_name"`
	Labels    []string  `parquet:"labels,list"`
	CreatedAt time.Time `parquet:"created_at,timestamp(microsecond)"`
}

// ParquetEncoder renders the split index as a Parquet file.
// Supports SNAPPY (default), GZIP, LZ4, ZSTD and uncompressed.
type ParquetEncoder struct {
	compressionName string
}

// NewParquetEncoder creates a new Parquet encoder with specified compression.
func NewParquetEncoder(compression string) *ParquetEncoder {
	return &ParquetEncoder{
		compressionName: compression,
	}
}

// compressionCodec converts a compression name to a parquet WriterOption.
func compressionCodec(compression string) parquet.WriterOption {
	switch compression {
	case "snappy", "SNAPPY":
		return parquet.Compression(&parquet.Snappy)
	case "gzip", "GZIP":
		return parquet.Compression(&parquet.Gzip)
	case "lz4", "LZ4":
		return parquet.Compression(&parquet.Lz4Raw)
	case "zstd", "ZSTD":
		return parquet.Compression(&parquet.Zstd)
	case "uncompressed", "UNCOMPRESSED", "none", "NONE":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}

// Encode writes records to w as one Parquet file.
func (e *ParquetEncoder) Encode(w io.Writer, records []split.IndexRecord, maxLabels int) error {
	rows := make([]IndexRowParquet, len(records))
	for i, record := range records {
		rows[i] = IndexRowParquet{
			FileID:    record.FileID,
			FileName:  record.Path,
			Labels:    append([]string(nil), boundLabels(record.Labels, maxLabels)...),
			CreatedAt: record.CreatedAt.UTC(),
		}
	}

	writer := parquet.NewGenericWriter[IndexRowParquet](
		w,
		parquet.SchemaOf(new(IndexRowParquet)),
		compressionCodec(e.compressionName),
		parquet.CreatedBy("splitstore", "1.0", "0"),
	)

	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write index rows: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// Format returns the file format.
func (e *ParquetEncoder) Format() encoder.Format {
	return encoder.FormatParquet
}

// FileExtension returns the file extension.
func (e *ParquetEncoder) FileExtension() string {
	return ".parquet"
}
