// Package encoder defines interfaces for rendering the split index in
// columnar and row-based file formats.
package encoder

import (
	"io"

	"github.com/jittakal/splitstore/pkg/split"
)

// Format represents an index manifest file format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatAvro    Format = "avro"
)

// IndexEncoder encodes index records to a specific file format.
type IndexEncoder interface {
	// Encode writes records to w. maxLabels bounds the label columns.
	Encode(w io.Writer, records []split.IndexRecord, maxLabels int) error

	// Format returns the file format this encoder produces.
	Format() Format

	// FileExtension returns the file extension (e.g., ".parquet", ".avro").
	FileExtension() string
}
