package encoder

import (
	"fmt"
	"strings"

	"github.com/jittakal/splitstore/pkg/encoder"
)

// Factory creates index encoders based on format and configuration.
type Factory struct {
	format      encoder.Format
	compression string
}

// NewFactory creates a new encoder factory.
func NewFactory(format encoder.Format, compression string) *Factory {
	return &Factory{
		format:      format,
		compression: compression,
	}
}

// CreateEncoder creates an encoder based on the configured format.
func (f *Factory) CreateEncoder() (encoder.IndexEncoder, error) {
	switch f.format {
	case encoder.FormatParquet:
		return NewParquetEncoder(f.compression), nil
	case encoder.FormatAvro:
		return NewAvroEncoder(f.compression)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", f.format)
	}
}

// NewEncoders creates one encoder per format name, using the default
// compression of each format when compression is empty.
func NewEncoders(formats []string, compression string) ([]encoder.IndexEncoder, error) {
	encoders := make([]encoder.IndexEncoder, 0, len(formats))
	for _, name := range formats {
		format := encoder.Format(strings.ToLower(name))
		codec := compression
		if codec == "" {
			codec = DefaultCompression(format)
		}
		enc, err := NewFactory(format, codec).CreateEncoder()
		if err != nil {
			return nil, err
		}
		encoders = append(encoders, enc)
	}
	return encoders, nil
}

// SupportedFormats returns a list of supported index formats.
func SupportedFormats() []encoder.Format {
	return []encoder.Format{
		encoder.FormatParquet,
		encoder.FormatAvro,
	}
}

// SupportedCompressions returns supported compression codecs for a given format.
func SupportedCompressions(format encoder.Format) []string {
	switch format {
	case encoder.FormatParquet:
		return []string{"uncompressed", "snappy", "gzip", "lz4", "zstd"}
	case encoder.FormatAvro:
		return []string{"uncompressed", "gzip"}
	default:
		return []string{}
	}
}

// DefaultCompression returns the default compression for a format.
func DefaultCompression(format encoder.Format) string {
	switch format {
	case encoder.FormatParquet:
		return "snappy"
	case encoder.FormatAvro:
		return "gzip"
	default:
		return "uncompressed"
	}
}
