package splitter

import (
	"log/slog"
	"time"

	"github.com/jittakal/splitstore/internal/storage"
	"github.com/jittakal/splitstore/pkg/encoder"
	"github.com/jittakal/splitstore/pkg/split"
)

// Unlimited disables a rotation threshold.
const Unlimited = storage.Unlimited

// Config holds the settings of one writer. It is copied into the writer
// at construction.
//
// Start from DefaultConfig. The zero value is not the default: zero
// thresholds rotate before every line and MaxLabels 0 drops all labels.
type Config struct {
	// BasePath is the directory or prefix under which split files and the
	// index file are created. Required.
	BasePath string
	// Suffix is appended to every split file name.
	Suffix string
	// MaxLabels bounds the labels kept per segment and the label columns
	// of the index.
	MaxLabels int
	// LastGroupID seeds file ids: when >= 0 the first id is
	// ceil(LastGroupID)+1, otherwise 1.
	LastGroupID float64
	// BulksPerFile and LinesPerFile are rotation thresholds; Unlimited
	// disables a threshold and 0 rotates before every line.
	BulksPerFile int
	LinesPerFile int
	// OpenMode is used to open split files.
	OpenMode split.OpenMode
}

// DefaultConfig returns a config with the default suffix, label bound,
// unlimited thresholds and append-binary mode. BasePath is left empty.
func DefaultConfig() Config {
	return Config{
		Suffix:       ".csv",
		MaxLabels:    10,
		LastGroupID:  -1,
		BulksPerFile: Unlimited,
		LinesPerFile: Unlimited,
		OpenMode:     split.AppendBinary,
	}
}

// MetricsCollector defines the interface for split writer metrics.
type MetricsCollector interface {
	IncFilesOpened(reason string)
	AddLinesWritten(n int)
	IncBulksWritten()
	SetIndexRows(n int)
}

// Option configures a Writer.
type Option func(*Writer)

// WithSinkFactory sets the factory used to open split and index files.
func WithSinkFactory(factory split.SinkFactory) Option {
	return func(w *Writer) {
		w.sinks = factory
	}
}

// WithPathBuilder sets the builder that names split files.
func WithPathBuilder(builder split.PathBuilder) Option {
	return func(w *Writer) {
		w.paths = builder
	}
}

// WithLogger sets the writer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithMetrics sets the writer's metrics collector.
func WithMetrics(metrics MetricsCollector) Option {
	return func(w *Writer) {
		w.metrics = metrics
	}
}

// WithIndexEncoders adds manifest encoders run after the CSV index is written.
func WithIndexEncoders(encoders ...encoder.IndexEncoder) Option {
	return func(w *Writer) {
		w.encoders = append(w.encoders, encoders...)
	}
}

// WithClock overrides the time source used for index record timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}
