package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jittakal/splitstore/internal/errors"
	"github.com/jittakal/splitstore/pkg/split"
)

// Ensure implementation satisfies interface at compile time.
var _ split.SinkFactory = (*FileSinkFactory)(nil)

// Backend names used in logs and metrics.
const (
	BackendFile  = "file"
	BackendS3    = "s3"
	BackendGCS   = "gcs"
	BackendAzure = "azure"
)

// MetricsCollector defines metrics operations for storage.
type MetricsCollector interface {
	IncSinksOpened(backend string)
	IncStorageErrors(backend string, operation string)
	ObserveFileSize(backend string, size float64)
	ObserveUploadDuration(backend string, duration float64)
}

// FileSinkFactory opens split files on the local filesystem. Parent
// directories are created on demand so nested path layouts work.
type FileSinkFactory struct {
	logger  *slog.Logger
	metrics MetricsCollector
}

// NewFileSinkFactory creates a new filesystem sink factory.
func NewFileSinkFactory(logger *slog.Logger, metrics MetricsCollector) *FileSinkFactory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileSinkFactory{
		logger:  logger,
		metrics: metrics,
	}
}

// Open opens path with mode, creating missing parent directories.
func (f *FileSinkFactory) Open(path string, mode split.OpenMode) (split.Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		if f.metrics != nil {
			f.metrics.IncStorageErrors(BackendFile, "mkdir")
		}
		return nil, &errors.StorageError{Operation: "mkdir", Path: path, Err: err}
	}

	file, err := os.OpenFile(path, mode.Flag, mode.Perm)
	if err != nil {
		if f.metrics != nil {
			f.metrics.IncStorageErrors(BackendFile, "open")
		}
		return nil, &errors.StorageError{Operation: "open", Path: path, Err: err}
	}

	if f.metrics != nil {
		f.metrics.IncSinksOpened(BackendFile)
	}
	f.logger.Debug("opened file sink", "path", path, "append", mode.Append())

	return &fileSink{File: file, metrics: f.metrics}, nil
}

// fileSink is an *os.File that reports its final size on close.
type fileSink struct {
	*os.File
	metrics MetricsCollector
}

// Close closes the file.
func (s *fileSink) Close() error {
	if s.metrics != nil {
		if info, err := s.Stat(); err == nil {
			s.metrics.ObserveFileSize(BackendFile, float64(info.Size()))
		}
	}
	if err := s.File.Close(); err != nil {
		if s.metrics != nil {
			s.metrics.IncStorageErrors(BackendFile, "close")
		}
		return fmt.Errorf("failed to close %s: %w", s.Name(), err)
	}
	return nil
}
