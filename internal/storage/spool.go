package storage

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jittakal/splitstore/internal/errors"
)

// spoolSink buffers a split file in a local temp file and hands it to
// upload when closed. Object stores have no append, so the object is
// written in one piece.
type spoolSink struct {
	name    string
	backend string
	file    *os.File
	upload  func(file *os.File) error
	metrics MetricsCollector
	closed  bool
}

func newSpoolSink(name, backend, spoolDir string, metrics MetricsCollector, upload func(*os.File) error) (*spoolSink, error) {
	file, err := os.CreateTemp(spoolDir, backend+"-spool-*")
	if err != nil {
		if metrics != nil {
			metrics.IncStorageErrors(backend, "spool_create")
		}
		return nil, &errors.StorageError{Operation: "open", Path: name, Err: err}
	}
	return &spoolSink{
		name:    name,
		backend: backend,
		file:    file,
		upload:  upload,
		metrics: metrics,
	}, nil
}

// Name returns the object URI.
func (s *spoolSink) Name() string {
	return s.name
}

// Write appends p to the spool file.
func (s *spoolSink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, &errors.StorageError{Operation: "write", Path: s.name, Err: os.ErrClosed}
	}
	n, err := s.file.Write(p)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncStorageErrors(s.backend, "spool_write")
		}
		return n, &errors.StorageError{Operation: "write", Path: s.name, Err: err}
	}
	return n, nil
}

// Close uploads the spooled content and removes the temp file.
func (s *spoolSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer os.Remove(s.file.Name())

	var uploadErr error
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		uploadErr = fmt.Errorf("failed to rewind spool file: %w", err)
	} else {
		if s.metrics != nil {
			if info, err := s.file.Stat(); err == nil {
				s.metrics.ObserveFileSize(s.backend, float64(info.Size()))
			}
		}
		start := time.Now()
		if err := s.upload(s.file); err != nil {
			if s.metrics != nil {
				s.metrics.IncStorageErrors(s.backend, "upload")
			}
			uploadErr = &errors.StorageError{Operation: "upload", Path: s.name, Err: err}
		} else if s.metrics != nil {
			s.metrics.ObserveUploadDuration(s.backend, time.Since(start).Seconds())
		}
	}

	return stderrors.Join(uploadErr, s.file.Close())
}

// objectKey converts a writer path into an object key.
func objectKey(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(path), "/")
}

// contentType returns the MIME type used for an uploaded split file.
func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".json", ".jsonl", ".ndjson":
		return "application/x-ndjson"
	case ".txt", ".log":
		return "text/plain"
	case ".avro":
		return "application/avro"
	case ".gz":
		return "application/gzip"
	default:
		return "application/octet-stream"
	}
}
