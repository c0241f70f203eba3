// Package split defines the contracts shared by the split writer and its
// collaborators: output sinks, sink factories, path builders, rotation
// policies and index records.
package split

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// Sink is an open output target for one split file.
type Sink interface {
	io.Writer
	io.Closer

	// Name identifies the sink in logs (file path or object URI).
	Name() string
}

// OpenMode controls how a sink is opened.
type OpenMode struct {
	Flag int
	Perm fs.FileMode
}

var (
	// AppendBinary opens a sink for appending raw bytes, creating it if needed.
	AppendBinary = OpenMode{Flag: os.O_CREATE | os.O_WRONLY | os.O_APPEND, Perm: 0o644}

	// Truncate opens a sink for writing from the start, discarding prior content.
	Truncate = OpenMode{Flag: os.O_CREATE | os.O_WRONLY | os.O_TRUNC, Perm: 0o644}
)

// Append reports whether the mode appends to existing content.
func (m OpenMode) Append() bool {
	return m.Flag&os.O_APPEND != 0
}

// SinkFactory opens sinks at a full path.
type SinkFactory interface {
	// Open opens the sink at path with the given mode.
	Open(path string, mode OpenMode) (Sink, error)
}

// PathBuilder turns labels and a sequence number into a file path
// relative to baseDir. Implementations must be pure.
type PathBuilder interface {
	// Build returns the path for a split file.
	Build(baseDir, suffix string, labels []string, seq int64) string

	// BuildNamed returns the path for a file with a literal name, such as the index.
	BuildNamed(baseDir, suffix, name string) string
}

// FileStats holds the counters of the currently open split file.
type FileStats struct {
	LineCount int
	BulkCount int
}

// RotationPolicy decides when the current split file is full.
type RotationPolicy interface {
	// ShouldRotate returns true if a new file must be opened before the next write.
	ShouldRotate(stats FileStats) bool
}

// IndexRecord describes one split file created by a writer.
type IndexRecord struct {
	FileID    int64
	Path      string
	Labels    []string
	CreatedAt time.Time
}

// FormatFileID renders a file id the way it appears in file names and index rows.
func FormatFileID(id int64) string {
	return fmt.Sprintf("%06d", id)
}

// Row returns the index columns for the record: id, path, then labels
// padded with empty values, truncated to maxLabels+2 columns.
func (r IndexRecord) Row(maxLabels int) []string {
	row := make([]string, 0, 2+len(r.Labels)+maxLabels)
	row = append(row, FormatFileID(r.FileID), r.Path)
	row = append(row, r.Labels...)
	for i := 0; i < maxLabels; i++ {
		row = append(row, "")
	}
	return row[:maxLabels+2]
}
