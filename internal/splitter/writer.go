package splitter

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jittakal/splitstore/internal/errors"
	"github.com/jittakal/splitstore/internal/storage"
	"github.com/jittakal/splitstore/pkg/encoder"
	"github.com/jittakal/splitstore/pkg/split"
)

// Ensure implementation satisfies interfaces at compile time.
var (
	_ io.Writer       = (*Writer)(nil)
	_ io.StringWriter = (*Writer)(nil)
	_ io.Closer       = (*Writer)(nil)
)

// Reasons reported when a split file is opened.
const (
	ReasonInitial = "initial"
	ReasonLabels  = "labels"
	ReasonLines   = "lines"
	ReasonBulks   = "bulks"
)

const (
	indexName   = "index_file"
	indexSuffix = ".csv"
)

// Stats is a snapshot of the writer counters.
type Stats struct {
	FileID       int64
	LinesWritten int64
	FileLines    int
	FileBulks    int
	FilesCreated int
}

// Writer writes lines to a sequence of split files, rotating on line or
// bulk thresholds and on label changes, and records every file it creates
// in an index written at Close.
type Writer struct {
	mu sync.Mutex

	basePath  string
	suffix    string
	maxLabels int
	mode      split.OpenMode
	policy    *storage.ThresholdPolicy

	sinks    split.SinkFactory
	paths    split.PathBuilder
	encoders []encoder.IndexEncoder
	logger   *slog.Logger
	metrics  MetricsCollector
	now      func() time.Time

	labels       []string
	fileID       int64
	linesWritten int64
	fileLines    int
	fileBulks    int
	records      []split.IndexRecord
	current      split.Sink
	closed       bool
}

// New creates a writer. No file is opened until the first write or
// label change. cfg is used as given, so callers build it from
// DefaultConfig rather than a bare literal.
func New(cfg Config, opts ...Option) (*Writer, error) {
	if cfg.BasePath == "" {
		return nil, errors.ErrMissingBasePath
	}
	if cfg.MaxLabels < 0 {
		return nil, fmt.Errorf("%w: max labels must not be negative, got %d", errors.ErrInvalidConfig, cfg.MaxLabels)
	}

	w := &Writer{
		basePath:  trimSeparator(cfg.BasePath),
		suffix:    cfg.Suffix,
		maxLabels: cfg.MaxLabels,
		mode:      cfg.OpenMode,
		policy:    storage.NewThresholdPolicy(cfg.LinesPerFile, cfg.BulksPerFile),
		now:       time.Now,
	}
	if cfg.LastGroupID >= 0 {
		w.fileID = int64(math.Ceil(cfg.LastGroupID))
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	if w.sinks == nil {
		w.sinks = storage.NewFileSinkFactory(w.logger, nil)
	}
	if w.paths == nil {
		w.paths = storage.FillerBuilder{}
	}
	if w.mode.Flag == 0 {
		w.mode = split.AppendBinary
	}

	return w, nil
}

// With creates a writer, passes it to fn and closes it on every exit path.
func With(cfg Config, fn func(*Writer) error, opts ...Option) (err error) {
	w, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			err = stderrors.Join(err, cerr)
		}
	}()
	return fn(w)
}

// SetLabels replaces the active labels, keeping at most MaxLabels of
// them, and starts a new split file even when nothing was written to the
// previous one.
func (w *Writer) SetLabels(labels []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.ErrWriterClosed
	}

	n := min(len(labels), w.maxLabels)
	w.labels = append([]string(nil), labels[:n]...)
	w.logger.Info("attached labels", "labels", w.labels)

	if err := w.closeCurrent(); err != nil {
		return err
	}
	return w.createFile(ReasonLabels)
}

// SetBasePath moves the writer to a new base path and clears the labels.
// The next write opens a file under the new path.
func (w *Writer) SetBasePath(basePath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.ErrWriterClosed
	}
	if basePath == "" {
		return errors.ErrMissingBasePath
	}

	w.basePath = trimSeparator(basePath)
	w.labels = nil
	return w.closeCurrent()
}

// Write splits p on newlines and writes every piece to the current file.
// Only complete lines are counted; the bulk counter is not touched.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, errors.ErrWriterClosed
	}

	written := 0
	rest := p
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			// The trailing piece may be empty; it still passes the rotation check.
			n, err := w.writeLine(rest)
			return written + n, err
		}
		n, err := w.writeLine(rest[:i+1])
		written += n
		if err != nil {
			return written, err
		}
		rest = rest[i+1:]
	}
}

// WriteString writes s like Write.
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// WriteLines writes each line as given and counts one bulk when lines is
// not empty. Lines are not split or terminated. A failure is returned as
// *errors.PartialWriteError holding the number of lines written before it.
func (w *Writer) WriteLines(lines [][]byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.ErrWriterClosed
	}

	for i, line := range lines {
		if _, err := w.writeLine(line); err != nil {
			return &errors.PartialWriteError{Written: i, Total: len(lines), Err: err}
		}
	}

	if len(lines) > 0 {
		w.fileBulks++
		if w.metrics != nil {
			w.metrics.IncBulksWritten()
		}
	}
	return nil
}

// WriteStrings writes lines like WriteLines.
func (w *Writer) WriteStrings(lines []string) error {
	if lines == nil {
		return w.WriteLines(nil)
	}
	converted := make([][]byte, len(lines))
	for i, line := range lines {
		converted[i] = []byte(line)
	}
	return w.WriteLines(converted)
}

// Close closes the current file and writes the index file followed by
// any configured manifests. Calling Close again is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	closeErr := w.closeCurrent()
	indexErr := w.writeIndex()
	manifestErr := w.writeManifests()

	return stderrors.Join(closeErr, indexErr, manifestErr)
}

// Labels returns a copy of the active labels.
func (w *Writer) Labels() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.labels...)
}

// BasePath returns the current base path.
func (w *Writer) BasePath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.basePath
}

// Stats returns a snapshot of the writer counters.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		FileID:       w.fileID,
		LinesWritten: w.linesWritten,
		FileLines:    w.fileLines,
		FileBulks:    w.fileBulks,
		FilesCreated: len(w.records),
	}
}

// Records returns a copy of the index records collected so far.
func (w *Writer) Records() []split.IndexRecord {
	w.mu.Lock()
	defer w.mu.Unlock()

	records := make([]split.IndexRecord, len(w.records))
	for i, r := range w.records {
		r.Labels = append([]string(nil), r.Labels...)
		records[i] = r
	}
	return records
}

// writeLine is the line primitive: rotation check, sink write, counters.
func (w *Writer) writeLine(line []byte) (int, error) {
	sink, err := w.currentSink()
	if err != nil {
		return 0, err
	}

	n, err := sink.Write(line)
	if err != nil {
		return n, &errors.StorageError{Operation: "write", Path: sink.Name(), Err: err}
	}
	w.logger.Debug("wrote line", "file", sink.Name(), "line", string(line))

	count := bytes.Count(line, []byte{'\n'})
	w.linesWritten += int64(count)
	w.fileLines += count
	if w.metrics != nil && count > 0 {
		w.metrics.AddLinesWritten(count)
	}
	return n, nil
}

// currentSink returns the open sink, opening the first file or rotating
// when the current one is full.
func (w *Writer) currentSink() (split.Sink, error) {
	stats := split.FileStats{LineCount: w.fileLines, BulkCount: w.fileBulks}

	switch {
	case w.current == nil:
		if err := w.createFile(ReasonInitial); err != nil {
			return nil, err
		}
	case w.policy.ShouldRotate(stats):
		reason := w.policy.Reason(stats)
		if err := w.closeCurrent(); err != nil {
			return nil, err
		}
		if err := w.createFile(reason); err != nil {
			return nil, err
		}
	}
	return w.current, nil
}

// createFile consumes the next file id, records it in the index and
// opens the sink. The record is kept even when the open fails.
func (w *Writer) createFile(reason string) error {
	w.fileID++
	w.fileLines = 0
	w.fileBulks = 0

	rel := w.paths.Build(w.basePath, w.suffix, w.labels, w.fileID)
	w.records = append(w.records, split.IndexRecord{
		FileID:    w.fileID,
		Path:      rel,
		Labels:    append([]string(nil), w.labels...),
		CreatedAt: w.now(),
	})
	if w.metrics != nil {
		w.metrics.SetIndexRows(len(w.records))
	}

	full := joinPath(w.basePath, rel)
	sink, err := w.sinks.Open(full, w.mode)
	if err != nil {
		return fmt.Errorf("failed to open split file %s: %w", full, err)
	}
	w.current = sink

	w.logger.Info("opening file",
		"file", sink.Name(),
		"file_id", split.FormatFileID(w.fileID),
		"labels", w.labels,
		"reason", reason,
	)
	if w.metrics != nil {
		w.metrics.IncFilesOpened(reason)
	}
	return nil
}

func (w *Writer) closeCurrent() error {
	if w.current == nil {
		return nil
	}

	sink := w.current
	w.current = nil

	err := sink.Close()
	w.logger.Info("closing file", "file", sink.Name())
	if err != nil {
		return &errors.StorageError{Operation: "close", Path: sink.Name(), Err: err}
	}
	return nil
}

// indexContent renders the header and one row per record, newline-joined
// without a trailing newline.
func (w *Writer) indexContent() []byte {
	header := append([]string{"file_id", "file_name"}, make([]string, w.maxLabels)...)

	lines := make([]string, 0, len(w.records)+1)
	lines = append(lines, strings.Join(header, ","))
	for _, r := range w.records {
		lines = append(lines, strings.Join(r.Row(w.maxLabels), ","))
	}
	return []byte(strings.Join(lines, "\n"))
}

func (w *Writer) writeIndex() error {
	path := joinPath(w.basePath, w.paths.BuildNamed(w.basePath, indexSuffix, indexName))

	w.logger.Info("writing index file", "file", path, "rows", len(w.records))
	return w.writeFile(path, split.AppendBinary, func(sink split.Sink) error {
		_, err := sink.Write(w.indexContent())
		return err
	})
}

func (w *Writer) writeManifests() error {
	var errs []error
	for _, enc := range w.encoders {
		path := joinPath(w.basePath, w.paths.BuildNamed(w.basePath, enc.FileExtension(), indexName))

		w.logger.Info("writing index manifest", "file", path, "format", enc.Format())
		err := w.writeFile(path, split.Truncate, func(sink split.Sink) error {
			return enc.Encode(sink, w.records, w.maxLabels)
		})
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}

func (w *Writer) writeFile(path string, mode split.OpenMode, fill func(split.Sink) error) error {
	sink, err := w.sinks.Open(path, mode)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	if err := fill(sink); err != nil {
		sink.Close()
		return &errors.StorageError{Operation: "write", Path: sink.Name(), Err: err}
	}
	if err := sink.Close(); err != nil {
		return &errors.StorageError{Operation: "close", Path: sink.Name(), Err: err}
	}
	return nil
}

// trimSeparator removes one trailing path separator.
func trimSeparator(path string) string {
	if len(path) > 1 && (path[len(path)-1] == '/' || path[len(path)-1] == os.PathSeparator) {
		return path[:len(path)-1]
	}
	return path
}

func joinPath(basePath, rel string) string {
	return filepath.Join(basePath, rel)
}
