package splitter

import (
	"bytes"
	"errors"
	"sync"

	"github.com/jittakal/splitstore/pkg/split"
)

// memFactory is an in-memory split.SinkFactory.
type memFactory struct {
	mu      sync.Mutex
	files   map[string]*bytes.Buffer
	opened  []string
	modes   []split.OpenMode
	open    int
	failErr error
	failOn  func(path string) bool
}

func newMemFactory() *memFactory {
	return &memFactory{files: make(map[string]*bytes.Buffer)}
}

func (f *memFactory) Open(path string, mode split.OpenMode) (split.Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failOn != nil && f.failOn(path) {
		return nil, f.failErr
	}

	buf, ok := f.files[path]
	if !ok || !mode.Append() {
		buf = &bytes.Buffer{}
		f.files[path] = buf
	}
	f.opened = append(f.opened, path)
	f.modes = append(f.modes, mode)
	f.open++
	return &memSink{name: path, buf: buf, factory: f}, nil
}

func (f *memFactory) content(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if buf, ok := f.files[path]; ok {
		return buf.String()
	}
	return ""
}

func (f *memFactory) openSinks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

type memSink struct {
	name     string
	buf      *bytes.Buffer
	factory  *memFactory
	closed   bool
	closeErr error
}

func (s *memSink) Name() string { return s.name }

func (s *memSink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errors.New("write to closed sink")
	}
	return s.buf.Write(p)
}

func (s *memSink) Close() error {
	if s.closed {
		return errors.New("sink closed twice")
	}
	s.closed = true
	s.factory.mu.Lock()
	s.factory.open--
	s.factory.mu.Unlock()
	return s.closeErr
}

// mockMetricsCollector implements MetricsCollector for testing.
type mockMetricsCollector struct {
	filesOpened map[string]int
	lines       int
	bulks       int
	indexRows   int
}

func newMockMetricsCollector() *mockMetricsCollector {
	return &mockMetricsCollector{filesOpened: make(map[string]int)}
}

func (m *mockMetricsCollector) IncFilesOpened(reason string) { m.filesOpened[reason]++ }
func (m *mockMetricsCollector) AddLinesWritten(n int)        { m.lines += n }
func (m *mockMetricsCollector) IncBulksWritten()             { m.bulks++ }
func (m *mockMetricsCollector) SetIndexRows(n int)           { m.indexRows = n }
