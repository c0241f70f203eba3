package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/jittakal/splitstore/internal/errors"
	"github.com/jittakal/splitstore/internal/validator"
	"github.com/jittakal/splitstore/pkg/buffer"
	"github.com/jittakal/splitstore/pkg/consumer"
	"github.com/jittakal/splitstore/pkg/event"
)

// DLQ reasons.
const (
	ReasonInvalidMessage = "invalid_message"
	ReasonWriteFailed    = "write_failed"
)

// SplitWriter is the part of the split writer the pipeline drives.
type SplitWriter interface {
	SetLabels(labels []string) error
	Labels() []string
	WriteLines(lines [][]byte) error
}

// MetricsCollector defines the interface for collecting ingest metrics.
type MetricsCollector interface {
	IncBulksFlushed(topic string, partition int32, status string)
	ObserveFlushDuration(topic string, duration float64)
	SetBufferRecords(topic string, partition int32, count float64)
	IncDLQMessages(topic string, reason string)
}

// Config controls bulk sizing and labelling.
type Config struct {
	// BulkMaxRecords flushes a partition once it holds this many messages.
	BulkMaxRecords int
	// FlushInterval flushes every partition periodically. Zero disables it.
	FlushInterval time.Duration
	// Labels are attached to every split file.
	Labels []string
	// PartitionLabels appends the topic and "p<partition>" to Labels.
	PartitionLabels bool
}

// Pipeline moves consumed messages into the split writer one bulk per
// partition flush. Offsets are committed only after the bulk is written.
type Pipeline struct {
	config    Config
	writer    SplitWriter
	buffers   buffer.Manager
	validator *validator.MessageValidator
	dlq       consumer.DLQPublisher
	logger    *slog.Logger
	metrics   MetricsCollector

	mu      sync.Mutex
	applied []string
	running atomic.Bool
	flushed atomic.Int64
}

// NewPipeline creates a pipeline. dlq and metrics may be nil.
func NewPipeline(
	config Config,
	writer SplitWriter,
	buffers buffer.Manager,
	dlq consumer.DLQPublisher,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*Pipeline, error) {
	if writer == nil {
		return nil, fmt.Errorf("split writer is required")
	}
	if buffers == nil {
		return nil, fmt.Errorf("buffer manager is required")
	}
	if err := validator.ValidateLabels(config.Labels); err != nil {
		return nil, fmt.Errorf("invalid static labels: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pipeline{
		config:    config,
		writer:    writer,
		buffers:   buffers,
		validator: validator.NewMessageValidator(),
		dlq:       dlq,
		logger:    logger,
		metrics:   metrics,
		applied:   writer.Labels(),
	}, nil
}

// Running reports whether Run is consuming.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// BulksFlushed returns the number of bulks written so far.
func (p *Pipeline) BulksFlushed() int64 {
	return p.flushed.Load()
}

// Run consumes messages until ctx is cancelled or messages is closed,
// then flushes every buffered partition.
func (p *Pipeline) Run(ctx context.Context, messages <-chan *event.Message, errs <-chan error) error {
	p.running.Store(true)
	defer p.running.Store(false)

	var tick <-chan time.Time
	if p.config.FlushInterval > 0 {
		ticker := time.NewTicker(p.config.FlushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// The final flush must reach the DLQ even though ctx is done.
	drainCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("context cancelled, flushing buffers")
			return p.FlushAll(drainCtx)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Error("consumer error", "error", err)
		case msg, ok := <-messages:
			if !ok {
				p.logger.Info("message channel closed, flushing buffers")
				return p.FlushAll(drainCtx)
			}
			if err := p.handle(ctx, msg); err != nil {
				return err
			}
		case <-tick:
			if err := p.FlushAll(ctx); err != nil {
				return err
			}
		}
	}
}

// FlushAll flushes every partition buffer.
func (p *Pipeline) FlushAll(ctx context.Context) error {
	var errs []error
	for _, pid := range p.buffers.Partitions() {
		if err := p.Flush(ctx, pid); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush writes the buffered messages of one partition as a single bulk.
// When the bulk fails, the messages that reached the split file are
// committed and only the rest go to the DLQ. A line cut short by the
// failure may be both in the file and in the DLQ.
func (p *Pipeline) Flush(ctx context.Context, pid event.PartitionID) error {
	messages := p.buffers.GetOrCreate(pid).Drain()
	if len(messages) == 0 {
		return nil
	}
	if p.metrics != nil {
		p.metrics.SetBufferRecords(pid.Topic, pid.Partition, 0)
	}

	start := time.Now()
	if err := p.write(pid, messages); err != nil {
		written := 0
		var partial *apperrors.PartialWriteError
		if errors.As(err, &partial) {
			written = partial.Written
		}
		p.commit(pid, messages[:written])
		failed := messages[written:]

		werr := &apperrors.ProcessingError{PartitionID: pid, Offset: failed[0].Offset, Err: err}
		p.logger.Error("failed to write bulk",
			"topic", pid.Topic,
			"partition", pid.Partition,
			"records", len(messages),
			"written", written,
			"error", werr,
		)
		if p.metrics != nil {
			p.metrics.IncBulksFlushed(pid.Topic, pid.Partition, "failure")
		}
		if p.dlq == nil {
			// The unwritten tail stays uncommitted and is redelivered.
			return werr
		}
		for _, msg := range failed {
			if err := p.reject(ctx, msg, ReasonWriteFailed); err != nil {
				return errors.Join(werr, err)
			}
		}
		return nil
	}

	p.commit(pid, messages)
	p.flushed.Add(1)
	if p.metrics != nil {
		p.metrics.IncBulksFlushed(pid.Topic, pid.Partition, "success")
		p.metrics.ObserveFlushDuration(pid.Topic, time.Since(start).Seconds())
	}
	p.logger.Info("wrote bulk",
		"topic", pid.Topic,
		"partition", pid.Partition,
		"records", len(messages),
		"first_offset", messages[0].Offset,
		"last_offset", messages[len(messages)-1].Offset,
	)
	return nil
}

func (p *Pipeline) commit(pid event.PartitionID, messages []*event.Message) {
	for _, msg := range messages {
		if err := msg.Commit(); err != nil {
			p.logger.Error("failed to commit offset",
				"error", &apperrors.CommitError{PartitionID: pid, Offset: msg.Offset, Err: err},
			)
		}
	}
}

func (p *Pipeline) handle(ctx context.Context, msg *event.Message) error {
	if msg == nil {
		p.logger.Warn("dropping nil message")
		return nil
	}

	if err := p.validator.Validate(msg); err != nil {
		p.logger.Warn("invalid message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return p.reject(ctx, msg, ReasonInvalidMessage)
	}

	pid := msg.PartitionID()
	buf := p.buffers.GetOrCreate(pid)
	if err := buf.Add(msg); err != nil {
		if !errors.Is(err, apperrors.ErrBufferFull) {
			return fmt.Errorf("failed to buffer message: %w", err)
		}
		if err := p.Flush(ctx, pid); err != nil {
			return err
		}
		if err := buf.Add(msg); err != nil {
			return fmt.Errorf("failed to buffer message after flush: %w", err)
		}
	}

	count := buf.Stats().RecordCount
	if p.metrics != nil {
		p.metrics.SetBufferRecords(pid.Topic, pid.Partition, float64(count))
	}
	if p.config.BulkMaxRecords > 0 && count >= p.config.BulkMaxRecords {
		return p.Flush(ctx, pid)
	}
	return nil
}

func (p *Pipeline) write(pid event.PartitionID, messages []*event.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	labels := p.labelsFor(pid)
	if !slices.Equal(labels, p.applied) {
		if err := validator.ValidateLabels(labels); err != nil {
			return err
		}
		if err := p.writer.SetLabels(labels); err != nil {
			return fmt.Errorf("failed to set labels: %w", err)
		}
		p.applied = labels
	}

	lines := make([][]byte, len(messages))
	for i, msg := range messages {
		lines[i] = msg.Line()
	}
	return p.writer.WriteLines(lines)
}

func (p *Pipeline) labelsFor(pid event.PartitionID) []string {
	labels := slices.Clone(p.config.Labels)
	if p.config.PartitionLabels {
		labels = append(labels, pid.Topic, "p"+strconv.FormatInt(int64(pid.Partition), 10))
	}
	return labels
}

// reject sends msg to the DLQ and commits it so it is not redelivered.
func (p *Pipeline) reject(ctx context.Context, msg *event.Message, reason string) error {
	if p.dlq != nil {
		if err := p.dlq.Publish(ctx, msg, reason); err != nil {
			return fmt.Errorf("failed to publish offset %d of %s to DLQ: %w", msg.Offset, msg.PartitionID(), err)
		}
	}
	if p.metrics != nil {
		p.metrics.IncDLQMessages(msg.Topic, reason)
	}
	if err := msg.Commit(); err != nil {
		p.logger.Error("failed to commit rejected message",
			"error", &apperrors.CommitError{PartitionID: msg.PartitionID(), Offset: msg.Offset, Err: err},
		)
	}
	return nil
}
