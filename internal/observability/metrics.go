package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. It implements the metrics
// collector interfaces of the splitter, storage, kafka and ingest packages.
type Metrics struct {
	// Split writer metrics
	FilesOpened  *prometheus.CounterVec
	LinesWritten prometheus.Counter
	BulksWritten prometheus.Counter
	IndexRows    prometheus.Gauge

	// Storage metrics
	SinksOpened    *prometheus.CounterVec
	StorageErrors  *prometheus.CounterVec
	FileSize       *prometheus.HistogramVec
	UploadDuration *prometheus.HistogramVec

	// Consumer metrics
	MessagesConsumed   *prometheus.CounterVec
	OffsetCommits      *prometheus.CounterVec
	Rebalances         *prometheus.CounterVec
	RebalanceDuration  *prometheus.HistogramVec
	PartitionsAssigned *prometheus.GaugeVec

	// Ingest metrics
	BulksFlushed      *prometheus.CounterVec
	FlushDuration     *prometheus.HistogramVec
	BufferRecordCount *prometheus.GaugeVec
	DLQMessages       *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		FilesOpened: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "split_files_opened_total",
				Help: "Total number of split files opened, by reason",
			},
			[]string{"reason"},
		),
		LinesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "split_lines_written_total",
				Help: "Total number of complete lines written to split files",
			},
		),
		BulksWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "split_bulks_written_total",
				Help: "Total number of non-empty bulks written to split files",
			},
		),
		IndexRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "split_index_rows",
				Help: "Number of rows held in the pending index",
			},
		),

		SinksOpened: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_sinks_opened_total",
				Help: "Total number of sinks opened per storage backend",
			},
			[]string{"backend"},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"backend", "error_type"},
		),
		FileSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storage_file_size_bytes",
				Help:    "Size of split files when closed",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to 256MB
			},
			[]string{"backend"},
		),
		UploadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storage_upload_duration_seconds",
				Help:    "Duration of object uploads",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),

		MessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_messages_consumed_total",
				Help: "Total number of messages consumed from Kafka",
			},
			[]string{"topic", "partition"},
		),
		OffsetCommits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_offset_commit_total",
				Help: "Total number of offset commits",
			},
			[]string{"topic", "partition", "status"},
		),
		Rebalances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_rebalance_total",
				Help: "Total number of consumer group rebalances",
			},
			[]string{"group"},
		),
		RebalanceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kafka_rebalance_duration_seconds",
				Help:    "Duration of consumer group rebalances",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"group"},
		),
		PartitionsAssigned: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kafka_partitions_assigned",
				Help: "Number of partitions currently assigned to this consumer",
			},
			[]string{"topic"},
		),

		BulksFlushed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulks_flushed_total",
				Help: "Total number of buffered bulks flushed to the split writer",
			},
			[]string{"topic", "partition", "status"},
		),
		FlushDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bulk_flush_duration_seconds",
				Help:    "Duration of bulk flushes including offset commits",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topic"},
		),
		BufferRecordCount: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "buffer_record_count",
				Help: "Current number of messages in a partition buffer",
			},
			[]string{"topic", "partition"},
		),
		DLQMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dlq_messages_total",
				Help: "Total number of messages published to the dead letter queue",
			},
			[]string{"topic", "reason"},
		),
	}
}

func partitionLabel(partition int32) string {
	return strconv.FormatInt(int64(partition), 10)
}

// IncFilesOpened increments the split files counter.
func (m *Metrics) IncFilesOpened(reason string) {
	m.FilesOpened.WithLabelValues(reason).Inc()
}

// AddLinesWritten adds to the written lines counter.
func (m *Metrics) AddLinesWritten(n int) {
	m.LinesWritten.Add(float64(n))
}

// IncBulksWritten increments the written bulks counter.
func (m *Metrics) IncBulksWritten() {
	m.BulksWritten.Inc()
}

// SetIndexRows sets the pending index rows gauge.
func (m *Metrics) SetIndexRows(n int) {
	m.IndexRows.Set(float64(n))
}

// IncSinksOpened increments the opened sinks counter.
func (m *Metrics) IncSinksOpened(backend string) {
	m.SinksOpened.WithLabelValues(backend).Inc()
}

// IncStorageErrors increments storage errors counter.
func (m *Metrics) IncStorageErrors(backend string, operation string) {
	m.StorageErrors.WithLabelValues(backend, operation).Inc()
}

// ObserveFileSize observes file size.
func (m *Metrics) ObserveFileSize(backend string, size float64) {
	m.FileSize.WithLabelValues(backend).Observe(size)
}

// ObserveUploadDuration observes upload duration.
func (m *Metrics) ObserveUploadDuration(backend string, duration float64) {
	m.UploadDuration.WithLabelValues(backend).Observe(duration)
}

// IncMessagesConsumed increments messages consumed counter.
func (m *Metrics) IncMessagesConsumed(topic string, partition int32) {
	m.MessagesConsumed.WithLabelValues(topic, partitionLabel(partition)).Inc()
}

// IncRebalances increments rebalances counter.
func (m *Metrics) IncRebalances(groupID string) {
	m.Rebalances.WithLabelValues(groupID).Inc()
}

// IncOffsetCommits increments offset commits counter.
func (m *Metrics) IncOffsetCommits(topic string, partition int32, status string) {
	m.OffsetCommits.WithLabelValues(topic, partitionLabel(partition), status).Inc()
}

// ObserveRebalanceDuration observes rebalance duration.
func (m *Metrics) ObserveRebalanceDuration(groupID string, duration float64) {
	m.RebalanceDuration.WithLabelValues(groupID).Observe(duration)
}

// SetPartitionsAssigned sets partitions assigned gauge.
func (m *Metrics) SetPartitionsAssigned(topic string, count float64) {
	m.PartitionsAssigned.WithLabelValues(topic).Set(count)
}

// IncBulksFlushed increments the flushed bulks counter.
func (m *Metrics) IncBulksFlushed(topic string, partition int32, status string) {
	m.BulksFlushed.WithLabelValues(topic, partitionLabel(partition), status).Inc()
}

// ObserveFlushDuration observes a bulk flush duration.
func (m *Metrics) ObserveFlushDuration(topic string, duration float64) {
	m.FlushDuration.WithLabelValues(topic).Observe(duration)
}

// SetBufferRecords sets the buffered messages gauge of a partition.
func (m *Metrics) SetBufferRecords(topic string, partition int32, count float64) {
	m.BufferRecordCount.WithLabelValues(topic, partitionLabel(partition)).Set(count)
}

// IncDLQMessages increments the DLQ counter.
func (m *Metrics) IncDLQMessages(topic string, reason string) {
	m.DLQMessages.WithLabelValues(topic, reason).Inc()
}
