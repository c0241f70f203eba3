package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/jittakal/splitstore/internal/errors"
	"github.com/jittakal/splitstore/pkg/split"
)

// Ensure implementation satisfies interface at compile time.
var _ split.SinkFactory = (*GCSSinkFactory)(nil)

// GCSConfig contains Google Cloud Storage configuration.
type GCSConfig struct {
	Bucket               string
	ProjectID            string
	CredentialsFile      string
	CredentialsJSON      string
	Endpoint             string
	UseDefaultCredential bool
}

// GCSSinkFactory opens split files as GCS objects. Sinks stream directly
// into an object writer; the object becomes visible when the sink closes.
type GCSSinkFactory struct {
	ctx     context.Context
	client  *storage.Client
	bucket  string
	logger  *slog.Logger
	metrics MetricsCollector
}

// NewGCSSinkFactory creates a new Google Cloud Storage sink factory. Object
// writers are detached from the cancellation of ctx, since cancelling a
// writer's context discards the object.
func NewGCSSinkFactory(
	ctx context.Context,
	cfg GCSConfig,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*GCSSinkFactory, error) {
	if err := validateGCSConfig(cfg); err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, gcsClientOptions(cfg, logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	logger.Info("GCS sink factory created",
		"bucket", cfg.Bucket,
		"project_id", cfg.ProjectID,
	)

	return &GCSSinkFactory{
		ctx:     context.WithoutCancel(ctx),
		client:  client,
		bucket:  cfg.Bucket,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func gcsClientOptions(cfg GCSConfig, logger *slog.Logger) []option.ClientOption {
	var clientOpts []option.ClientOption
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}

	switch {
	case cfg.UseDefaultCredential:
		logger.Info("using default GCP credentials")
	case cfg.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
		logger.Info("using GCP credentials from JSON string")
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
		logger.Info("using GCP credentials from file", "file", cfg.CredentialsFile)
	default:
		logger.Info("no explicit credentials provided, using default GCP credentials")
	}
	return clientOpts
}

// Open returns a sink streaming into the object derived from path.
// The mode is ignored: objects are always replaced.
func (f *GCSSinkFactory) Open(path string, mode split.OpenMode) (split.Sink, error) {
	objectPath := objectKey(path)

	w := f.client.Bucket(f.bucket).Object(objectPath).NewWriter(f.ctx)
	w.ContentType = contentType(objectPath)

	if f.metrics != nil {
		f.metrics.IncSinksOpened(BackendGCS)
	}
	name := fmt.Sprintf("gs://%s/%s", f.bucket, objectPath)
	f.logger.Debug("opened GCS sink", "object", name, "append_requested", mode.Append())

	return &gcsSink{
		name:    name,
		writer:  w,
		metrics: f.metrics,
		opened:  time.Now(),
	}, nil
}

// Close closes the GCS client.
func (f *GCSSinkFactory) Close() error {
	f.logger.Info("closing GCS sink factory")
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

type gcsSink struct {
	name    string
	writer  *storage.Writer
	metrics MetricsCollector
	opened  time.Time
	written int64
}

func (s *gcsSink) Name() string {
	return s.name
}

func (s *gcsSink) Write(p []byte) (int, error) {
	n, err := s.writer.Write(p)
	s.written += int64(n)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncStorageErrors(BackendGCS, "write")
		}
		return n, &errors.StorageError{Operation: "write", Path: s.name, Err: err}
	}
	return n, nil
}

func (s *gcsSink) Close() error {
	if err := s.writer.Close(); err != nil {
		if s.metrics != nil {
			s.metrics.IncStorageErrors(BackendGCS, "close")
		}
		return &errors.StorageError{Operation: "upload", Path: s.name, Err: err}
	}
	if s.metrics != nil {
		s.metrics.ObserveFileSize(BackendGCS, float64(s.written))
		s.metrics.ObserveUploadDuration(BackendGCS, time.Since(s.opened).Seconds())
	}
	return nil
}

func validateGCSConfig(cfg GCSConfig) error {
	if cfg.Bucket == "" {
		return fmt.Errorf("gcs bucket is required")
	}
	return nil
}
