package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jittakal/splitstore/pkg/split"
)

// Ensure implementation satisfies interface at compile time.
var _ split.SinkFactory = (*S3SinkFactory)(nil)

// S3Config contains AWS S3 configuration.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	UsePathStyle bool
	SSEEnabled   bool
	SSEKMSKeyID  string
	SpoolDir     string
}

// s3Uploader is the subset of manager.Uploader used by the sinks.
type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3SinkFactory opens split files as S3 objects. Each sink spools to a
// temp file and is uploaded with multipart support when closed.
type S3SinkFactory struct {
	ctx         context.Context
	uploader    s3Uploader
	bucket      string
	sseEnabled  bool
	sseKMSKeyID string
	spoolDir    string
	logger      *slog.Logger
	metrics     MetricsCollector
}

// NewS3SinkFactory creates a new S3 sink factory. Uploads carry the values
// of ctx but not its cancellation: the last file and the index are
// uploaded when the writer closes during shutdown, after ctx is done.
func NewS3SinkFactory(
	ctx context.Context,
	cfg S3Config,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*S3SinkFactory, error) {
	if err := validateS3Config(cfg); err != nil {
		return nil, err
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	uploader := manager.NewUploader(s3Client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024 // 10MB parts
		u.Concurrency = 5
	})

	logger.Info("S3 sink factory created",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"sse_enabled", cfg.SSEEnabled,
	)

	return newS3SinkFactory(ctx, uploader, cfg, logger, metrics), nil
}

func newS3SinkFactory(
	ctx context.Context,
	uploader s3Uploader,
	cfg S3Config,
	logger *slog.Logger,
	metrics MetricsCollector,
) *S3SinkFactory {
	return &S3SinkFactory{
		ctx:         context.WithoutCancel(ctx),
		uploader:    uploader,
		bucket:      cfg.Bucket,
		sseEnabled:  cfg.SSEEnabled,
		sseKMSKeyID: cfg.SSEKMSKeyID,
		spoolDir:    cfg.SpoolDir,
		logger:      logger,
		metrics:     metrics,
	}
}

// Open returns a sink that uploads to the object key derived from path.
// The mode is ignored: objects are always replaced.
func (f *S3SinkFactory) Open(path string, mode split.OpenMode) (split.Sink, error) {
	key := objectKey(path)
	name := fmt.Sprintf("s3://%s/%s", f.bucket, key)

	sink, err := newSpoolSink(name, BackendS3, f.spoolDir, f.metrics, func(file *os.File) error {
		return f.upload(key, file)
	})
	if err != nil {
		return nil, err
	}

	if f.metrics != nil {
		f.metrics.IncSinksOpened(BackendS3)
	}
	f.logger.Debug("opened S3 sink", "object", name, "append_requested", mode.Append())
	return sink, nil
}

func (f *S3SinkFactory) upload(key string, file *os.File) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(f.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType(key)),
	}

	if f.sseEnabled {
		if f.sseKMSKeyID != "" {
			input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
			input.SSEKMSKeyId = aws.String(f.sseKMSKeyID)
		} else {
			input.ServerSideEncryption = types.ServerSideEncryptionAes256
		}
	}

	result, err := f.uploader.Upload(f.ctx, input)
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	f.logger.Info("uploaded split file to S3",
		"bucket", f.bucket,
		"key", key,
		"location", result.Location,
	)
	return nil
}

func validateS3Config(cfg S3Config) error {
	if cfg.Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		return fmt.Errorf("s3 region is required")
	}
	return nil
}
