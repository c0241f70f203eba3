package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jittakal/splitstore/internal/config/dto"
	"github.com/jittakal/splitstore/internal/encoder"
	"github.com/jittakal/splitstore/internal/observability"
	"github.com/jittakal/splitstore/internal/splitter"
	"github.com/jittakal/splitstore/internal/storage"
	"github.com/jittakal/splitstore/pkg/split"
)

func newLogger(cfg *dto.ApplicationConfig) *slog.Logger {
	return observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: cfg.Observability.Logging.Output,
	})
}

// newSinkFactory creates the sink factory of the configured backend. The
// returned close func releases backend clients.
func newSinkFactory(
	ctx context.Context,
	cfg dto.StorageConfig,
	logger *slog.Logger,
	metrics storage.MetricsCollector,
) (split.SinkFactory, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.Backend) {
	case storage.BackendFile:
		return storage.NewFileSinkFactory(logger, metrics), noop, nil
	case storage.BackendS3:
		factory, err := storage.NewS3SinkFactory(ctx, storage.S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
			SSEEnabled:   cfg.S3.SSEEnabled,
			SSEKMSKeyID:  cfg.S3.SSEKMSKeyID,
			SpoolDir:     cfg.SpoolDir,
		}, logger, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 sink factory: %w", err)
		}
		return factory, noop, nil
	case storage.BackendGCS:
		factory, err := storage.NewGCSSinkFactory(ctx, storage.GCSConfig{
			Bucket:               cfg.GCS.Bucket,
			ProjectID:            cfg.GCS.ProjectID,
			CredentialsFile:      cfg.GCS.CredentialsFile,
			CredentialsJSON:      cfg.GCS.CredentialsJSON,
			Endpoint:             cfg.GCS.Endpoint,
			UseDefaultCredential: cfg.GCS.UseDefaultCredential,
		}, logger, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create GCS sink factory: %w", err)
		}
		return factory, factory.Close, nil
	case storage.BackendAzure:
		factory, err := storage.NewAzureSinkFactory(ctx, storage.AzureConfig{
			AccountName:   cfg.Azure.AccountName,
			AccountKey:    cfg.Azure.AccountKey,
			ContainerName: cfg.Azure.Container,
			Endpoint:      cfg.Azure.Endpoint,
			SpoolDir:      cfg.SpoolDir,
		}, logger, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Azure sink factory: %w", err)
		}
		return factory, noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s (supported: file, s3, gcs, azure)", cfg.Backend)
	}
}

// splitterConfig maps the configuration onto the writer settings.
func splitterConfig(cfg dto.SplitterConfig) splitter.Config {
	mode := split.AppendBinary
	if strings.EqualFold(cfg.OpenMode, "truncate") {
		mode = split.Truncate
	}
	return splitter.Config{
		BasePath:     cfg.BasePath,
		Suffix:       cfg.Suffix,
		MaxLabels:    cfg.MaxLabels,
		LastGroupID:  cfg.LastGroupID,
		BulksPerFile: cfg.BulksPerFile,
		LinesPerFile: cfg.LinesPerFile,
		OpenMode:     mode,
	}
}

// writerOptions returns the path builder and index encoder options.
func writerOptions(cfg dto.SplitterConfig) ([]splitter.Option, error) {
	paths, err := storage.NewPathBuilder(cfg.PathLayout, cfg.LabelKeys)
	if err != nil {
		return nil, err
	}

	encoders, err := encoder.NewEncoders(cfg.IndexFormats, cfg.IndexCompression)
	if err != nil {
		return nil, fmt.Errorf("invalid index formats: %w", err)
	}

	return []splitter.Option{
		splitter.WithPathBuilder(paths),
		splitter.WithIndexEncoders(encoders...),
	}, nil
}
