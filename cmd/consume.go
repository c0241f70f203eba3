package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jittakal/splitstore/internal/buffer"
	"github.com/jittakal/splitstore/internal/config"
	"github.com/jittakal/splitstore/internal/config/dto"
	"github.com/jittakal/splitstore/internal/ingest"
	"github.com/jittakal/splitstore/internal/kafka"
	"github.com/jittakal/splitstore/internal/observability"
	"github.com/jittakal/splitstore/internal/server"
	"github.com/jittakal/splitstore/internal/splitter"
	"github.com/jittakal/splitstore/pkg/consumer"
)

func newConsumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Consume Kafka topics into split files",
		Long: `Consumes the configured Kafka topics and writes every message value as
one line. Messages are buffered per partition and each flush is written as a
single bulk; offsets are committed once the bulk is written. The index is
written when the process shuts down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().Load(configPath(cmd))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := cfg.Kafka.Validate(); err != nil {
				return fmt.Errorf("config validation failed: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runConsume(ctx, cfg, newLogger(cfg))
		},
	}
}

func consumerConfig(cfg dto.KafkaConfig) kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		BootstrapServers:      cfg.BootstrapServers,
		GroupID:               cfg.Consumer.GroupID,
		SecurityProtocol:      cfg.SecurityProtocol,
		SASLMechanism:         cfg.SASLMechanism,
		SASLUsername:          cfg.SASLUsername,
		SASLPassword:          cfg.SASLPassword,
		AWSRegion:             cfg.AWSRegion,
		TLSInsecureSkipVerify: cfg.TLSInsecureSkipVerify,
		AutoOffsetReset:       cfg.Consumer.AutoOffsetReset,
		MaxPollIntervalMS:     cfg.Consumer.MaxPollIntervalMS,
		SessionTimeoutMS:      cfg.Consumer.SessionTimeoutMS,
		HeartbeatIntervalMS:   cfg.Consumer.HeartbeatIntervalMS,
	}
}

func ingestConfig(cfg *dto.ApplicationConfig) ingest.Config {
	return ingest.Config{
		BulkMaxRecords:  cfg.Processing.BulkMaxRecords,
		FlushInterval:   time.Duration(cfg.Processing.FlushIntervalSeconds) * time.Second,
		Labels:          cfg.Splitter.Labels,
		PartitionLabels: cfg.Processing.PartitionLabels,
	}
}

// runConsume wires the consumer, pipeline and writer and blocks until ctx
// is cancelled or the pipeline fails. Components are closed in reverse
// order of creation, so the writer writes its index after the last flush.
func runConsume(ctx context.Context, cfg *dto.ApplicationConfig, logger *slog.Logger) (err error) {
	logger.Info("starting splitstore consumer",
		"version", cfg.Application.Version,
		"environment", cfg.Application.Environment,
		"instance_id", cfg.Application.InstanceID,
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Track cleanup functions
	type cleanup struct {
		name string
		fn   func() error
	}
	var cleanups []cleanup
	addCleanup := func(name string, fn func() error) {
		cleanups = append(cleanups, cleanup{name: name, fn: fn})
		logger.Debug("registered cleanup", "component", name)
	}
	defer func() {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if cerr := cleanups[i].fn(); cerr != nil {
				logger.Error("cleanup failed", "component", cleanups[i].name, "error", cerr)
				errs = append(errs, fmt.Errorf("%s: %w", cleanups[i].name, cerr))
			}
		}
		err = errors.Join(append([]error{err}, errs...)...)
	}()

	sinks, closeSinks, err := newSinkFactory(ctx, cfg.Storage, logger, metrics)
	if err != nil {
		return err
	}
	addCleanup("storage", closeSinks)

	options, err := writerOptions(cfg.Splitter)
	if err != nil {
		return err
	}
	options = append(options,
		splitter.WithSinkFactory(sinks),
		splitter.WithLogger(logger),
		splitter.WithMetrics(metrics),
	)
	writer, err := splitter.New(splitterConfig(cfg.Splitter), options...)
	if err != nil {
		return fmt.Errorf("failed to create split writer: %w", err)
	}
	addCleanup("split-writer", writer.Close)

	kafkaConfig := consumerConfig(cfg.Kafka)
	source, err := kafka.NewSaramaConsumer(kafkaConfig, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	addCleanup("kafka-consumer", source.Close)

	// Without a DLQ failed bulks stay uncommitted and stop the pipeline.
	var dlq consumer.DLQPublisher
	if cfg.Kafka.DLQ.Enabled {
		publisher, err := kafka.NewDLQPublisher(cfg.Kafka.BootstrapServers, kafkaConfig, kafka.DLQConfig{
			Enabled:     true,
			TopicSuffix: cfg.Kafka.DLQ.TopicSuffix,
		}, logger, cfg.Application.InstanceID)
		if err != nil {
			return fmt.Errorf("failed to create DLQ publisher: %w", err)
		}
		addCleanup("dlq-publisher", publisher.Close)
		dlq = publisher
	}

	buffers := buffer.NewManager(int64(cfg.Processing.BulkMaxSizeMB)*1024*1024, cfg.Processing.BulkMaxRecords)
	pipeline, err := ingest.NewPipeline(ingestConfig(cfg), writer, buffers, dlq, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	checker := server.NewChecker()
	checker.Register("pipeline", func(context.Context) error {
		if !pipeline.Running() {
			return errors.New("not consuming")
		}
		return nil
	})

	httpServer, err := server.NewServer(server.Config{
		HealthPort:  cfg.Observability.Health.Port,
		MetricsPort: cfg.Observability.Metrics.Port,
	}, checker, registry, logger)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	addCleanup("http-server", func() error {
		grace := time.Duration(cfg.Shutdown.GracePeriodSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := source.Subscribe(ctx, cfg.Kafka.Consumer.Topics); err != nil {
		return fmt.Errorf("failed to subscribe to topics: %w", err)
	}

	messages, errs, err := source.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	logger.Info("application started successfully")

	if err := pipeline.Run(ctx, messages, errs); err != nil {
		checker.SetAlive(false)
		return fmt.Errorf("pipeline stopped: %w", err)
	}

	logger.Info("initiating graceful shutdown", "bulks_flushed", pipeline.BulksFlushed())
	return nil
}
