package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/jittakal/splitstore/pkg/split"
)

// Ensure implementation satisfies interface at compile time.
var _ split.SinkFactory = (*AzureSinkFactory)(nil)

// AzureConfig contains Azure Blob Storage configuration.
type AzureConfig struct {
	AccountName   string
	AccountKey    string
	ContainerName string
	Endpoint      string
	SpoolDir      string
}

// azureUploader is the subset of azblob.Client used by the sinks.
type azureUploader interface {
	UploadFile(ctx context.Context, containerName string, blobName string, file *os.File, o *azblob.UploadFileOptions) (azblob.UploadFileResponse, error)
}

// AzureSinkFactory opens split files as block blobs. Each sink spools to
// a temp file and is uploaded when closed.
type AzureSinkFactory struct {
	ctx           context.Context
	client        azureUploader
	containerName string
	spoolDir      string
	logger        *slog.Logger
	metrics       MetricsCollector
}

// NewAzureSinkFactory creates a new Azure Blob sink factory. As with S3,
// cancelling ctx does not abort uploads of sinks closed afterwards.
func NewAzureSinkFactory(
	ctx context.Context,
	cfg AzureConfig,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*AzureSinkFactory, error) {
	if err := validateAzureConfig(cfg); err != nil {
		return nil, err
	}

	client, err := azblob.NewClientFromConnectionString(azureConnectionString(cfg), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	logger.Info("Azure sink factory created",
		"container", cfg.ContainerName,
		"account", cfg.AccountName,
	)

	return newAzureSinkFactory(ctx, client, cfg, logger, metrics), nil
}

func newAzureSinkFactory(
	ctx context.Context,
	client azureUploader,
	cfg AzureConfig,
	logger *slog.Logger,
	metrics MetricsCollector,
) *AzureSinkFactory {
	return &AzureSinkFactory{
		ctx:           context.WithoutCancel(ctx),
		client:        client,
		containerName: cfg.ContainerName,
		spoolDir:      cfg.SpoolDir,
		logger:        logger,
		metrics:       metrics,
	}
}

// Open returns a sink that uploads to the blob derived from path.
// The mode is ignored: blobs are always replaced.
func (f *AzureSinkFactory) Open(path string, mode split.OpenMode) (split.Sink, error) {
	blobPath := objectKey(path)
	name := fmt.Sprintf("wasbs://%s/%s", f.containerName, blobPath)

	sink, err := newSpoolSink(name, BackendAzure, f.spoolDir, f.metrics, func(file *os.File) error {
		return f.upload(blobPath, file)
	})
	if err != nil {
		return nil, err
	}

	if f.metrics != nil {
		f.metrics.IncSinksOpened(BackendAzure)
	}
	f.logger.Debug("opened Azure sink", "blob", name, "append_requested", mode.Append())
	return sink, nil
}

func (f *AzureSinkFactory) upload(blobPath string, file *os.File) error {
	ct := contentType(blobPath)
	_, err := f.client.UploadFile(f.ctx, f.containerName, blobPath, file, &azblob.UploadFileOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to Azure Blob: %w", err)
	}

	f.logger.Info("uploaded split file to Azure Blob",
		"container", f.containerName,
		"blob", blobPath,
	)
	return nil
}

func azureConnectionString(cfg AzureConfig) string {
	if cfg.Endpoint != "" {
		return fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;BlobEndpoint=%s",
			cfg.AccountName, cfg.AccountKey, cfg.Endpoint)
	}
	return fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
		cfg.AccountName, cfg.AccountKey)
}

func validateAzureConfig(cfg AzureConfig) error {
	if cfg.AccountName == "" {
		return fmt.Errorf("azure account name is required")
	}
	if cfg.ContainerName == "" {
		return fmt.Errorf("azure container is required")
	}
	return nil
}
