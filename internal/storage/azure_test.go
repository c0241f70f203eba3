package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/jittakal/splitstore/pkg/split"
)

type fakeAzureUploader struct {
	container   string
	blob        string
	body        string
	contentType string
	failErr     error
}

func (f *fakeAzureUploader) UploadFile(ctx context.Context, containerName string, blobName string, file *os.File, o *azblob.UploadFileOptions) (azblob.UploadFileResponse, error) {
	if err := ctx.Err(); err != nil {
		return azblob.UploadFileResponse{}, err
	}
	if f.failErr != nil {
		return azblob.UploadFileResponse{}, f.failErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return azblob.UploadFileResponse{}, err
	}
	f.container = containerName
	f.blob = blobName
	f.body = string(data)
	if o != nil && o.HTTPHeaders != nil && o.HTTPHeaders.BlobContentType != nil {
		f.contentType = *o.HTTPHeaders.BlobContentType
	}
	return azblob.UploadFileResponse{}, nil
}

func TestValidateAzureConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  AzureConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  AzureConfig{AccountName: "acct", AccountKey: "key", ContainerName: "splits"},
			wantErr: false,
		},
		{
			name:    "missing account",
			config:  AzureConfig{ContainerName: "splits"},
			wantErr: true,
		},
		{
			name:    "missing container",
			config:  AzureConfig{AccountName: "acct"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAzureConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAzureConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAzureConnectionString(t *testing.T) {
	cfg := AzureConfig{AccountName: "acct", AccountKey: "key"}
	got := azureConnectionString(cfg)
	if !strings.Contains(got, "EndpointSuffix=core.windows.net") {
		t.Errorf("connection string = %q, want default endpoint suffix", got)
	}

	cfg.Endpoint = "http://127.0.0.1:10000/acct"
	got = azureConnectionString(cfg)
	if !strings.Contains(got, "BlobEndpoint=http://127.0.0.1:10000/acct") {
		t.Errorf("connection string = %q, want custom blob endpoint", got)
	}
}

func TestAzureSinkFactory_UploadOnClose(t *testing.T) {
	client := &fakeAzureUploader{}
	metrics := newMockMetricsCollector()
	factory := newAzureSinkFactory(context.Background(), client,
		AzureConfig{AccountName: "acct", ContainerName: "splits", SpoolDir: t.TempDir()},
		testLogger(), metrics)

	sink, err := factory.Open("out/000001.csv", split.AppendBinary)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if sink.Name() != "wasbs://splits/out/000001.csv" {
		t.Errorf("Name() = %q", sink.Name())
	}
	if _, err := sink.Write([]byte("line\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if client.container != "splits" || client.blob != "out/000001.csv" {
		t.Errorf("uploaded to %s/%s", client.container, client.blob)
	}
	if client.body != "line\n" {
		t.Errorf("body = %q", client.body)
	}
	if client.contentType != "text/csv" {
		t.Errorf("content type = %q", client.contentType)
	}
	if metrics.sinksOpened[BackendAzure] != 1 {
		t.Errorf("sinksOpened = %d, want 1", metrics.sinksOpened[BackendAzure])
	}
}

func TestAzureSinkFactory_UploadAfterCancel(t *testing.T) {
	client := &fakeAzureUploader{}
	ctx, cancel := context.WithCancel(context.Background())
	factory := newAzureSinkFactory(ctx, client,
		AzureConfig{AccountName: "acct", ContainerName: "splits", SpoolDir: t.TempDir()},
		testLogger(), nil)

	sink, err := factory.Open("out/orders_000003.csv", split.AppendBinary)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := sink.Write([]byte("last\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	cancel()
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() after cancel error = %v", err)
	}
	if client.blob != "out/orders_000003.csv" || client.body != "last\n" {
		t.Errorf("uploaded %s = %q", client.blob, client.body)
	}
}

func TestAzureSinkFactory_UploadError(t *testing.T) {
	client := &fakeAzureUploader{failErr: errors.New("forbidden")}
	metrics := newMockMetricsCollector()
	factory := newAzureSinkFactory(context.Background(), client,
		AzureConfig{AccountName: "acct", ContainerName: "splits", SpoolDir: t.TempDir()},
		testLogger(), metrics)

	sink, err := factory.Open("000001.csv", split.AppendBinary)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := sink.Close(); err == nil {
		t.Fatal("Close() expected error")
	}
	if metrics.lastErrorBackend != BackendAzure {
		t.Errorf("error backend = %q, want %q", metrics.lastErrorBackend, BackendAzure)
	}
}
