// Package dto holds the configuration structures decoded by the loader.
package dto

import (
	"fmt"
	"slices"
	"strings"
)

// Supported values.
var (
	StorageBackends = []string{"file", "s3", "gcs", "azure"}
	PathLayouts     = []string{"fillers", "hive"}
	OpenModes       = []string{"append", "truncate"}
)

// ApplicationConfig is the root configuration structure
type ApplicationConfig struct {
	Application   ApplicationInfo     `mapstructure:"application"`
	Splitter      SplitterConfig      `mapstructure:"splitter"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Processing    ProcessingConfig    `mapstructure:"processing"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Shutdown      ShutdownConfig      `mapstructure:"shutdown"`
}

// ApplicationInfo contains application metadata
type ApplicationInfo struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// InstanceID identifies this process in DLQ envelopes. Generated when empty.
	InstanceID string `mapstructure:"instance_id"`
}

// SplitterConfig contains split writer settings
type SplitterConfig struct {
	BasePath         string   `mapstructure:"base_path"`
	Suffix           string   `mapstructure:"suffix"`
	MaxLabels        int      `mapstructure:"max_labels"`
	LastGroupID      float64  `mapstructure:"last_group_id"`
	BulksPerFile     int      `mapstructure:"bulks_per_file"`
	LinesPerFile     int      `mapstructure:"lines_per_file"`
	OpenMode         string   `mapstructure:"open_mode"`
	Labels           []string `mapstructure:"labels"`
	PathLayout       string   `mapstructure:"path_layout"`
	LabelKeys        []string `mapstructure:"label_keys"`
	IndexFormats     []string `mapstructure:"index_formats"`
	IndexCompression string   `mapstructure:"index_compression"`
}

// StorageConfig contains storage backend configuration
type StorageConfig struct {
	Backend  string      `mapstructure:"backend"`
	SpoolDir string      `mapstructure:"spool_dir"`
	S3       S3Config    `mapstructure:"s3"`
	Azure    AzureConfig `mapstructure:"azure"`
	GCS      GCSConfig   `mapstructure:"gcs"`
}

// S3Config contains AWS S3 configuration
type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	SSEEnabled   bool   `mapstructure:"sse_enabled"`
	SSEKMSKeyID  string `mapstructure:"sse_kms_key_id"`
}

// AzureConfig contains Azure Blob Storage configuration
type AzureConfig struct {
	AccountName string `mapstructure:"account_name"`
	AccountKey  string `mapstructure:"account_key"`
	Container   string `mapstructure:"container"`
	Endpoint    string `mapstructure:"endpoint"`
}

// GCSConfig contains Google Cloud Storage configuration
type GCSConfig struct {
	Bucket               string `mapstructure:"bucket"`
	ProjectID            string `mapstructure:"project_id"`
	CredentialsFile      string `mapstructure:"credentials_file"`
	CredentialsJSON      string `mapstructure:"credentials_json"`
	Endpoint             string `mapstructure:"endpoint"`
	UseDefaultCredential bool   `mapstructure:"use_default_credential"`
}

// KafkaConfig contains Kafka-related configuration
type KafkaConfig struct {
	BootstrapServers      []string       `mapstructure:"bootstrap_servers"`
	SecurityProtocol      string         `mapstructure:"security_protocol"`
	SASLMechanism         string         `mapstructure:"sasl_mechanism"`
	SASLUsername          string         `mapstructure:"sasl_username"`
	SASLPassword          string         `mapstructure:"sasl_password"`
	AWSRegion             string         `mapstructure:"aws_region"`
	TLSInsecureSkipVerify bool           `mapstructure:"tls_insecure_skip_verify"`
	Consumer              ConsumerConfig `mapstructure:"consumer"`
	DLQ                   DLQConfig      `mapstructure:"dlq"`
}

// ConsumerConfig contains Kafka consumer configuration
type ConsumerConfig struct {
	GroupID             string   `mapstructure:"group_id"`
	Topics              []string `mapstructure:"topics"`
	AutoOffsetReset     string   `mapstructure:"auto_offset_reset"`
	MaxPollIntervalMS   int      `mapstructure:"max_poll_interval_ms"`
	SessionTimeoutMS    int      `mapstructure:"session_timeout_ms"`
	HeartbeatIntervalMS int      `mapstructure:"heartbeat_interval_ms"`
}

// DLQConfig contains dead letter queue configuration
type DLQConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	TopicSuffix string `mapstructure:"topic_suffix"`
}

// ProcessingConfig contains bulk buffering settings
type ProcessingConfig struct {
	BulkMaxRecords       int  `mapstructure:"bulk_max_records"`
	BulkMaxSizeMB        int  `mapstructure:"bulk_max_size_mb"`
	FlushIntervalSeconds int  `mapstructure:"flush_interval_seconds"`
	PartitionLabels      bool `mapstructure:"partition_labels"`
}

// ObservabilityConfig contains observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig contains metrics settings
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check settings
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// ShutdownConfig contains shutdown settings
type ShutdownConfig struct {
	GracePeriodSeconds int `mapstructure:"grace_period_seconds"`
}

// Validate validates the settings shared by every command.
func (c *ApplicationConfig) Validate() error {
	if c.Application.Name == "" {
		return fmt.Errorf("application name is required")
	}
	if err := c.Splitter.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Processing.Validate(); err != nil {
		return err
	}
	return c.Observability.Validate()
}

// Validate validates the split writer settings.
func (c *SplitterConfig) Validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("splitter base path is required")
	}
	if c.MaxLabels < 0 {
		return fmt.Errorf("splitter max labels must not be negative, got %d", c.MaxLabels)
	}
	if c.BulksPerFile < -1 {
		return fmt.Errorf("splitter bulks per file must be -1 (unlimited) or >= 0, got %d", c.BulksPerFile)
	}
	if c.LinesPerFile < -1 {
		return fmt.Errorf("splitter lines per file must be -1 (unlimited) or >= 0, got %d", c.LinesPerFile)
	}
	if c.OpenMode != "" && !slices.Contains(OpenModes, strings.ToLower(c.OpenMode)) {
		return fmt.Errorf("unsupported open mode: %s", c.OpenMode)
	}
	if c.PathLayout != "" && !slices.Contains(PathLayouts, strings.ToLower(c.PathLayout)) {
		return fmt.Errorf("unsupported path layout: %s", c.PathLayout)
	}
	return nil
}

// Validate validates the storage backend settings.
func (c *StorageConfig) Validate() error {
	switch strings.ToLower(c.Backend) {
	case "file":
		return nil
	case "s3":
		return c.S3.Validate()
	case "azure":
		return c.Azure.Validate()
	case "gcs":
		return c.GCS.Validate()
	case "":
		return fmt.Errorf("storage backend is required")
	default:
		return fmt.Errorf("unsupported storage backend: %s (supported: %s)", c.Backend, strings.Join(StorageBackends, ", "))
	}
}

// Validate validates S3 configuration.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}
	if c.Region == "" {
		return fmt.Errorf("s3 region is required")
	}
	return nil
}

// Validate validates Azure configuration.
func (c *AzureConfig) Validate() error {
	if c.AccountName == "" {
		return fmt.Errorf("azure account name is required")
	}
	if c.Container == "" {
		return fmt.Errorf("azure container is required")
	}
	return nil
}

// Validate validates GCS configuration.
func (c *GCSConfig) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("gcs bucket is required")
	}
	return nil
}

// Validate validates the Kafka settings needed to consume.
func (c *KafkaConfig) Validate() error {
	if len(c.BootstrapServers) == 0 {
		return fmt.Errorf("kafka bootstrap servers are required")
	}
	if c.Consumer.GroupID == "" {
		return fmt.Errorf("kafka consumer group ID is required")
	}
	if len(c.Consumer.Topics) == 0 {
		return fmt.Errorf("kafka consumer topics are required")
	}
	if c.DLQ.Enabled && c.DLQ.TopicSuffix == "" {
		return fmt.Errorf("kafka dlq topic suffix is required when the DLQ is enabled")
	}
	return nil
}

// Validate validates bulk buffering settings.
func (c *ProcessingConfig) Validate() error {
	if c.BulkMaxRecords < 1 {
		return fmt.Errorf("processing bulk max records must be positive, got %d", c.BulkMaxRecords)
	}
	if c.BulkMaxSizeMB < 0 {
		return fmt.Errorf("processing bulk max size must not be negative, got %d", c.BulkMaxSizeMB)
	}
	if c.FlushIntervalSeconds < 0 {
		return fmt.Errorf("processing flush interval must not be negative, got %d", c.FlushIntervalSeconds)
	}
	return nil
}

// Validate validates ports.
func (c *ObservabilityConfig) Validate() error {
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}
	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("invalid health port: %d", c.Health.Port)
	}
	if c.Metrics.Port == c.Health.Port {
		return fmt.Errorf("metrics and health ports must differ, both are %d", c.Metrics.Port)
	}
	return nil
}
