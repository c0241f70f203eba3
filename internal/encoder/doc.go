// Package encoder renders the split index as Avro or Parquet manifests.
//
// The CSV index written by the split writer stays the source of truth.
// Manifests are optional exports written next to it at close time so the
// file list can be queried from Athena, Spark or any Avro reader.
//
// # Encoder Factory
//
//	enc, err := encoder.NewFactory(encoder.FormatParquet, "snappy").CreateEncoder()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// NewEncoders builds one encoder per configured format name.
//
// # Compression Options
//
//	Parquet: "snappy", "gzip", "lz4", "zstd", "uncompressed"
//	Avro:    "gzip", "uncompressed"
//
// Gzipped Avro manifests use the ".avro.gz" extension.
//
// # Schema
//
// Both formats carry file_id, file_name, labels (a string list bounded by
// the writer's max labels) and created_at.
package encoder
