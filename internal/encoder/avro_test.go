package encoder

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"
	"time"

	"github.com/linkedin/goavro/v2"

	"github.com/jittakal/splitstore/pkg/split"
)

func sampleRecords() []split.IndexRecord {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []split.IndexRecord{
		{FileID: 1, Path: "orders_eu_000001.csv", Labels: []string{"orders", "eu"}, CreatedAt: created},
		{FileID: 2, Path: "orders_us_000002.csv", Labels: []string{"orders", "us", "extra"}, CreatedAt: created.Add(time.Minute)},
		{FileID: 3, Path: "000003.csv", CreatedAt: created.Add(2 * time.Minute)},
	}
}

func readAvro(t *testing.T, r io.Reader) []map[string]interface{} {
	t.Helper()

	ocfr, err := goavro.NewOCFReader(r)
	if err != nil {
		t.Fatalf("NewOCFReader() error = %v", err)
	}

	var rows []map[string]interface{}
	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		rows = append(rows, datum.(map[string]interface{}))
	}
	if err := ocfr.Err(); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return rows
}

func TestNewAvroEncoder(t *testing.T) {
	tests := []struct {
		name        string
		compression string
	}{
		{"gzip compression", "gzip"},
		{"uncompressed", "uncompressed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewAvroEncoder(tt.compression)
			if err != nil {
				t.Fatalf("NewAvroEncoder() error = %v", err)
			}
			if enc.compression != tt.compression {
				t.Errorf("compression = %v, want %v", enc.compression, tt.compression)
			}
		})
	}
}

func TestAvroEncoder_FileExtension(t *testing.T) {
	tests := []struct {
		name        string
		compression string
		want        string
	}{
		{"no compression", "none", ".avro"},
		{"gzip compression", "gzip", ".avro.gz"},
		{"GZIP compression", "GZIP", ".avro.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewAvroEncoder(tt.compression)
			if err != nil {
				t.Fatalf("NewAvroEncoder() error = %v", err)
			}
			if got := enc.FileExtension(); got != tt.want {
				t.Errorf("FileExtension() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAvroEncoder_Encode(t *testing.T) {
	enc, err := NewAvroEncoder("uncompressed")
	if err != nil {
		t.Fatalf("NewAvroEncoder() error = %v", err)
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, sampleRecords(), 2); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	rows := readAvro(t, &buf)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	if rows[0]["file_id"].(int64) != 1 {
		t.Errorf("file_id = %v, want 1", rows[0]["file_id"])
	}
	if rows[1]["file_name"].(string) != "orders_us_000002.csv" {
		t.Errorf("file_name = %v", rows[1]["file_name"])
	}

	labels := rows[1]["labels"].([]interface{})
	if len(labels) != 2 {
		t.Errorf("labels = %v, want two labels after truncation", labels)
	}
	if len(rows[2]["labels"].([]interface{})) != 0 {
		t.Errorf("labels = %v, want none", rows[2]["labels"])
	}
	if rows[0]["created_at"].(string) != "2024-05-01T12:00:00Z" {
		t.Errorf("created_at = %v", rows[0]["created_at"])
	}
}

func TestAvroEncoder_EncodeGzip(t *testing.T) {
	enc, err := NewAvroEncoder("gzip")
	if err != nil {
		t.Fatalf("NewAvroEncoder() error = %v", err)
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, sampleRecords(), 10); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	gz, err := gzip.NewReader(&buf)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	defer gz.Close()

	rows := readAvro(t, gz)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if len(rows[1]["labels"].([]interface{})) != 3 {
		t.Errorf("labels = %v, want 3", rows[1]["labels"])
	}
}

func TestAvroEncoder_EncodeEmpty(t *testing.T) {
	enc, err := NewAvroEncoder("uncompressed")
	if err != nil {
		t.Fatalf("NewAvroEncoder() error = %v", err)
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, nil, 10); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if rows := readAvro(t, &buf); len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}

func TestBoundLabels(t *testing.T) {
	tests := []struct {
		name      string
		labels    []string
		maxLabels int
		want      int
	}{
		{"under limit", []string{"a"}, 3, 1},
		{"over limit", []string{"a", "b", "c"}, 2, 2},
		{"zero limit", []string{"a"}, 0, 0},
		{"nil", nil, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := boundLabels(tt.labels, tt.maxLabels); len(got) != tt.want {
				t.Errorf("boundLabels() = %v, want %d labels", got, tt.want)
			}
		})
	}
}
