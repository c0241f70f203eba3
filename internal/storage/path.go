// Package storage implements path building, rotation policies and sink
// factories for split files.
package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/jittakal/splitstore/pkg/split"
)

// Ensure implementations satisfy interfaces.
var (
	_ split.PathBuilder    = FillerBuilder{}
	_ split.PathBuilder    = HiveBuilder{}
	_ split.RotationPolicy = (*ThresholdPolicy)(nil)
)

// Path layouts accepted by NewPathBuilder.
const (
	LayoutFillers = "fillers"
	LayoutHive    = "hive"
)

// FillerBuilder joins labels and the zero-padded sequence number with
// underscores: labels [orders, eu] and seq 7 give "orders_eu_000007.csv".
// Empty labels are skipped.
type FillerBuilder struct{}

// Build returns the split file name for labels and seq.
func (FillerBuilder) Build(baseDir, suffix string, labels []string, seq int64) string {
	fillers := make([]string, 0, len(labels)+1)
	for _, label := range labels {
		if label != "" {
			fillers = append(fillers, label)
		}
	}
	fillers = append(fillers, split.FormatFileID(seq))
	return strings.Join(fillers, "_") + suffix
}

// BuildNamed returns name followed by suffix.
func (FillerBuilder) BuildNamed(baseDir, suffix, name string) string {
	return name + suffix
}

// HiveBuilder lays labels out as nested directories. When a key is
// configured for a label position the directory is rendered as key=value.
// Format: [key=]label1/[key=]label2/part-NNNNNN.suffix
type HiveBuilder struct {
	Keys []string
}

// Build returns the split file path for labels and seq.
func (b HiveBuilder) Build(baseDir, suffix string, labels []string, seq int64) string {
	segments := make([]string, 0, len(labels)+1)
	for i, label := range labels {
		if label == "" {
			continue
		}
		if i < len(b.Keys) && b.Keys[i] != "" {
			label = b.Keys[i] + "=" + label
		}
		segments = append(segments, label)
	}
	segments = append(segments, fmt.Sprintf("part-%s%s", split.FormatFileID(seq), suffix))
	return path.Join(segments...)
}

// BuildNamed returns name followed by suffix at the top of the layout.
func (b HiveBuilder) BuildNamed(baseDir, suffix, name string) string {
	return name + suffix
}

// NewPathBuilder returns the builder for a layout name.
func NewPathBuilder(layout string, keys []string) (split.PathBuilder, error) {
	switch strings.ToLower(layout) {
	case "", LayoutFillers:
		return FillerBuilder{}, nil
	case LayoutHive:
		return HiveBuilder{Keys: keys}, nil
	default:
		return nil, fmt.Errorf("unsupported path layout: %s (supported: fillers, hive)", layout)
	}
}
