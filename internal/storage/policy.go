package storage

import (
	"github.com/jittakal/splitstore/pkg/split"
)

// Unlimited disables a rotation threshold.
const Unlimited = -1

// ThresholdPolicy rotates on line count or bulk count. A negative
// threshold is disabled; zero is a legal threshold that always rotates.
type ThresholdPolicy struct {
	MaxLines int
	MaxBulks int
}

// NewThresholdPolicy creates a policy from per-file thresholds.
func NewThresholdPolicy(maxLines, maxBulks int) *ThresholdPolicy {
	return &ThresholdPolicy{
		MaxLines: maxLines,
		MaxBulks: maxBulks,
	}
}

// ShouldRotate returns true if either counter reached its threshold.
func (p *ThresholdPolicy) ShouldRotate(stats split.FileStats) bool {
	if p.MaxBulks >= 0 && stats.BulkCount >= p.MaxBulks {
		return true
	}
	if p.MaxLines >= 0 && stats.LineCount >= p.MaxLines {
		return true
	}
	return false
}

// Reason names the threshold that fired, for logs and metrics.
func (p *ThresholdPolicy) Reason(stats split.FileStats) string {
	switch {
	case p.MaxBulks >= 0 && stats.BulkCount >= p.MaxBulks:
		return "bulks"
	case p.MaxLines >= 0 && stats.LineCount >= p.MaxLines:
		return "lines"
	default:
		return ""
	}
}
