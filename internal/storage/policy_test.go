package storage

import (
	"testing"

	"github.com/jittakal/splitstore/pkg/split"
)

func TestNewThresholdPolicy(t *testing.T) {
	policy := NewThresholdPolicy(100, 5)

	if policy.MaxLines != 100 {
		t.Errorf("MaxLines = %v, want 100", policy.MaxLines)
	}
	if policy.MaxBulks != 5 {
		t.Errorf("MaxBulks = %v, want 5", policy.MaxBulks)
	}
}

func TestThresholdPolicy_ShouldRotate(t *testing.T) {
	tests := []struct {
		name       string
		maxLines   int
		maxBulks   int
		stats      split.FileStats
		want       bool
		wantReason string
	}{
		{
			name:     "unlimited never rotates",
			maxLines: Unlimited,
			maxBulks: Unlimited,
			stats:    split.FileStats{LineCount: 1 << 30, BulkCount: 1 << 20},
			want:     false,
		},
		{
			name:     "under line limit",
			maxLines: 10,
			maxBulks: Unlimited,
			stats:    split.FileStats{LineCount: 9},
			want:     false,
		},
		{
			name:       "at line limit",
			maxLines:   10,
			maxBulks:   Unlimited,
			stats:      split.FileStats{LineCount: 10},
			want:       true,
			wantReason: "lines",
		},
		{
			name:       "over line limit",
			maxLines:   10,
			maxBulks:   Unlimited,
			stats:      split.FileStats{LineCount: 12},
			want:       true,
			wantReason: "lines",
		},
		{
			name:       "at bulk limit",
			maxLines:   Unlimited,
			maxBulks:   2,
			stats:      split.FileStats{LineCount: 1, BulkCount: 2},
			want:       true,
			wantReason: "bulks",
		},
		{
			name:       "zero line threshold always rotates",
			maxLines:   0,
			maxBulks:   Unlimited,
			stats:      split.FileStats{},
			want:       true,
			wantReason: "lines",
		},
		{
			name:       "zero bulk threshold always rotates",
			maxLines:   Unlimited,
			maxBulks:   0,
			stats:      split.FileStats{},
			want:       true,
			wantReason: "bulks",
		},
		{
			name:       "both thresholds reached reports bulks",
			maxLines:   3,
			maxBulks:   1,
			stats:      split.FileStats{LineCount: 3, BulkCount: 1},
			want:       true,
			wantReason: "bulks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewThresholdPolicy(tt.maxLines, tt.maxBulks)
			if got := policy.ShouldRotate(tt.stats); got != tt.want {
				t.Errorf("ShouldRotate() = %v, want %v", got, tt.want)
			}
			if got := policy.Reason(tt.stats); got != tt.wantReason {
				t.Errorf("Reason() = %q, want %q", got, tt.wantReason)
			}
		})
	}
}
