package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jittakal/splitstore/pkg/event"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrMissingBasePath", ErrMissingBasePath},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrWriterClosed", ErrWriterClosed},
		{"ErrInvalidLabel", ErrInvalidLabel},
		{"ErrBufferFull", ErrBufferFull},
		{"ErrConsumerClosed", ErrConsumerClosed},
		{"ErrInvalidMessage", ErrInvalidMessage},
		{"ErrConnectionLost", ErrConnectionLost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("%s should not be nil", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s should have an error message", tt.name)
			}
		})
	}
}

func TestProcessingError(t *testing.T) {
	baseErr := errors.New("base error")
	procErr := &ProcessingError{
		PartitionID: event.PartitionID{Topic: "test", Partition: 0},
		Offset:      100,
		Err:         baseErr,
	}

	if !strings.Contains(procErr.Error(), "partition=test-0") {
		t.Errorf("unexpected message: %s", procErr.Error())
	}

	if !errors.Is(procErr, baseErr) {
		t.Error("ProcessingError should wrap base error")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:  "labels[1]",
		Value:  "a/b",
		Reason: "must not contain a path separator",
		Err:    ErrInvalidLabel,
	}

	msg := err.Error()
	if !strings.Contains(msg, "labels[1]") || !strings.Contains(msg, `"a/b"`) {
		t.Errorf("unexpected message: %s", msg)
	}
	if !errors.Is(err, ErrInvalidLabel) {
		t.Error("ValidationError should wrap ErrInvalidLabel")
	}
	if errors.Is(err, ErrInvalidMessage) {
		t.Error("label error matched ErrInvalidMessage")
	}
}

func TestPartialWriteError(t *testing.T) {
	storageErr := &StorageError{Operation: "write", Path: "/data/000002.csv", Err: errors.New("disk full")}
	err := fmt.Errorf("flush: %w", &PartialWriteError{Written: 2, Total: 5, Err: storageErr})

	var partial *PartialWriteError
	if !errors.As(err, &partial) || partial.Written != 2 {
		t.Fatalf("errors.As() = %v, want Written 2", partial)
	}
	if !strings.Contains(err.Error(), "2 of 5 lines") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	var target *StorageError
	if !errors.As(err, &target) {
		t.Error("PartialWriteError should wrap StorageError")
	}
	if !IsRetryable(err) {
		t.Error("partial write of a retryable storage error should be retryable")
	}
}

func TestStorageError(t *testing.T) {
	baseErr := errors.New("disk full")
	storageErr := &StorageError{
		Operation: "write",
		Path:      "/data/000001.csv",
		Err:       baseErr,
	}

	if !strings.Contains(storageErr.Error(), "/data/000001.csv") {
		t.Errorf("unexpected message: %s", storageErr.Error())
	}

	if !errors.Is(storageErr, baseErr) {
		t.Error("StorageError should wrap base error")
	}
}

func TestCommitError(t *testing.T) {
	baseErr := errors.New("coordinator unavailable")
	commitErr := &CommitError{
		PartitionID: event.PartitionID{Topic: "orders", Partition: 2},
		Offset:      55,
		Err:         baseErr,
	}

	if !errors.Is(commitErr, baseErr) {
		t.Error("CommitError should wrap base error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"connection lost", ErrConnectionLost, true},
		{"wrapped connection lost", fmt.Errorf("send: %w", ErrConnectionLost), true},
		{"storage write", &StorageError{Operation: "write"}, true},
		{"storage open", &StorageError{Operation: "open"}, true},
		{"storage upload", &StorageError{Operation: "upload"}, true},
		{"storage close", &StorageError{Operation: "close"}, false},
		{"wrapped storage write", fmt.Errorf("rotate: %w", &StorageError{Operation: "write"}), true},
		{
			"processing wrapping retryable",
			&ProcessingError{Err: &StorageError{Operation: "upload"}},
			true,
		},
		{
			"processing wrapping non-retryable",
			&ProcessingError{Err: ErrWriterClosed},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
