// Package validator checks labels and messages at the ingestion boundary.
package validator

import (
	"fmt"
	"strings"

	"github.com/jittakal/splitstore/internal/errors"
	"github.com/jittakal/splitstore/pkg/event"
)

// forbidden lists substrings that would corrupt split paths or index rows.
var forbidden = []struct {
	token  string
	reason string
}{
	{"/", "contains a path separator"},
	{"\\", "contains a path separator"},
	{",", "contains the index column separator"},
	{"\n", "contains a newline"},
	{"\r", "contains a newline"},
	{"..", "contains a parent directory reference"},
}

// ValidateLabels rejects labels that cannot be used in file names or
// index rows. Empty labels are allowed.
func ValidateLabels(labels []string) error {
	for i, label := range labels {
		for _, f := range forbidden {
			if strings.Contains(label, f.token) {
				return &errors.ValidationError{
					Field:  fmt.Sprintf("labels[%d]", i),
					Value:  label,
					Reason: f.reason,
					Err:    errors.ErrInvalidLabel,
				}
			}
		}
	}
	return nil
}

// MessageValidator validates messages before they are buffered.
type MessageValidator struct{}

// NewMessageValidator creates a new message validator.
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// Validate validates a consumed message.
func (v *MessageValidator) Validate(msg *event.Message) error {
	if msg == nil {
		return &errors.ValidationError{
			Field:  "message",
			Reason: "required field is missing",
			Err:    errors.ErrInvalidMessage,
		}
	}

	if msg.Topic == "" {
		return &errors.ValidationError{
			Field:  "topic",
			Reason: "required field is missing",
			Err:    errors.ErrInvalidMessage,
		}
	}

	if msg.Partition < 0 {
		return &errors.ValidationError{
			Field:  "partition",
			Value:  fmt.Sprint(msg.Partition),
			Reason: "must not be negative",
			Err:    errors.ErrInvalidMessage,
		}
	}

	return nil
}
