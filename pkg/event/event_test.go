package event

import (
	"errors"
	"testing"
)

func TestPartitionID_String(t *testing.T) {
	tests := []struct {
		name      string
		partition PartitionID
		want      string
	}{
		{
			name:      "basic partition",
			partition: PartitionID{Topic: "test-topic", Partition: 0},
			want:      "test-topic-0",
		},
		{
			name:      "partition 10",
			partition: PartitionID{Topic: "my-topic", Partition: 10},
			want:      "my-topic-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.partition.String(); got != tt.want {
				t.Errorf("PartitionID.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessage_PartitionID(t *testing.T) {
	msg := &Message{Topic: "orders", Partition: 7}
	want := PartitionID{Topic: "orders", Partition: 7}
	if got := msg.PartitionID(); got != want {
		t.Errorf("PartitionID() = %v, want %v", got, want)
	}
}

func TestMessage_Line(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
		want  string
	}{
		{name: "unterminated", value: []byte("abc"), want: "abc\n"},
		{name: "already terminated", value: []byte("abc\n"), want: "abc\n"},
		{name: "empty", value: nil, want: "\n"},
		{name: "embedded newline", value: []byte("a\nb"), want: "a\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{Value: tt.value}
			if got := string(msg.Line()); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage_LineDoesNotAliasValue(t *testing.T) {
	value := make([]byte, 3, 16)
	copy(value, "abc")
	msg := &Message{Value: value}

	line := msg.Line()
	line[0] = 'x'

	if string(msg.Value) != "abc" {
		t.Errorf("Value modified through Line(): %q", msg.Value)
	}
}

func TestMessage_Commit(t *testing.T) {
	t.Run("no commit func", func(t *testing.T) {
		msg := &Message{}
		if err := msg.Commit(); err != nil {
			t.Errorf("Commit() error = %v, want nil", err)
		}
	})

	t.Run("commit func called", func(t *testing.T) {
		called := 0
		msg := &Message{CommitFunc: func() error {
			called++
			return nil
		}}
		if err := msg.Commit(); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if called != 1 {
			t.Errorf("commit func called %d times, want 1", called)
		}
	})

	t.Run("commit error propagates", func(t *testing.T) {
		wantErr := errors.New("commit failed")
		msg := &Message{CommitFunc: func() error { return wantErr }}
		if err := msg.Commit(); !errors.Is(err, wantErr) {
			t.Errorf("Commit() error = %v, want %v", err, wantErr)
		}
	})
}
