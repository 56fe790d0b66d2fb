package flushz

import (
	"errors"
	"testing"
	"time"
)

func TestNewStreamError(t *testing.T) {
	item := "test-item"
	err := errors.New("test error")
	processorName := "test-processor"

	before := time.Now()
	streamErr := NewStreamError(item, err, processorName)
	after := time.Now()

	if streamErr.Item != item {
		t.Errorf("Expected Item to be %q, got %q", item, streamErr.Item)
	}
	if !errors.Is(streamErr.Err, err) {
		t.Errorf("Expected Err to be %v, got %v", err, streamErr.Err)
	}
	if streamErr.ProcessorName != processorName {
		t.Errorf("Expected ProcessorName to be %q, got %q", processorName, streamErr.ProcessorName)
	}
	if streamErr.Timestamp.Before(before) || streamErr.Timestamp.After(after) {
		t.Errorf("Expected Timestamp to be between %v and %v, got %v", before, after, streamErr.Timestamp)
	}
}

func TestStreamError_Error(t *testing.T) {
	streamErr := &StreamError[int]{
		Item:          42,
		Err:           errors.New("division by zero"),
		ProcessorName: "divider",
		Timestamp:     time.Date(2023, 12, 25, 10, 30, 0, 0, time.UTC),
	}

	expected := "StreamError[divider]: division by zero (item: 42, time: 2023-12-25T10:30:00Z)"
	if got := streamErr.Error(); got != expected {
		t.Errorf("Expected Error() to return %q, got %q", expected, got)
	}
	if got := streamErr.String(); got != expected {
		t.Errorf("Expected String() to return %q, got %q", expected, got)
	}
}

func TestStreamError_BatchItem(t *testing.T) {
	ts := time.Date(2023, 12, 25, 10, 30, 0, 0, time.UTC)
	streamErr := newStreamErrorAt([]string{"line"}, errors.New("read failed"), "stdin", ts)

	expected := "StreamError[stdin]: read failed (item: [line], time: 2023-12-25T10:30:00Z)"
	if got := streamErr.Error(); got != expected {
		t.Errorf("Expected Error() to return %q, got %q", expected, got)
	}
}

func TestStreamError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	streamErr := NewStreamError("test", originalErr, "test-processor")

	if !errors.Is(streamErr, originalErr) {
		t.Errorf("Expected errors.Is to find %v", originalErr)
	}

	var target *StreamError[string]
	var err error = streamErr
	if !errors.As(err, &target) || target != streamErr {
		t.Error("Expected errors.As to recover the StreamError")
	}
}

func TestStreamError_UnwrapWithNilError(t *testing.T) {
	streamErr := &StreamError[string]{
		Item:          "test",
		ProcessorName: "test-processor",
		Timestamp:     time.Now(),
	}

	if unwrapped := streamErr.Unwrap(); unwrapped != nil {
		t.Errorf("Expected Unwrap() to return nil, got %v", unwrapped)
	}
}
