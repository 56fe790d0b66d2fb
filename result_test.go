package flushz

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewSuccess(t *testing.T) {
	result := NewSuccess([]int{1, 2, 3})

	if !result.IsSuccess() || result.IsError() {
		t.Fatal("expected success result")
	}
	if len(result.Value()) != 3 {
		t.Errorf("expected 3 items, got %v", result.Value())
	}
	if result.Error() != nil {
		t.Errorf("expected nil error, got %v", result.Error())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("test error")
	result := NewError("item", err, "source")

	if !result.IsError() || result.IsSuccess() {
		t.Fatal("expected error result")
	}
	if result.Error().Item != "item" {
		t.Errorf("expected item 'item', got %q", result.Error().Item)
	}
	if !errors.Is(result.Error(), err) {
		t.Errorf("expected error to wrap %v", err)
	}
	if result.ValueOr("fallback") != "fallback" {
		t.Errorf("expected fallback, got %q", result.ValueOr("fallback"))
	}
}

func TestResult_ValuePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected Value() to panic on error result")
		}
	}()

	result := NewError(0, errors.New("boom"), "source")
	_ = result.Value()
}

func TestWithMetadata(t *testing.T) {
	original := NewSuccess(42)
	annotated := original.WithMetadata(MetadataProcessor, "batcher")

	if original.HasMetadata() {
		t.Error("WithMetadata must not modify the original result")
	}
	if !annotated.HasMetadata() {
		t.Fatal("expected metadata on annotated result")
	}
	if annotated.Value() != 42 {
		t.Errorf("expected value preserved, got %d", annotated.Value())
	}

	same := annotated.WithMetadata("", "ignored")
	if len(same.MetadataKeys()) != 1 {
		t.Errorf("expected empty key to be ignored, got keys %v", same.MetadataKeys())
	}
}

func TestWithMetadata_PreservesError(t *testing.T) {
	result := NewError(0, errors.New("boom"), "source").WithMetadata(MetadataProcessor, "batcher")

	if !result.IsError() {
		t.Fatal("expected error preserved through WithMetadata")
	}
	if name, found, _ := result.GetStringMetadata(MetadataProcessor); !found || name != "batcher" {
		t.Errorf("expected processor metadata, got %q (found=%v)", name, found)
	}
}

func TestTypedAccessors(t *testing.T) {
	now := time.Now()
	result := NewSuccess("x").
		WithMetadata("s", "value").
		WithMetadata("t", now).
		WithMetadata("i", 7)

	if s, found, err := result.GetStringMetadata("s"); err != nil || !found || s != "value" {
		t.Errorf("unexpected string metadata: %q %v %v", s, found, err)
	}
	if ts, found, err := result.GetTimeMetadata("t"); err != nil || !found || !ts.Equal(now) {
		t.Errorf("unexpected time metadata: %v %v %v", ts, found, err)
	}
	if i, found, err := result.GetIntMetadata("i"); err != nil || !found || i != 7 {
		t.Errorf("unexpected int metadata: %d %v %v", i, found, err)
	}

	if _, found, err := result.GetStringMetadata("missing"); found || err != nil {
		t.Errorf("expected missing key to be not found without error, got %v %v", found, err)
	}
	if _, found, err := result.GetIntMetadata("s"); found || err == nil {
		t.Error("expected type mismatch error for int accessor on string value")
	}
	if _, found, err := result.GetTimeMetadata("i"); found || err == nil {
		t.Error("expected type mismatch error for time accessor on int value")
	}
}

func TestGetBatchInfo(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	flushed := start.Add(150 * time.Millisecond)

	result := NewSuccess([]int{1, 2}).
		WithMetadata(MetadataFlushTrigger, string(TriggerSilence)).
		WithMetadata(MetadataBatchStart, start).
		WithMetadata(MetadataTimestamp, flushed).
		WithMetadata(MetadataBatchSize, 2).
		WithMetadata(MetadataProcessor, "events")

	info, err := GetBatchInfo(result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := BatchInfo{
		Start:     start,
		FlushedAt: flushed,
		Trigger:   TriggerSilence,
		Processor: "events",
		Size:      2,
	}
	if info != want {
		t.Errorf("expected %+v, got %+v", want, info)
	}
	if info.Age() != 150*time.Millisecond {
		t.Errorf("expected age 150ms, got %v", info.Age())
	}
}

func TestGetBatchInfo_Invalid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		result  Result[[]int]
		wantErr string
	}{
		{
			name:    "no_metadata",
			result:  NewSuccess([]int{1}),
			wantErr: "flush trigger not found",
		},
		{
			name:    "unknown_trigger",
			result:  NewSuccess([]int{1}).WithMetadata(MetadataFlushTrigger, "tick"),
			wantErr: "invalid flush trigger",
		},
		{
			name: "start_wrong_type",
			result: NewSuccess([]int{1}).
				WithMetadata(MetadataFlushTrigger, string(TriggerSize)).
				WithMetadata(MetadataBatchStart, "yesterday"),
			wantErr: "invalid batch start: metadata key \"batch_start\" has type string",
		},
		{
			name: "trigger_wrong_type",
			result: NewSuccess([]int{1}).
				WithMetadata(MetadataFlushTrigger, 3),
			wantErr: "invalid flush trigger: metadata key",
		},
		{
			name: "missing_start",
			result: NewSuccess([]int{1}).
				WithMetadata(MetadataFlushTrigger, string(TriggerSize)),
			wantErr: "batch start not found",
		},
		{
			name: "missing_timestamp",
			result: NewSuccess([]int{1}).
				WithMetadata(MetadataFlushTrigger, string(TriggerSize)).
				WithMetadata(MetadataBatchStart, now),
			wantErr: "flush timestamp not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GetBatchInfo(tt.result)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if err != nil && strings.Contains(err.Error(), "%!") {
				t.Errorf("malformed error message: %v", err)
			}
		})
	}
}
